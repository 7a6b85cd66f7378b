package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterAndAccess(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.RegisterAgent("Person"))
	assert.Error(t, m.RegisterAgent("Person"))

	m.HintPopulationSize("Person", 10)
	require.NoError(t, RegisterAgentVar[float64](m, "Person", "x", "double"))
	require.NoError(t, RegisterAgentVar[int](m, "Person", "infected", "int"))
	assert.Error(t, RegisterAgentVar[float64](m, "Person", "x", "double"))
	assert.Error(t, RegisterAgentVar[float64](m, "Ghost", "x", "double"))

	xs, err := GetVector[float64](m, "Person", "x")
	require.NoError(t, err)
	*xs = append(*xs, 0.5, 1.5)

	again, err := GetVector[float64](m, "Person", "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.5}, *again)

	// Wrong element type is refused.
	_, err = GetVector[int](m, "Person", "x")
	assert.Error(t, err)
	_, err = GetVector[float64](m, "Person", "nope")
	assert.Error(t, err)
}

func TestManager_VectorWrapper(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.RegisterAgent("Person"))
	require.NoError(t, RegisterAgentVar[int](m, "Person", "infected", "int"))

	w, err := m.GetVectorWrapper("Person", "infected")
	require.NoError(t, err)
	assert.Equal(t, "int", w.TypeName())
	assert.Equal(t, 0, w.Len())

	require.NoError(t, w.Append(1))
	require.NoError(t, w.Append(0))
	assert.Error(t, w.Append("nope"))
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 1, w.Get(0))

	require.NoError(t, w.Set(1, 1))
	assert.Equal(t, 1, w.Get(1))
	assert.Error(t, w.Set(0, 2.5))

	// Growth through the wrapper is visible to typed access.
	col, err := GetVector[int](m, "Person", "infected")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, *col)
}

func TestManager_Reset(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.RegisterAgent("Person"))
	m.Reset()
	require.NoError(t, m.RegisterAgent("Person"))
}

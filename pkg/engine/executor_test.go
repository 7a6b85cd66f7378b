package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-sim/flame/pkg/messageboard"
	"github.com/flame-sim/flame/pkg/schedule"
)

type runLog struct {
	mu    sync.Mutex
	order []string
}

func (l *runLog) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, name)
}

func (l *runLog) indexOf(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, n := range l.order {
		if n == name {
			return i
		}
	}
	return -1
}

func newTestExecutor(opts Options) *Executor {
	return NewExecutor(messageboard.NewManager(), opts)
}

func recordingFunc(log *runLog, name string) schedule.TaskFunc {
	return func(ctx context.Context) error {
		log.record(name)
		return nil
	}
}

func TestExecutor_DependencyOrder(t *testing.T) {
	log := &runLog{}
	exec := newTestExecutor(Options{Logger: zerolog.Nop()})

	require.NoError(t, exec.CreateAgentTask("A.post", "A", recordingFunc(log, "post")))
	require.NoError(t, exec.CreateMessageBoardTask("sync_loc", "loc", schedule.MessageBoardSync))
	require.NoError(t, exec.CreateAgentTask("A.read", "A", func(ctx context.Context) error {
		log.record("read")
		return nil
	}))
	require.NoError(t, exec.CreateMessageBoardTask("clear_loc", "loc", schedule.MessageBoardClear))

	require.NoError(t, exec.AddDependency("sync_loc", "A.post"))
	require.NoError(t, exec.AddDependency("A.read", "sync_loc"))
	require.NoError(t, exec.AddDependency("clear_loc", "A.read"))
	require.NoError(t, exec.Finalise())

	require.NoError(t, exec.Run(context.Background(), 2))

	// Two iterations, each respecting post -> read.
	l := log.order
	require.Len(t, l, 4)
	assert.Equal(t, []string{"post", "read", "post", "read"}, l)
}

func TestExecutor_MessageFlow(t *testing.T) {
	boards := messageboard.NewManager()
	exec := NewExecutor(boards, Options{Logger: zerolog.Nop()})

	var seen []float64
	require.NoError(t, exec.CreateAgentTask("A.post", "A", func(ctx context.Context) error {
		board, err := boards.Board("loc")
		if err != nil {
			return err
		}
		return board.Post(1.5)
	}))
	require.NoError(t, exec.CreateMessageBoardTask("sync_loc", "loc", schedule.MessageBoardSync))
	require.NoError(t, exec.CreateAgentTask("A.read", "A", func(ctx context.Context) error {
		board, err := boards.Board("loc")
		if err != nil {
			return err
		}
		it := board.Iterator()
		for msg, ok := it.Next(); ok; msg, ok = it.Next() {
			seen = append(seen, msg.(float64))
		}
		return nil
	}))
	require.NoError(t, exec.CreateMessageBoardTask("clear_loc", "loc", schedule.MessageBoardClear))

	require.NoError(t, exec.AddDependency("sync_loc", "A.post"))
	require.NoError(t, exec.AddDependency("A.read", "sync_loc"))
	require.NoError(t, exec.AddDependency("clear_loc", "A.read"))
	require.NoError(t, exec.Finalise())

	require.NoError(t, exec.Run(context.Background(), 3))
	assert.Equal(t, []float64{1.5, 1.5, 1.5}, seen,
		"each iteration posts, syncs, reads one message, then clears")
}

func TestExecutor_UnknownDependency(t *testing.T) {
	exec := newTestExecutor(Options{Logger: zerolog.Nop()})
	require.NoError(t, exec.CreateAgentTask("A.f", "A", nil))
	assert.Error(t, exec.AddDependency("A.f", "ghost"))
	assert.Error(t, exec.AddDependency("ghost", "A.f"))
}

func TestExecutor_DuplicateTask(t *testing.T) {
	exec := newTestExecutor(Options{Logger: zerolog.Nop()})
	require.NoError(t, exec.CreateAgentTask("A.f", "A", nil))
	assert.Error(t, exec.CreateAgentTask("A.f", "A", nil))
}

func TestExecutor_IOTaskMerging(t *testing.T) {
	var wrote []string
	exec := NewExecutor(messageboard.NewManager(), Options{
		Logger: zerolog.Nop(),
		IOHandler: func(ctx context.Context, agent, variable string, op schedule.IOOp) error {
			if op == schedule.IOOpOutput {
				wrote = append(wrote, agent+"."+variable)
			}
			return nil
		},
	})
	require.NoError(t, exec.CreateIOTask("A.0", "A", "x", schedule.IOOpOutput))
	require.NoError(t, exec.CreateIOTask("A.0", "A", "y", schedule.IOOpOutput))
	require.NoError(t, exec.Finalise())
	require.NoError(t, exec.Run(context.Background(), 1))

	assert.ElementsMatch(t, []string{"A.x", "A.y"}, wrote)
}

func TestExecutor_CycleRejected(t *testing.T) {
	exec := newTestExecutor(Options{Logger: zerolog.Nop()})
	require.NoError(t, exec.CreateAgentTask("A.f", "A", nil))
	require.NoError(t, exec.CreateAgentTask("A.g", "A", nil))
	require.NoError(t, exec.AddDependency("A.f", "A.g"))
	require.NoError(t, exec.AddDependency("A.g", "A.f"))
	err := exec.Finalise()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestExecutor_FailFast(t *testing.T) {
	exec := newTestExecutor(Options{Logger: zerolog.Nop()})
	boom := errors.New("boom")
	require.NoError(t, exec.CreateAgentTask("A.f", "A", func(ctx context.Context) error {
		return boom
	}))
	require.NoError(t, exec.Finalise())

	err := exec.Run(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestExecutor_ContinueOnError(t *testing.T) {
	log := &runLog{}
	exec := newTestExecutor(Options{Logger: zerolog.Nop(), ContinueOnError: true})
	require.NoError(t, exec.CreateAgentTask("A.bad", "A", func(ctx context.Context) error {
		return errors.New("boom")
	}))
	require.NoError(t, exec.CreateAgentTask("A.good", "A", recordingFunc(log, "good")))
	require.NoError(t, exec.Finalise())

	err := exec.Run(context.Background(), 1)
	require.Error(t, err)
	var agg *AggregatedError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errors, 1)
	assert.Equal(t, 0, log.indexOf("good"), "healthy task still ran")
}

func TestExecutor_NotFinalised(t *testing.T) {
	exec := newTestExecutor(Options{Logger: zerolog.Nop()})
	assert.Error(t, exec.Run(context.Background(), 1))
}

func TestExecutor_Cancellation(t *testing.T) {
	exec := newTestExecutor(Options{Logger: zerolog.Nop()})
	require.NoError(t, exec.CreateAgentTask("A.f", "A", nil))
	require.NoError(t, exec.Finalise())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := exec.Run(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

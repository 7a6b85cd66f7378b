package engine

import (
	"container/list"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ConditionCache is a thread-safe LRU cache for compiled condition
// programs, keyed by expression source.
type ConditionCache struct {
	capacity int
	cache    map[string]*list.Element
	lruList  *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key     string
	program *vm.Program
}

// NewConditionCache creates a cache holding up to capacity programs.
func NewConditionCache(capacity int) *ConditionCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &ConditionCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

// CompileAndCache returns the compiled program for the expression,
// compiling and evicting the least recently used entry when needed.
func (cc *ConditionCache) CompileAndCache(source string, env map[string]any) (*vm.Program, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if element, found := cc.cache[source]; found {
		cc.lruList.MoveToFront(element)
		return element.Value.(*cacheEntry).program, nil
	}

	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}

	element := cc.lruList.PushFront(&cacheEntry{key: source, program: program})
	cc.cache[source] = element

	if cc.lruList.Len() > cc.capacity {
		oldest := cc.lruList.Back()
		if oldest != nil {
			cc.lruList.Remove(oldest)
			delete(cc.cache, oldest.Value.(*cacheEntry).key)
		}
	}
	return program, nil
}

// Size returns the number of cached programs.
func (cc *ConditionCache) Size() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.lruList.Len()
}

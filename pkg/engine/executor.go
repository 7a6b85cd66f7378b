// Package engine executes an emitted task list over worker goroutines:
// agent functions, message board syncs and clears, and population I/O,
// honouring the dependency map produced by the scheduler.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flame-sim/flame/pkg/messageboard"
	"github.com/flame-sim/flame/pkg/schedule"
)

// QueueKind selects the executor queue a task runs on.
type QueueKind int

const (
	QueueAgentFunction QueueKind = iota
	QueueMessageBoard
	QueueIO
)

// IOHandler receives population write requests from I/O tasks. When no
// handler is set, I/O tasks complete without doing anything.
type IOHandler func(ctx context.Context, agent, variable string, op schedule.IOOp) error

// Options configures the executor.
type Options struct {
	// MaxParallelism bounds concurrent tasks within a wave; zero or
	// negative means unbounded.
	MaxParallelism int

	// ContinueOnError keeps an iteration going after task failures and
	// aggregates the errors.
	ContinueOnError bool

	Logger    zerolog.Logger
	IOHandler IOHandler
}

type execTask struct {
	name      string
	queue     QueueKind
	run       schedule.TaskFunc
	parents   []string
	agent     string
	variables []string
	ioOp      schedule.IOOp
}

// Executor implements the registration contract and runs the registered
// tasks iteration by iteration in dependency waves.
type Executor struct {
	mu    sync.Mutex
	opts  Options
	runID string

	boards *messageboard.Manager

	tasks     map[string]*execTask
	order     []string
	waves     [][]string
	finalised bool
}

// NewExecutor creates an executor over the given board manager.
func NewExecutor(boards *messageboard.Manager, opts Options) *Executor {
	return &Executor{
		opts:   opts,
		runID:  uuid.NewString(),
		boards: boards,
		tasks:  make(map[string]*execTask),
	}
}

// RunID identifies this executor instance in logs.
func (e *Executor) RunID() string { return e.runID }

func (e *Executor) add(t *execTask) error {
	if e.finalised {
		return fmt.Errorf("executor already finalised")
	}
	if existing, ok := e.tasks[t.name]; ok {
		// Population writes arrive once per exported variable.
		if existing.queue == QueueIO && t.queue == QueueIO {
			existing.variables = append(existing.variables, t.variables...)
			return nil
		}
		return fmt.Errorf("task %q already created", t.name)
	}
	e.tasks[t.name] = t
	e.order = append(e.order, t.name)
	return nil
}

// CreateAgentTask registers an agent function or condition task.
func (e *Executor) CreateAgentTask(taskName, agentName string, fn schedule.TaskFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.add(&execTask{
		name:  taskName,
		queue: QueueAgentFunction,
		run:   fn,
		agent: agentName,
	})
}

// CreateIOTask registers a population I/O task. Output tasks arrive
// once per exported variable and are merged.
func (e *Executor) CreateIOTask(taskName, agentName, variable string, op schedule.IOOp) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := &execTask{
		name:  taskName,
		queue: QueueIO,
		agent: agentName,
		ioOp:  op,
	}
	if variable != "" {
		t.variables = append(t.variables, variable)
	}
	return e.add(t)
}

// CreateMessageBoardTask registers a sync or clear task bound to the
// board manager.
func (e *Executor) CreateMessageBoardTask(taskName, messageName string, op schedule.MessageBoardOp) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.boards.Board(messageName); err != nil {
		if rerr := e.boards.RegisterMessage(messageName); rerr != nil {
			return rerr
		}
	}

	var run schedule.TaskFunc
	switch op {
	case schedule.MessageBoardSync:
		run = func(context.Context) error { return e.boards.Sync(messageName) }
	case schedule.MessageBoardClear:
		run = func(context.Context) error { return e.boards.Clear(messageName) }
	default:
		return fmt.Errorf("unknown message board op: %d", op)
	}

	return e.add(&execTask{
		name:  taskName,
		queue: QueueMessageBoard,
		run:   run,
	})
}

// AddDependency records that child waits for parent each iteration.
func (e *Executor) AddDependency(child, parent string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalised {
		return fmt.Errorf("executor already finalised")
	}
	c, ok := e.tasks[child]
	if !ok {
		return fmt.Errorf("unknown child task %q", child)
	}
	if _, ok := e.tasks[parent]; !ok {
		return fmt.Errorf("unknown parent task %q", parent)
	}
	c.parents = append(c.parents, parent)
	return nil
}

// Finalise seals registration and precomputes the execution waves.
func (e *Executor) Finalise() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalised {
		return fmt.Errorf("executor already finalised")
	}

	indeg := make(map[string]int, len(e.tasks))
	children := make(map[string][]string, len(e.tasks))
	for _, name := range e.order {
		indeg[name] = len(e.tasks[name].parents)
		for _, p := range e.tasks[name].parents {
			children[p] = append(children[p], name)
		}
	}

	var waves [][]string
	ready := make([]string, 0)
	for _, name := range e.order {
		if indeg[name] == 0 {
			ready = append(ready, name)
		}
	}
	processed := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		wave := ready
		ready = nil
		for _, name := range wave {
			processed++
			for _, c := range children[name] {
				indeg[c]--
				if indeg[c] == 0 {
					ready = append(ready, c)
				}
			}
		}
		waves = append(waves, wave)
	}
	if processed != len(e.tasks) {
		return fmt.Errorf("cycle detected in task dependencies")
	}

	e.waves = waves
	e.finalised = true
	return nil
}

// Run executes the registered tasks for the given number of iterations.
// FinishModel of iteration k happens before StartModel of iteration
// k+1: waves run strictly in sequence.
func (e *Executor) Run(ctx context.Context, iterations int) error {
	if !e.finalised {
		return fmt.Errorf("executor not finalised")
	}
	for iter := 1; iter <= iterations; iter++ {
		start := time.Now()
		e.opts.Logger.Info().
			Str("run_id", e.runID).
			Int("iteration", iter).
			Msg("iteration started")
		if err := e.runIteration(ctx, iter); err != nil {
			return fmt.Errorf("iteration %d: %w", iter, err)
		}
		e.opts.Logger.Info().
			Str("run_id", e.runID).
			Int("iteration", iter).
			Dur("elapsed", time.Since(start)).
			Msg("iteration completed")
	}
	return nil
}

func (e *Executor) runIteration(ctx context.Context, iter int) error {
	for waveIdx, wave := range e.waves {
		if err := e.executeWave(ctx, iter, waveIdx, wave); err != nil {
			return err
		}
	}
	return nil
}

// AggregatedError collects the failures of a continue-on-error wave.
type AggregatedError struct {
	Message string
	Errors  []error
}

func (ae *AggregatedError) Error() string {
	if len(ae.Errors) == 0 {
		return ae.Message
	}
	return fmt.Sprintf("%s: %v", ae.Message, ae.Errors)
}

func (e *Executor) executeWave(ctx context.Context, iter, waveIdx int, wave []string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("execution cancelled before wave %d: %w", waveIdx, ctx.Err())
	default:
	}

	limit := e.opts.MaxParallelism
	if limit <= 0 {
		limit = len(wave)
	}
	semaphore := make(chan struct{}, limit)

	var wg sync.WaitGroup
	errChan := make(chan error, len(wave))

	for _, name := range wave {
		t := e.tasks[name]
		wg.Add(1)
		go func(t *execTask) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			default:
			}

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := e.executeTask(ctx, iter, t); err != nil {
				errChan <- fmt.Errorf("task %s failed: %w", t.name, err)
			}
		}(t)
	}

	wg.Wait()
	close(errChan)

	var collected []error
	for err := range errChan {
		if err == nil {
			continue
		}
		if !e.opts.ContinueOnError {
			return err
		}
		collected = append(collected, err)
	}
	if len(collected) > 0 {
		return &AggregatedError{
			Message: fmt.Sprintf("wave %d completed with %d error(s)", waveIdx, len(collected)),
			Errors:  collected,
		}
	}
	return nil
}

func (e *Executor) executeTask(ctx context.Context, iter int, t *execTask) error {
	logger := e.opts.Logger.With().
		Str("task", t.name).
		Int("iteration", iter).
		Logger()
	logger.Debug().Msg("task started")

	var err error
	switch {
	case t.queue == QueueIO:
		err = e.runIOTask(ctx, t)
	case t.run != nil:
		err = t.run(ctx)
	}

	if err != nil {
		logger.Error().Err(err).Msg("task failed")
		return err
	}
	logger.Debug().Msg("task completed")
	return nil
}

func (e *Executor) runIOTask(ctx context.Context, t *execTask) error {
	if e.opts.IOHandler == nil {
		return nil
	}
	if len(t.variables) == 0 {
		return e.opts.IOHandler(ctx, t.agent, "", t.ioOp)
	}
	for _, v := range t.variables {
		if err := e.opts.IOHandler(ctx, t.agent, v, t.ioOp); err != nil {
			return err
		}
	}
	return nil
}

package action

import (
	"sync/atomic"

	"s3gw/logger"
)

// Step is a unit of work within an Action, bounded by a suspension point or a
// terminal response. Spec glossary: "Step".
type Step func()

// TaskQueue is the ordered, append-only (pre-start) list of steps belonging to
// one Action. Spec §4.2.
type TaskQueue struct {
	steps   []Step
	cursor  int
	started bool
}

// Enqueue appends a step. Legal only before Start. Spec §4.2: "append during
// construction only."
func (q *TaskQueue) Enqueue(step Step) {
	if q.started {
		logger.Error("task queue: enqueue after start, ignoring step")
		return
	}
	q.steps = append(q.steps, step)
}

// Start invokes step 0. Spec §4.2.
func (q *TaskQueue) Start() {
	q.started = true
	q.cursor = 0
	if len(q.steps) == 0 {
		return
	}
	q.steps[0]()
}

// Next invokes the step after the current cursor. Spec §4.2: "if past the
// end, behavior is undefined (actions must terminate via the Response
// Emitter, not by falling off the queue)." The cursor is monotonically
// non-decreasing; steps are never re-executed.
func (q *TaskQueue) Next() {
	q.cursor++
	if q.cursor >= len(q.steps) {
		logger.Error("task queue: next() past end of queue, action did not terminate via send_response")
		return
	}
	q.steps[q.cursor]()
}

// Action is the per-request state machine instance. Spec §3. Concrete verbs
// embed Action and add their own per-verb state fragments.
type Action struct {
	queue TaskQueue

	// terminated guards done() against being invoked more than once and
	// against late backend callbacks firing after termination. It must be
	// checked with atomics because, unlike the single-threaded event loop the
	// spec assumes (§5), Go backend calls may complete on a different
	// goroutine than the one that issued them.
	terminated int32

	Request RequestPort

	// Pre-flight flags, spec §4.4.3: shortcut the task queue straight to
	// send_response; checked first so the correct error wins.
	ContentCorrupt bool
	TooLarge       bool
	InvalidRequest bool

	// BucketMeta is populated by fetch_bucket_info for verbs that load
	// bucket-level metadata. Nil for verbs that don't (e.g. PutKeyValue).
	BucketMeta MetadataRecordPort

	// BackendFailed is set by any step that observes a backend handle reach
	// OpFailed. Consulted by the response priority ladder.
	BackendFailed bool
}

// Enqueue appends a step to the action's task queue. Legal only before Start.
func (a *Action) Enqueue(step Step) {
	a.queue.Enqueue(step)
}

// Start begins step execution at the head of the queue.
func (a *Action) Start() {
	a.queue.Start()
}

// Next advances to the next step, unless the action has already terminated.
func (a *Action) Next() {
	if a.Terminated() {
		return
	}
	a.queue.Next()
}

// JumpTo directly invokes a terminal step (typically send_response),
// bypassing the cursor. Spec §3: "A step may only call next(), a failure
// jump (direct invocation of a terminal step), or schedule a backend call
// whose callback does one of the above."
func (a *Action) JumpTo(step Step) {
	if a.Terminated() {
		return
	}
	step()
}

// Terminated reports whether done() has already fired.
func (a *Action) Terminated() bool {
	return atomic.LoadInt32(&a.terminated) == 1
}

// terminate flips the terminated flag exactly once and reports whether this
// call was the one that did it. Spec §4.2: done() is idempotent-terminal.
func (a *Action) terminate() bool {
	return atomic.CompareAndSwapInt32(&a.terminated, 0, 1)
}

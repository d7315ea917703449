package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskQueue_StartRunsOnlyFirstStep(t *testing.T) {
	var order []int
	q := &TaskQueue{}
	q.Enqueue(func() { order = append(order, 0) })
	q.Enqueue(func() { order = append(order, 1); q.Next() })
	q.Enqueue(func() { order = append(order, 2) })

	q.Start()

	assert.Equal(t, []int{0}, order, "Start only runs step 0; later steps advance explicitly via Next")
}

func TestTaskQueue_EnqueueAfterStartIsIgnored(t *testing.T) {
	q := &TaskQueue{}
	q.Enqueue(func() {})
	q.Start()

	q.Enqueue(func() { t.Fatal("must not run: enqueued after start") })
	q.Next()
}

func TestAction_JumpToAfterTerminateIsNoOp(t *testing.T) {
	a := &Action{}
	calls := 0
	a.Enqueue(func() { calls++ })
	a.Start()

	assert.True(t, a.terminate())
	a.JumpTo(func() { t.Fatal("must not run: action already terminated") })
	a.Next()

	assert.Equal(t, 1, calls)
}

func TestAction_TerminateIsCASOnce(t *testing.T) {
	a := &Action{}
	assert.True(t, a.terminate())
	assert.False(t, a.terminate(), "second terminate() call must report false")
	assert.True(t, a.Terminated())
}

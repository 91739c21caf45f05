package strand

import (
	"container/heap"
	"sync"
)

// scheduler admits tasks to a fixed number of run permits. A task holds
// a permit only while Running; parking at a suspension point hands the
// permit to the highest-priority ready task. State transitions happen
// here and in the task runner, never in task bodies.
type scheduler struct {
	mu    sync.Mutex
	free  int
	ready readyQueue
	seq   uint64
}

func newScheduler(workers int) *scheduler {
	return &scheduler{free: workers}
}

// submit makes a freshly spawned task Ready and admits it.
func (s *scheduler) submit(t *task) {
	s.mu.Lock()
	t.setState(Ready)
	s.admitLocked(t)
	s.mu.Unlock()
}

// park releases the permit held by a task entering a suspension point.
func (s *scheduler) park(t *task) {
	s.mu.Lock()
	t.setState(Suspended)
	s.releaseLocked()
	s.mu.Unlock()
}

// readmit re-queues a resumed task and blocks until a permit is
// granted again.
func (s *scheduler) readmit(t *task) {
	s.mu.Lock()
	t.setState(Ready)
	s.admitLocked(t)
	s.mu.Unlock()
	t.await()
	t.setState(Running)
}

// release returns the permit of a finished task.
func (s *scheduler) release() {
	s.mu.Lock()
	s.releaseLocked()
	s.mu.Unlock()
}

func (s *scheduler) admitLocked(t *task) {
	if s.free > 0 {
		s.free--
		t.grant()
		return
	}
	s.seq++
	heap.Push(&s.ready, &readyEntry{t: t, seq: s.seq})
}

func (s *scheduler) releaseLocked() {
	if s.ready.Len() > 0 {
		e := heap.Pop(&s.ready).(*readyEntry)
		e.t.grant()
		return
	}
	s.free++
}

// readyQueue orders tasks by priority, FIFO within a priority band.
type readyQueue []*readyEntry

type readyEntry struct {
	t   *task
	seq uint64
}

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if q[i].t.pri != q[j].t.pri {
		return q[i].t.pri > q[j].t.pri
	}
	return q[i].seq < q[j].seq
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(*readyEntry)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

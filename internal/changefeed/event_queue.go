package changefeed

import (
	"sync"

	"notes-stream-be/internal/entity"
)

// eventQueue is an unbounded FIFO between a subscription's intake and drain
// goroutines. push never blocks; pop blocks until an event arrives or the
// queue is closed and drained.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []entity.ChangeEvent
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) push(event entity.ChangeEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.events = append(q.events, event)
	q.cond.Signal()
}

func (q *eventQueue) pop() (entity.ChangeEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.events) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.events) == 0 {
		return entity.ChangeEvent{}, false
	}
	event := q.events[0]
	q.events = q.events[1:]
	return event, true
}

func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

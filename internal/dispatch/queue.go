package dispatch

import "sync"

// fifo is an unbounded FIFO queue with a blocking pop. Each queue owns its
// own mutex and condition variable so console and file traffic never
// contend with each other.
//
// Unbounded is the contract: enqueue never blocks and never fails, so a
// sustained producer burst against slow sinks grows memory. Depth exists so
// operators can watch for that.
type fifo[T any] struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	items    []T
	stopped  bool
}

func newFIFO[T any]() *fifo[T] {
	q := &fifo[T]{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// push appends an item and wakes one waiting worker. Never blocks.
func (q *fifo[T]) push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.nonEmpty.Signal()
}

// pop blocks until an item is available or the queue is stopped and
// drained. The second return is false only when no item will ever arrive.
func (q *fifo[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.stopped {
		q.nonEmpty.Wait()
	}

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// stop marks the queue as stopping and wakes every waiter. Items already
// queued are still handed out by pop before it reports exhaustion.
func (q *fifo[T]) stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.nonEmpty.Broadcast()
}

func (q *fifo[T]) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

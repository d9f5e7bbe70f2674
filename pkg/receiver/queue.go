package receiver

import "sync"

// Queue is an unbounded FIFO for raw datagrams, written by the receive
// goroutine and drained by the capture loop.
type Queue struct {
	mu    sync.Mutex
	items [][]byte
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(buf []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, buf)
}

// Dequeue pops the oldest datagram; ok is false when the queue is empty.
func (q *Queue) Dequeue() (buf []byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	buf = q.items[0]
	q.items = q.items[1:]
	return buf, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

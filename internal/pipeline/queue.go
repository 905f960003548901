package pipeline

import (
	"container/heap"
	"sync"

	"github.com/hedgepy/broker/internal/wire"
)

// queueItem is one request waiting in a priority band, ordered by arrival
// sequence so that within a band the queue behaves as plain FIFO — the
// container/heap machinery here exists only to make "pop the oldest item"
// O(log n) rather than to reorder by anything but arrival order.
type queueItem struct {
	req wire.Request
	seq uint64
}

type itemHeap []*queueItem

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].seq < h[j].seq }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) { *h = append(*h, x.(*queueItem)) }
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is the pipeline's two-band priority queue: urgent requests
// (planner backfill/frontfill) always dequeue ahead of normal requests
// (scheduler ticks), with FIFO order preserved within each band.
type Queue struct {
	mu     sync.Mutex
	urgent itemHeap
	normal itemHeap
	seq    uint64
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.urgent)
	heap.Init(&q.normal)
	return q
}

// Push enqueues req onto the band its Priority names.
func (q *Queue) Push(req wire.Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	item := &queueItem{req: req, seq: q.seq}
	if req.Priority == wire.PriorityUrgent {
		heap.Push(&q.urgent, item)
	} else {
		heap.Push(&q.normal, item)
	}
}

// Pop dequeues the highest-priority request: urgent before normal, FIFO
// within a band. Returns false if both bands are empty.
func (q *Queue) Pop() (wire.Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.urgent.Len() > 0 {
		item := heap.Pop(&q.urgent).(*queueItem)
		return item.req, true
	}
	if q.normal.Len() > 0 {
		item := heap.Pop(&q.normal).(*queueItem)
		return item.req, true
	}
	return wire.Request{}, false
}

// Len reports the total number of pending requests across both bands —
// the HTTP front-end's `pending_requests` count.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.urgent.Len() + q.normal.Len()
}

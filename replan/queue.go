package replan

import (
	"container/heap"

	"github.com/o0olele/octree-nav/math32"
)

// Key is the priority of a node in the open queue.
type Key struct {
	K1 float32 `json:"k1"`
	K2 float32 `json:"k2"`
}

// Less compares keys lexicographically, treating components within float
// tolerance as equal.
func (k Key) Less(other Key) bool {
	if !math32.ApproxEqual(k.K1, other.K1) {
		return k.K1 < other.K1
	}
	return k.K2 < other.K2 && !math32.ApproxEqual(k.K2, other.K2)
}

type queueItem struct {
	node  *ReplanNode
	key   Key
	index int
}

// itemHeap orders exactly by key, then by node id.
type itemHeap []*queueItem

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	a, b := h[i].key, h[j].key
	if a.K1 != b.K1 {
		return a.K1 < b.K1
	}
	if a.K2 != b.K2 {
		return a.K2 < b.K2
	}
	return h[i].node.ID < h[j].node.ID
}
func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// queue is the open set. Each queued node points at its item.
type queue struct {
	h itemHeap
}

func (q *queue) Len() int {
	return len(q.h)
}

// top returns the item with the smallest key without removing it.
func (q *queue) top() *queueItem {
	if len(q.h) == 0 {
		return nil
	}
	return q.h[0]
}

// set inserts n with key k, or re-keys it when already queued.
func (q *queue) set(n *ReplanNode, k Key) {
	if n.item != nil {
		n.item.key = k
		heap.Fix(&q.h, n.item.index)
		return
	}
	n.item = &queueItem{node: n, key: k}
	heap.Push(&q.h, n.item)
}

func (q *queue) remove(n *ReplanNode) {
	if n.item == nil {
		return
	}
	heap.Remove(&q.h, n.item.index)
	n.item = nil
}

func (q *queue) contains(n *ReplanNode) bool {
	return n.item != nil && n.item.index >= 0 && n.item.index < len(q.h) && q.h[n.item.index] == n.item
}

func (q *queue) clear() {
	for _, item := range q.h {
		item.node.item = nil
	}
	clear(q.h)
	q.h = q.h[:0]
}

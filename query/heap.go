package query

import (
	"container/heap"
	"sync"

	"github.com/pkg/errors"
)

// heapNode is an entry of the open set
type heapNode struct {
	nodeID int32
	fScore float32
	index  int
}

// nodeHeap orders entries by fScore, then by id so equal scores pop in a
// fixed order.
type nodeHeap []*heapNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].fScore != h[j].fScore {
		return h[i].fScore < h[j].fScore
	}
	return h[i].nodeID < h[j].nodeID
}
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

// Push pushes a new node to the heap
func (h *nodeHeap) Push(x interface{}) {
	item := x.(*heapNode)
	item.index = len(*h)
	*h = append(*h, item)
}

// Pop pops a node from the heap
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// heapNodePool is the pool for the heap
var heapNodePool = sync.Pool{
	New: func() interface{} {
		return &heapNode{index: -1}
	},
}

func newHeapNode(nodeID int32, fScore float32) *heapNode {
	node := heapNodePool.Get().(*heapNode)
	node.nodeID = nodeID
	node.fScore = fScore
	node.index = -1
	return node
}

func releaseHeapNode(node *heapNode) {
	node.index = -1
	heapNodePool.Put(node)
}

// openSet is the A* frontier.
type openSet struct {
	h nodeHeap
}

func (s *openSet) Len() int {
	return s.h.Len()
}

func (s *openSet) push(nodeID int32, fScore float32) *heapNode {
	item := newHeapNode(nodeID, fScore)
	heap.Push(&s.h, item)
	return item
}

// pop removes the entry with the lowest (fScore, id). The caller owns the
// returned entry and must release it.
func (s *openSet) pop() *heapNode {
	return heap.Pop(&s.h).(*heapNode)
}

// rekey changes the score of an entry by removing and re-inserting it.
func (s *openSet) rekey(item *heapNode, fScore float32) error {
	if item.index < 0 || item.index >= len(s.h) || s.h[item.index] != item {
		return errors.Wrapf(ErrCorruptState, "node %d is not in the open set", item.nodeID)
	}
	heap.Remove(&s.h, item.index)
	item.fScore = fScore
	heap.Push(&s.h, item)
	return nil
}

// reorder rescores every entry and restores the heap order.
func (s *openSet) reorder(score func(nodeID int32) float32) {
	for _, item := range s.h {
		item.fScore = score(item.nodeID)
	}
	heap.Init(&s.h)
}

// Clear clears the heap
func (s *openSet) Clear() {
	for _, item := range s.h {
		releaseHeapNode(item)
	}
	clear(s.h)
	s.h = s.h[:0]
}

package tree

import "container/heap"

// StackRecord is a region of the sample permutation waiting to become a node.
type StackRecord struct {
	Start             int
	End               int
	Depth             int
	Parent            int
	IsLeft            bool
	Impurity          float64
	NConstantFeatures int
}

// Stack is a LIFO of pending regions.
type Stack struct {
	records []StackRecord
}

// NewStack returns a stack with room for capacity records.
func NewStack(capacity int) *Stack {
	if capacity < 1 {
		capacity = 1
	}
	return &Stack{records: make([]StackRecord, 0, capacity)}
}

// Push adds a record, doubling the backing storage when full.
func (s *Stack) Push(r StackRecord) {
	if len(s.records) == cap(s.records) {
		grown := make([]StackRecord, len(s.records), 2*cap(s.records))
		copy(grown, s.records)
		s.records = grown
	}
	s.records = append(s.records, r)
}

// Pop removes and returns the most recent record. It panics on an empty
// stack; check IsEmpty first.
func (s *Stack) Pop() StackRecord {
	last := len(s.records) - 1
	r := s.records[last]
	s.records = s.records[:last]
	return r
}

// IsEmpty reports whether no records are pending.
func (s *Stack) IsEmpty() bool { return len(s.records) == 0 }

// Len returns the number of pending records.
func (s *Stack) Len() int { return len(s.records) }

// FrontierRecord is an already split node waiting to be expanded by the
// best-first builder.
type FrontierRecord struct {
	NodeID        int
	Start         int
	End           int
	Pos           int
	Depth         int
	IsLeaf        bool
	Impurity      float64
	ImpurityLeft  float64
	ImpurityRight float64
	Improvement   float64
}

// frontier implements heap.Interface as a max-heap on Improvement.
type frontier []FrontierRecord

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].Improvement > f[j].Improvement }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x interface{}) { *f = append(*f, x.(FrontierRecord)) }
func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	r := old[n-1]
	*f = old[:n-1]
	return r
}

// PriorityHeap orders frontier records by decreasing improvement.
type PriorityHeap struct {
	items frontier
}

// NewPriorityHeap returns an empty heap with room for capacity records.
func NewPriorityHeap(capacity int) *PriorityHeap {
	return &PriorityHeap{items: make(frontier, 0, capacity)}
}

// Push adds a record.
func (h *PriorityHeap) Push(r FrontierRecord) {
	heap.Push(&h.items, r)
}

// Pop removes the record with the largest improvement. It panics when empty.
func (h *PriorityHeap) Pop() FrontierRecord {
	return heap.Pop(&h.items).(FrontierRecord)
}

// IsEmpty reports whether the heap is empty.
func (h *PriorityHeap) IsEmpty() bool { return len(h.items) == 0 }

// Len returns the number of records.
func (h *PriorityHeap) Len() int { return len(h.items) }

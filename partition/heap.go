package partition

import "math"

// HeapItem is the interface an indexed min-heap entry must satisfy: it
// tracks its own position so the heap can support O(log n) key updates
// and removal without a linear scan.
type HeapItem interface {
	HeapPos() int
	SetHeapPos(int)
	HeapKey() float64
	IsLive() bool
}

// heapHandle is the common position/key/liveness mixin shared by the two
// distinct heap entry kinds (mergeEdge, simplifyEdge). The original used
// one Edge type for both; here they are separate structs that only share
// this small mixin, since their payloads and mutation rules differ.
type heapHandle struct {
	pos  int
	key  float64
	live bool
}

func (h *heapHandle) HeapPos() int       { return h.pos }
func (h *heapHandle) SetHeapPos(p int)   { h.pos = p }
func (h *heapHandle) HeapKey() float64   { return h.key }
func (h *heapHandle) IsLive() bool       { return h.live }
func (h *heapHandle) setKey(k float64)   { h.key = k }
func (h *heapHandle) kill()              { h.live = false }

// IndexedHeap is a position-tracking binary min-heap over T. Entries are
// never physically removed mid-run except by Pop; "removing" an entry
// logically means marking it dead (IsLive() == false) and letting Pop
// skip over it when it eventually surfaces.
//
// A key of NaN is treated as "never pop": less orders NaN after every
// real key, so a NaN-keyed entry settles toward the leaves, and Pop
// discards it like a dead entry if it ever surfaces.
type IndexedHeap[T HeapItem] struct {
	items []T
	// tieBreak, if set, decides ordering when two keys compare equal:
	// lower (c1,c2) wins for determinism.
	tieBreak func(a, b T) bool
}

// NewIndexedHeap constructs an empty heap. tieBreak may be nil, in which
// case entries with equal keys pop in heap-internal (non-deterministic
// across runs with concurrent insert order) sequence.
func NewIndexedHeap[T HeapItem](tieBreak func(a, b T) bool) *IndexedHeap[T] {
	return &IndexedHeap[T]{tieBreak: tieBreak}
}

func (h *IndexedHeap[T]) less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	ak, bk := a.HeapKey(), b.HeapKey()
	if aNaN, bNaN := math.IsNaN(ak), math.IsNaN(bk); aNaN || bNaN {
		return !aNaN
	}
	if ak == bk {
		if h.tieBreak != nil {
			return h.tieBreak(a, b)
		}
		return false
	}
	return ak < bk
}

func (h *IndexedHeap[T]) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].SetHeapPos(i)
	h.items[j].SetHeapPos(j)
}

// Push inserts item and returns it (mirroring the pointer the caller
// already holds, for convenience at call sites).
func (h *IndexedHeap[T]) Push(item T) T {
	item.SetHeapPos(len(h.items))
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
	return item
}

func (h *IndexedHeap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.less(i, parent) {
			h.swap(i, parent)
			i = parent
		} else {
			return
		}
	}
}

func (h *IndexedHeap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && h.less(l, smallest) {
			smallest = l
		}
		if r < n && h.less(r, smallest) {
			smallest = r
		}
		if smallest == i {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

// Fix re-establishes heap order for item after its key has changed
// (decrease- or increase-key), in O(log n).
func (h *IndexedHeap[T]) Fix(item T) {
	i := item.HeapPos()
	h.siftUp(i)
	h.siftDown(i)
}

func (h *IndexedHeap[T]) removeAt(i int) T {
	last := len(h.items) - 1
	h.swap(i, last)
	item := h.items[last]
	h.items = h.items[:last]
	if i < len(h.items) {
		h.siftDown(i)
		h.siftUp(i)
	}
	return item
}

// Pop removes and returns the minimum-key live entry, discarding any dead
// or NaN-keyed entries it encounters along the way. ok is false only when
// the heap has no live, non-NaN entries left.
func (h *IndexedHeap[T]) Pop() (item T, ok bool) {
	for len(h.items) > 0 {
		top := h.removeAt(0)
		if top.IsLive() && !math.IsNaN(top.HeapKey()) {
			return top, true
		}
	}
	var zero T
	return zero, false
}

// Len reports the number of entries still stored, live or dead.
func (h *IndexedHeap[T]) Len() int { return len(h.items) }

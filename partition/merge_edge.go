package partition

// mergeEdge is a candidate cluster-pair merge. It lives only while both
// C1 and C2 exist and remain adjacent; once either condition breaks, it
// is killed rather than mutated in place.
type mergeEdge struct {
	heapHandle
	C1, C2 int // always stored with C1 < C2, for deterministic lookup/tie-break
}

func newMergeEdge(c1, c2 int, delta float64) *mergeEdge {
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	return &mergeEdge{
		heapHandle: heapHandle{key: delta, live: true},
		C1:         c1,
		C2:         c2,
	}
}

// mergeEdgeLess implements the merge heap's tie-break rule: on an exact
// key tie, the lexicographically smaller (c1, c2) pair wins, for
// determinism.
func mergeEdgeLess(a, b *mergeEdge) bool {
	if a.C1 != b.C1 {
		return a.C1 < b.C1
	}
	return a.C2 < b.C2
}

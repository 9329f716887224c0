package partition

import "github.com/unixpickle/model3d/model3d"

// simplifyEdge is a candidate vertex-pair contraction during mesh
// simplification.
type simplifyEdge struct {
	heapHandle
	V1, V2 int
	Border bool
	// Target is the point the edge contracts to if popped, precomputed
	// when the edge's cost is (re)computed so Pop doesn't need to re-solve.
	Target model3d.Coord3D
}

func newSimplifyEdge(v1, v2 int, border bool) *simplifyEdge {
	return &simplifyEdge{
		heapHandle: heapHandle{live: true},
		V1:         v1,
		V2:         v2,
		Border:     border,
	}
}

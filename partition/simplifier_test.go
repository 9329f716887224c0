package partition

import (
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

// A flat vertex fan around one interior point. Only the zero-cost spoke
// contractions (interior-to-border) fall under a tight cost limit; every
// border-to-border edge carries a nonzero cost from its two corners'
// differing border-constraint planes, so the ring itself never
// contracts.
func fanWithInteriorCenter() ([]model3d.Coord3D, [][3]int) {
	return []model3d.Coord3D{
			model3d.XYZ(1, 0, 0),  // 0: ring
			model3d.XYZ(0, 1, 0),  // 1: ring
			model3d.XYZ(-1, 0, 0), // 2: ring
			model3d.XYZ(0, -1, 0), // 3: ring
			model3d.XYZ(0, 0, 0),  // 4: interior
		}, [][3]int{
			{4, 0, 1},
			{4, 1, 2},
			{4, 2, 3},
			{4, 3, 0},
		}
}

func TestSimplificationPreservesBorderVertices(t *testing.T) {
	verts, tris := fanWithInteriorCenter()
	p := newTestPartition(t, verts, tris)
	p.InitMerging()
	p.RunMerging(1) // single cluster: spokes are interior, ring edges stay border

	p.Config.SimplifyCostLimit = 1e-6
	p.RunSimplification()

	if p.Mesh.Vertices[4].Valid {
		t.Fatal("expected the interior vertex to be removed by a zero-cost spoke contraction")
	}
	for i := 0; i < 4; i++ {
		if !p.Mesh.Vertices[i].Valid {
			t.Fatalf("expected border vertex %d to survive simplification", i)
		}
	}
	if n := p.validVertexCount(); n != 4 {
		t.Fatalf("expected exactly the 4 border vertices to remain, got %d", n)
	}
	for fi := range p.Mesh.Faces {
		f := &p.Mesh.Faces[fi]
		if f.Valid && f.Area <= 0 {
			t.Fatalf("face %d survived with non-positive area %f", fi, f.Area)
		}
	}
}

func TestSimplificationNoOpWhenCostLimitIsNegative(t *testing.T) {
	verts, tris := fanWithInteriorCenter()
	p := newTestPartition(t, verts, tris)
	p.InitMerging()
	p.RunMerging(1)

	p.Config.SimplifyCostLimit = -1 // no contraction's cost can be negative
	p.RunSimplification()

	if n := p.validVertexCount(); n != 5 {
		t.Fatalf("expected no contractions below a negative cost limit, got %d valid vertices", n)
	}
}

func TestIsBorderEdgeDetectsClusterBoundary(t *testing.T) {
	verts, tris := flatQuad()
	p := newTestPartition(t, verts, tris)
	// One cluster per face: the shared edge (1,2) separates two clusters.
	if !p.isBorderEdge(1, 2) {
		t.Fatal("expected the inter-cluster edge to be a border edge")
	}

	p.InitMerging()
	p.RunMerging(1)
	if p.isBorderEdge(1, 2) {
		t.Fatal("expected the edge to stop being a border edge once both faces share a cluster")
	}
	// The mesh's own outer boundary edges are always border, regardless of clustering.
	if !p.isBorderEdge(0, 1) {
		t.Fatal("expected a mesh-boundary edge to remain a border edge")
	}
}

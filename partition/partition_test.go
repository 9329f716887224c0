package partition

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func newTestPartition(t *testing.T, verts []model3d.Coord3D, tris [][3]int) *Partition {
	t.Helper()
	mesh, _, err := NewMesh(verts, tris)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	return New(mesh, DefaultConfig())
}

// Merging a flat quad to its already-target cluster count should do no
// work and leave zero energy.
func TestMergingFlatQuadAtTargetIsNoOp(t *testing.T) {
	verts, tris := flatQuad()
	p := newTestPartition(t, verts, tris)
	p.Config.TargetClusterNum = 2
	p.InitMerging()
	p.RunMerging(2)

	if n := p.CurrentClusterNum(); n != 2 {
		t.Fatalf("expected 2 clusters, got %d", n)
	}
	if e := p.TotalEnergy(); e != 0 {
		t.Fatalf("expected zero total energy, got %f", e)
	}
}

// A coplanar quad should merge to a single cluster with zero energy.
func TestMergingFlatQuadMergesToOneCluster(t *testing.T) {
	verts, tris := flatQuad()
	p := newTestPartition(t, verts, tris)
	p.InitMerging()
	p.RunMerging(1)

	if n := p.CurrentClusterNum(); n != 1 {
		t.Fatalf("expected 1 cluster, got %d", n)
	}
	if e := p.TotalEnergy(); math.Abs(e) > 1e-9 {
		t.Fatalf("expected ~zero total energy for a flat merge, got %f", e)
	}
	for _, c := range p.NonEmptyClusters() {
		if len(c.Faces) != 2 {
			t.Fatalf("expected the surviving cluster to own both faces, got %d", len(c.Faces))
		}
	}
}

// Merging a bent quad down to one cluster should leave nonzero energy,
// matching the cluster's own recomputed covariance energy.
func TestMergingBentQuadLeavesNonzeroEnergy(t *testing.T) {
	verts := []model3d.Coord3D{
		model3d.XYZ(0, 0, 0),
		model3d.XYZ(1, 0, 0),
		model3d.XYZ(0, 1, 0),
		model3d.XYZ(1, 1, 1),
	}
	tris := [][3]int{{0, 1, 2}, {1, 3, 2}}
	p := newTestPartition(t, verts, tris)
	p.InitMerging()
	p.RunMerging(1)

	if n := p.CurrentClusterNum(); n != 1 {
		t.Fatalf("expected 1 cluster, got %d", n)
	}
	clusters := p.NonEmptyClusters()
	if len(clusters) != 1 {
		t.Fatalf("expected exactly one surviving cluster")
	}
	got := clusters[0].Energy
	if got <= 0 {
		t.Fatalf("expected positive energy for a bent merge, got %f", got)
	}
	want := clusters[0].Cov.Energy()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("cached energy %f does not match recomputed energy %f", got, want)
	}
}

// A tetrahedron should merge deterministically down through two clusters
// to one, with positive final energy.
func TestMergingTetrahedronConvergesToOneCluster(t *testing.T) {
	verts := []model3d.Coord3D{
		model3d.XYZ(1, 1, 1),
		model3d.XYZ(1, -1, -1),
		model3d.XYZ(-1, 1, -1),
		model3d.XYZ(-1, -1, 1),
	}
	tris := [][3]int{
		{0, 1, 2},
		{0, 3, 1},
		{0, 2, 3},
		{1, 3, 2},
	}
	p := newTestPartition(t, verts, tris)
	p.InitMerging()
	p.RunMerging(2)
	if n := p.CurrentClusterNum(); n != 2 {
		t.Fatalf("expected 2 clusters at target=2, got %d", n)
	}

	p.RunMerging(1)
	if n := p.CurrentClusterNum(); n != 1 {
		t.Fatalf("expected 1 cluster at target=1, got %d", n)
	}
	if e := p.TotalEnergy(); e <= 0 {
		t.Fatalf("expected positive energy for a fully merged tetrahedron, got %f", e)
	}
}

func TestDoubleCheckCatchesOrphanFace(t *testing.T) {
	verts, tris := flatQuad()
	p := newTestPartition(t, verts, tris)
	if err := p.DoubleCheck(); err != nil {
		t.Fatalf("unexpected invariant violation on a fresh partition: %v", err)
	}

	// Corrupt the invariant directly: detach a face from its cluster's set.
	c := p.Clusters[0]
	delete(c.Faces, 0)
	if err := p.DoubleCheck(); err == nil {
		t.Fatal("expected DoubleCheck to catch the orphaned face")
	}
}

func TestLoadClusterAssignmentRoundTrip(t *testing.T) {
	verts, tris := flatQuad()
	p := newTestPartition(t, verts, tris)
	p.InitMerging()
	p.RunMerging(1)

	assignment := make([]int, len(p.Mesh.Faces))
	for i := range p.Mesh.Faces {
		assignment[i] = p.Mesh.Faces[i].ClusterID
	}

	mesh2, _, err := NewMesh(verts, tris)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	p2 := New(mesh2, DefaultConfig())
	if err := p2.LoadClusterAssignment(len(p.Clusters), assignment); err != nil {
		t.Fatalf("LoadClusterAssignment: %v", err)
	}
	if p2.CurrentClusterNum() != p.CurrentClusterNum() {
		t.Fatalf("cluster count mismatch after round-trip: %d vs %d", p2.CurrentClusterNum(), p.CurrentClusterNum())
	}
	if math.Abs(p2.TotalEnergy()-p.TotalEnergy()) > 1e-9 {
		t.Fatalf("energy mismatch after round-trip: %f vs %f", p2.TotalEnergy(), p.TotalEnergy())
	}
}

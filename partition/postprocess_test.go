package partition

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestRemoveTinyClustersAbsorbsIntoBestNeighbor(t *testing.T) {
	verts := []model3d.Coord3D{
		model3d.XYZ(0, 0, 0),
		model3d.XYZ(10, 0, 0),
		model3d.XYZ(0, 10, 0),
		model3d.XYZ(10, 10, 0),
		model3d.XYZ(10.01, 0, 0),
	}
	tris := [][3]int{
		{0, 1, 2}, // big triangle, area 50
		{1, 3, 2}, // big triangle, area 50
		{1, 4, 2}, // sliver, tiny area, shares the 1-2 edge with both
	}
	p := newTestPartition(t, verts, tris)
	p.Config.MinClusterArea = 0.5
	// One cluster per face initially (from New); the sliver (face 2) is tiny.
	sliverID := p.Mesh.Faces[2].ClusterID
	if p.Clusters[sliverID].Area >= p.Config.MinClusterArea {
		t.Fatalf("expected the sliver face to be tiny, got area %f", p.Clusters[sliverID].Area)
	}

	p.removeTinyClusters()
	if !p.Clusters[sliverID].Empty() {
		t.Fatal("expected the tiny cluster to be absorbed")
	}
	if err := p.DoubleCheck(); err != nil {
		t.Fatalf("invariants broken after removeTinyClusters: %v", err)
	}
}

func TestMergeCoplanarClustersMergesAlignedNeighbors(t *testing.T) {
	verts, tris := flatQuad()
	p := newTestPartition(t, verts, tris)
	p.Config.CoplanarMaxDistance = 0.01
	p.Config.CoplanarAvgDistance = 0.01
	p.Config.CoplanarNormalCos = math.Cos(10 * math.Pi / 180)

	if p.CurrentClusterNum() != 2 {
		t.Fatalf("expected 2 one-per-face clusters, got %d", p.CurrentClusterNum())
	}
	p.mergeCoplanarClusters()
	if p.CurrentClusterNum() != 1 {
		t.Fatalf("expected both flat, coplanar faces to merge into one cluster, got %d", p.CurrentClusterNum())
	}
}

func TestMergeCoplanarClustersLeavesBentQuadSeparate(t *testing.T) {
	verts := []model3d.Coord3D{
		model3d.XYZ(0, 0, 0),
		model3d.XYZ(1, 0, 0),
		model3d.XYZ(0, 1, 0),
		model3d.XYZ(1, 1, 1),
	}
	tris := [][3]int{{0, 1, 2}, {1, 3, 2}}
	p := newTestPartition(t, verts, tris)
	p.Config.CoplanarMaxDistance = 0.01
	p.Config.CoplanarAvgDistance = 0.01
	p.Config.CoplanarNormalCos = math.Cos(10 * math.Pi / 180)

	p.mergeCoplanarClusters()
	if p.CurrentClusterNum() != 2 {
		t.Fatalf("expected the bent faces to stay separate, got %d clusters", p.CurrentClusterNum())
	}
}

// A single cluster spanning two geometrically disjoint patches should be
// split back into one cluster per connected component.
func TestIslandDetectionSplitsDisjointPatches(t *testing.T) {
	verts := []model3d.Coord3D{
		model3d.XYZ(0, 0, 0),
		model3d.XYZ(1, 0, 0),
		model3d.XYZ(0, 1, 0),
		model3d.XYZ(1, 1, 0),
		model3d.XYZ(10, 10, 10),
		model3d.XYZ(11, 10, 10),
		model3d.XYZ(10, 11, 10),
		model3d.XYZ(11, 11, 10),
	}
	tris := [][3]int{
		{0, 1, 2},
		{1, 3, 2},
		{4, 5, 6},
		{5, 7, 6},
	}
	p := newTestPartition(t, verts, tris)
	if err := p.LoadClusterAssignment(1, []int{0, 0, 0, 0}); err != nil {
		t.Fatalf("LoadClusterAssignment: %v", err)
	}
	if p.CurrentClusterNum() != 1 {
		t.Fatalf("expected a single cluster before island detection, got %d", p.CurrentClusterNum())
	}

	p.processIslands(map[int]struct{}{0: {}})

	if n := p.CurrentClusterNum(); n != 2 {
		t.Fatalf("expected island detection to split the two disjoint patches apart, got %d clusters", n)
	}
	for _, c := range p.NonEmptyClusters() {
		if len(c.Faces) != 2 {
			t.Fatalf("expected each resulting cluster to own exactly one patch (2 faces), got %d", len(c.Faces))
		}
	}
	if err := p.DoubleCheck(); err != nil {
		t.Fatalf("invariants broken after island detection: %v", err)
	}
}

func TestReindexDropsInvalidAndRenumbersDensely(t *testing.T) {
	verts, tris := flatQuad()
	p := newTestPartition(t, verts, tris)
	p.InitMerging()
	p.RunMerging(1)

	vMap, fMap := p.Reindex()
	if len(vMap) != 4 {
		t.Fatalf("expected all 4 vertices to survive reindexing, got %d", len(vMap))
	}
	if len(fMap) != 2 {
		t.Fatalf("expected all 2 faces to survive reindexing, got %d", len(fMap))
	}
	if p.Mesh.NumFaces() != 2 {
		t.Fatalf("expected the rebuilt mesh to keep 2 faces, got %d", p.Mesh.NumFaces())
	}
	if p.CurrentClusterNum() != 1 {
		t.Fatalf("expected the rebuilt partition to keep 1 cluster, got %d", p.CurrentClusterNum())
	}
}

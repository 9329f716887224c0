package partition

import (
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func flatQuad() ([]model3d.Coord3D, [][3]int) {
	return []model3d.Coord3D{
			model3d.XYZ(0, 0, 0),
			model3d.XYZ(1, 0, 0),
			model3d.XYZ(0, 1, 0),
			model3d.XYZ(1, 1, 0),
		}, [][3]int{
			{0, 1, 2},
			{1, 3, 2},
		}
}

func TestNewMeshAdjacency(t *testing.T) {
	verts, tris := flatQuad()
	mesh, diag, err := NewMesh(verts, tris)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diag.DegenerateFaces != 0 {
		t.Fatalf("expected no degenerate faces, got %d", diag.DegenerateFaces)
	}
	if mesh.NumFaces() != 2 {
		t.Fatalf("expected 2 faces, got %d", mesh.NumFaces())
	}
	if !mesh.IsManifoldEdge(1, 2) {
		t.Fatal("expected the shared edge to be manifold")
	}
	if _, ok := mesh.Faces[0].NbrFaces[1]; !ok {
		t.Fatal("expected face 0 to be adjacent to face 1")
	}
	if _, ok := mesh.Faces[1].NbrFaces[0]; !ok {
		t.Fatal("expected adjacency to be symmetric")
	}
}

func TestNewMeshSkipsDegenerate(t *testing.T) {
	verts := []model3d.Coord3D{
		model3d.XYZ(0, 0, 0),
		model3d.XYZ(1, 0, 0),
		model3d.XYZ(0, 1, 0),
	}
	tris := [][3]int{
		{0, 1, 2},
		{0, 0, 1}, // degenerate: repeated vertex
	}
	mesh, diag, err := NewMesh(verts, tris)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diag.DegenerateFaces != 1 {
		t.Fatalf("expected 1 degenerate face, got %d", diag.DegenerateFaces)
	}
	if mesh.NumFaces() != 1 {
		t.Fatalf("expected 1 surviving face, got %d", mesh.NumFaces())
	}
}

func TestNewMeshDeduplicatesFaces(t *testing.T) {
	verts := []model3d.Coord3D{
		model3d.XYZ(0, 0, 0),
		model3d.XYZ(1, 0, 0),
		model3d.XYZ(0, 1, 0),
	}
	tris := [][3]int{
		{0, 1, 2},
		{1, 2, 0}, // same triangle, rotated winding
	}
	mesh, _, err := NewMesh(verts, tris)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mesh.NumFaces() != 1 {
		t.Fatalf("expected duplicate face to be collapsed, got %d faces", mesh.NumFaces())
	}
}

func TestNewMeshRejectsOutOfRangeIndex(t *testing.T) {
	verts := []model3d.Coord3D{model3d.Origin, model3d.XYZ(1, 0, 0), model3d.XYZ(0, 1, 0)}
	tris := [][3]int{{0, 1, 5}}
	if _, _, err := NewMesh(verts, tris); err == nil {
		t.Fatal("expected an error for an out-of-range vertex index")
	}
}

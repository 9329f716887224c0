package plyio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/unixpickle/model3d/model3d"
)

func sampleMesh() *Mesh {
	return &Mesh{
		Vertices: []model3d.Coord3D{
			model3d.XYZ(0, 0, 0),
			model3d.XYZ(1, 0, 0),
			model3d.XYZ(0, 1, 0),
			model3d.XYZ(1, 1, 0),
		},
		Triangles: [][3]int{{0, 1, 2}, {1, 3, 2}},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	want := sampleMesh()
	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReadRoundTripWithColors(t *testing.T) {
	want := sampleMesh()
	want.Colors = [][3]uint8{{255, 0, 0}, {0, 255, 0}}

	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	// Read never populates Colors (it is a write-only, cosmetic field for
	// downstream viewers), so compare only the geometry here.
	if diff := cmp.Diff(want.Vertices, got.Vertices); diff != "" {
		t.Fatalf("vertex mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Triangles, got.Triangles); diff != "" {
		t.Fatalf("triangle mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRejectsMissingMagic(t *testing.T) {
	r := strings.NewReader("not ply\nformat ascii 1.0\nend_header\n")
	if _, err := Read(r); err == nil {
		t.Fatal("expected an error for a missing ply magic header")
	}
}

func TestReadRejectsNonTriangleFace(t *testing.T) {
	src := strings.Join([]string{
		"ply",
		"format ascii 1.0",
		"element vertex 4",
		"property double x",
		"property double y",
		"property double z",
		"element face 1",
		"property list uchar int vertex_indices",
		"end_header",
		"0 0 0",
		"1 0 0",
		"0 1 0",
		"1 1 0",
		"4 0 1 2 3",
		"",
	}, "\n")
	if _, err := Read(strings.NewReader(src)); err == nil {
		t.Fatal("expected an error for a non-triangle face")
	}
}

func TestReadRejectsMissingVertexProperty(t *testing.T) {
	src := strings.Join([]string{
		"ply",
		"format ascii 1.0",
		"element vertex 1",
		"property double x",
		"property double y",
		"element face 0",
		"property list uchar int vertex_indices",
		"end_header",
		"0 0",
		"",
	}, "\n")
	if _, err := Read(strings.NewReader(src)); err == nil {
		t.Fatal("expected an error when the vertex element is missing a z property")
	}
}

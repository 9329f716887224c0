package partition

import "github.com/unixpickle/model3d/model3d"

// Vertex is a mesh vertex. Vertices are only ever marked invalid, never
// removed from the backing slice, so every reference to a vertex id
// remains valid for the lifetime of the Mesh.
type Vertex struct {
	Pos         model3d.Coord3D
	Valid       bool
	ClusterID   int
	NbrVertices map[int]struct{}
	NbrFaces    map[int]struct{}
	Quadric     Quadric
}

// Face is a mesh triangle.
type Face struct {
	Indices  [3]int
	Area     float64
	Normal   model3d.Coord3D
	ClusterID int
	Cov      Covariance
	NbrFaces map[int]struct{}
	Valid    bool
	visited  bool
}

// Mesh is the vertex/face arrays plus the dual graph (face adjacency)
// derived from them. It is built once by NewMesh and then mutated in
// place (vertices/faces marked invalid, never compacted) until a
// post-processing re-index pass produces a dense output mesh.
type Mesh struct {
	Vertices []Vertex
	Faces    []Face

	edgeToFaces map[int64][]int
}

// NewMesh validates and indexes a triangle soup: it rejects out-of-range
// indices, de-duplicates exactly-repeated faces, skips (and tallies)
// degenerate zero-area faces, and computes face/vertex adjacency plus
// per-face covariance.
func NewMesh(positions []model3d.Coord3D, triangles [][3]int) (*Mesh, *Diagnostics, error) {
	m := &Mesh{
		Vertices:    make([]Vertex, len(positions)),
		edgeToFaces: make(map[int64][]int),
	}
	for i, p := range positions {
		m.Vertices[i] = Vertex{
			Pos:         p,
			Valid:       true,
			ClusterID:   -1,
			NbrVertices: map[int]struct{}{},
			NbrFaces:    map[int]struct{}{},
		}
	}

	diag := &Diagnostics{}
	seen := make(map[[3]int]struct{}, len(triangles))
	for _, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(positions) {
				return nil, nil, malformedInput("face references out-of-range vertex %d (have %d vertices)", idx, len(positions))
			}
		}
		key := dedupeKey(tri)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		v0, v1, v2 := positions[tri[0]], positions[tri[1]], positions[tri[2]]
		normal, area := triangleNormalArea(v0, v1, v2)
		if area <= 0 || tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			diag.DegenerateFaces++
			continue
		}

		fidx := len(m.Faces)
		m.Faces = append(m.Faces, Face{
			Indices:   tri,
			Area:      area,
			Normal:    normal,
			ClusterID: -1,
			Cov:       NewFaceCovariance(v0, v1, v2, area),
			NbrFaces:  map[int]struct{}{},
			Valid:     true,
		})

		for i := 0; i < 3; i++ {
			a, b := tri[i], tri[(i+1)%3]
			m.Vertices[a].NbrVertices[b] = struct{}{}
			m.Vertices[b].NbrVertices[a] = struct{}{}
			m.Vertices[a].NbrFaces[fidx] = struct{}{}
			m.Vertices[b].NbrFaces[fidx] = struct{}{}
			m.Vertices[tri[2-i]].NbrFaces[fidx] = struct{}{}

			key := edgeKey(a, b)
			m.edgeToFaces[key] = append(m.edgeToFaces[key], fidx)
		}
	}

	for key, faces := range m.edgeToFaces {
		if len(faces) == 2 {
			f1, f2 := faces[0], faces[1]
			m.Faces[f1].NbrFaces[f2] = struct{}{}
			m.Faces[f2].NbrFaces[f1] = struct{}{}
		} else if len(faces) > 2 {
			// Non-manifold edge: link every incident face pairwise so the
			// dual graph stays connected through it; this is a redundant
			// mesh, not a structural error.
			_ = key
			for i := range faces {
				for j := range faces {
					if i != j {
						m.Faces[faces[i]].NbrFaces[faces[j]] = struct{}{}
					}
				}
			}
		}
	}

	for i := range m.Faces {
		m.Faces[i].ClusterID = i
	}

	return m, diag, nil
}

func dedupeKey(tri [3]int) [3]int {
	a, b, c := tri[0], tri[1], tri[2]
	// Sort the three indices so that winding-preserved duplicates (the
	// exact same triangle, same three vertices) collapse regardless of
	// which vertex the source listed first.
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return [3]int{a, b, c}
}

// NumFaces returns the number of valid (non-degenerate) faces.
func (m *Mesh) NumFaces() int {
	n := 0
	for i := range m.Faces {
		if m.Faces[i].Valid {
			n++
		}
	}
	return n
}

// IsManifoldEdge reports whether the edge (v1, v2) has exactly two
// incident faces.
func (m *Mesh) IsManifoldEdge(v1, v2 int) bool {
	return len(m.edgeToFaces[edgeKey(v1, v2)]) == 2
}

// FacesOnEdge returns the (one or two) faces incident to edge (v1, v2).
func (m *Mesh) FacesOnEdge(v1, v2 int) []int {
	return m.edgeToFaces[edgeKey(v1, v2)]
}

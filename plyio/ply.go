// Package plyio reads and writes the narrow slice of the PLY format this
// project needs: ASCII, a vertex element with x/y/z (and optional
// uchar red/green/blue), and a face element of triangle vertex_indices
// lists. It is the only layer in this module that touches raw files.
package plyio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Mesh is the plain vertex/triangle/color data a PLY file carries, decoupled
// from partition.Mesh so this package has no dependency on the core.
type Mesh struct {
	Vertices  []model3d.Coord3D
	Triangles [][3]int
	// Colors, if non-nil, has one entry per triangle.
	Colors [][3]uint8
}

// Read parses an ASCII PLY file from r.
func Read(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "ply" {
		return nil, errors.New("plyio: missing 'ply' magic header")
	}

	var numVerts, numFaces int
	var vertexProps []string
	section := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format", "comment":
			continue
		case "element":
			if len(fields) != 3 {
				return nil, errors.Errorf("plyio: malformed element line %q", line)
			}
			section = fields[1]
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, errors.Wrapf(err, "plyio: element count %q", line)
			}
			switch section {
			case "vertex":
				numVerts = n
			case "face":
				numFaces = n
			}
		case "property":
			if section == "vertex" {
				vertexProps = append(vertexProps, fields[len(fields)-1])
			}
		case "end_header":
			goto headerDone
		}
	}
headerDone:
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "plyio: reading header")
	}

	xi, yi, zi := -1, -1, -1
	for i, name := range vertexProps {
		switch name {
		case "x":
			xi = i
		case "y":
			yi = i
		case "z":
			zi = i
		}
	}
	if xi == -1 || yi == -1 || zi == -1 {
		return nil, errors.New("plyio: vertex element missing x/y/z property")
	}

	m := &Mesh{Vertices: make([]model3d.Coord3D, numVerts)}
	for i := 0; i < numVerts; i++ {
		if !sc.Scan() {
			return nil, errors.Errorf("plyio: expected %d vertices, found %d", numVerts, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < len(vertexProps) {
			return nil, errors.Errorf("plyio: vertex line %d has too few fields", i)
		}
		x, err := strconv.ParseFloat(fields[xi], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "plyio: vertex %d x", i)
		}
		y, err := strconv.ParseFloat(fields[yi], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "plyio: vertex %d y", i)
		}
		z, err := strconv.ParseFloat(fields[zi], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "plyio: vertex %d z", i)
		}
		m.Vertices[i] = model3d.XYZ(x, y, z)
	}

	m.Triangles = make([][3]int, numFaces)
	for i := 0; i < numFaces; i++ {
		if !sc.Scan() {
			return nil, errors.Errorf("plyio: expected %d faces, found %d", numFaces, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, errors.Errorf("plyio: face line %d malformed", i)
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "plyio: face %d count", i)
		}
		if count != 3 {
			return nil, errors.Errorf("plyio: face %d is not a triangle (%d vertices)", i, count)
		}
		var tri [3]int
		for k := 0; k < 3; k++ {
			idx, err := strconv.Atoi(fields[1+k])
			if err != nil {
				return nil, errors.Wrapf(err, "plyio: face %d vertex %d", i, k)
			}
			tri[k] = idx
		}
		m.Triangles[i] = tri
	}
	return m, nil
}

// Write emits m as an ASCII PLY file, with per-face color if m.Colors is
// set.
func Write(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format ascii 1.0")
	fmt.Fprintf(bw, "element vertex %d\n", len(m.Vertices))
	fmt.Fprintln(bw, "property double x")
	fmt.Fprintln(bw, "property double y")
	fmt.Fprintln(bw, "property double z")
	fmt.Fprintf(bw, "element face %d\n", len(m.Triangles))
	fmt.Fprintln(bw, "property list uchar int vertex_indices")
	if m.Colors != nil {
		fmt.Fprintln(bw, "property uchar red")
		fmt.Fprintln(bw, "property uchar green")
		fmt.Fprintln(bw, "property uchar blue")
	}
	fmt.Fprintln(bw, "end_header")

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "%g %g %g\n", v.X, v.Y, v.Z)
	}
	for i, tri := range m.Triangles {
		if m.Colors != nil {
			c := m.Colors[i]
			fmt.Fprintf(bw, "3 %d %d %d %d %d %d\n", tri[0], tri[1], tri[2], c[0], c[1], c[2])
		} else {
			fmt.Fprintf(bw, "3 %d %d %d\n", tri[0], tri[1], tri[2])
		}
	}
	return errors.Wrap(bw.Flush(), "plyio: writing body")
}

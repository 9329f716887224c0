package partition

import (
	"github.com/unixpickle/model3d/model3d"
)

// RunSimplification contracts low-cost edges of the re-indexed,
// cluster-labelled mesh until the heap's minimum cost exceeds
// Config.SimplifyCostLimit, a target vertex count is reached, or the
// heap empties.
func (p *Partition) RunSimplification() {
	p.computeVertexQuadrics()
	p.seedSimplifyHeap()

	for {
		e, ok := p.simplifyHeap.Pop()
		if !ok {
			return
		}
		if e.HeapKey() > p.Config.SimplifyCostLimit {
			return
		}
		if !p.validContraction(e) {
			continue
		}
		p.applyContraction(e)
		if p.Config.SimplifyTargetVertexNum > 0 && p.validVertexCount() <= p.Config.SimplifyTargetVertexNum {
			return
		}
	}
}

// computeVertexQuadrics seeds every valid vertex's Quadric from its
// incident faces' plane quadrics (weighted by FaceCoefficient), then adds
// a border-constraint plane per incident border edge (weighted by
// PointCoefficient) so border vertices resist moving off the border.
func (p *Partition) computeVertexQuadrics() {
	for vi := range p.Mesh.Vertices {
		v := &p.Mesh.Vertices[vi]
		if !v.Valid {
			continue
		}
		v.Quadric = Quadric{}
		for fi := range v.NbrFaces {
			f := &p.Mesh.Faces[fi]
			if !f.Valid {
				continue
			}
			q := PlaneQuadric(f.Normal, v.Pos, p.Config.FaceCoefficient*f.Area)
			v.Quadric = v.Quadric.Add(q)
		}
		for nb := range v.NbrVertices {
			if !p.isBorderEdge(vi, nb) {
				continue
			}
			v.Quadric = v.Quadric.Add(p.borderConstraintQuadric(vi, nb))
		}
	}
}

// isBorderEdge reports whether edge (v1,v2) is border: either a
// mesh-boundary edge (one incident face) or an inter-cluster edge (two
// incident faces in different clusters).
func (p *Partition) isBorderEdge(v1, v2 int) bool {
	faces := p.Mesh.FacesOnEdge(v1, v2)
	if len(faces) != 2 {
		return true
	}
	return p.Mesh.Faces[faces[0]].ClusterID != p.Mesh.Faces[faces[1]].ClusterID
}

// borderConstraintQuadric builds the plane through edge (v1,v2)
// perpendicular to the average of its incident faces' normals, pinning
// the edge's endpoints against sliding off the border line. For a true
// mesh boundary edge (one incident face), that face's own normal stands
// in for the average.
func (p *Partition) borderConstraintQuadric(v1, v2 int) Quadric {
	faces := p.Mesh.FacesOnEdge(v1, v2)
	var avgNormal model3d.Coord3D
	for _, fi := range faces {
		avgNormal = avgNormal.Add(p.Mesh.Faces[fi].Normal)
	}
	if len(faces) == 0 {
		return Quadric{}
	}
	avgNormal = avgNormal.Scale(1 / float64(len(faces)))

	edgeDir := p.Mesh.Vertices[v2].Pos.Sub(p.Mesh.Vertices[v1].Pos)
	planeNormal := cross(edgeDir, avgNormal)
	if n := planeNormal.Norm(); n > 1e-12 {
		planeNormal = planeNormal.Scale(1 / n)
	}
	return PlaneQuadric(planeNormal, p.Mesh.Vertices[v1].Pos, p.Config.PointCoefficient)
}

// seedSimplifyHeap pushes one simplifyEdge per vertex-pair edge, inner
// and border alike,
// computing its contraction target and cost from the combined endpoint
// quadrics.
func (p *Partition) seedSimplifyHeap() {
	p.simplifyHeap = NewIndexedHeap[*simplifyEdge](nil)
	p.simplifyEdges = map[int64]*simplifyEdge{}
	for vi := range p.Mesh.Vertices {
		v := &p.Mesh.Vertices[vi]
		if !v.Valid {
			continue
		}
		for nb := range v.NbrVertices {
			if vi > nb {
				continue // create each unordered pair exactly once
			}
			p.insertSimplifyEdge(vi, nb)
		}
	}
}

// insertSimplifyEdge creates and pushes a simplifyEdge for (v1,v2),
// recording it in p.simplifyEdges so a later contraction touching either
// endpoint can find and kill it.
func (p *Partition) insertSimplifyEdge(v1, v2 int) *simplifyEdge {
	e := newSimplifyEdge(v1, v2, p.isBorderEdge(v1, v2))
	p.setContractionCost(e)
	p.simplifyEdges[edgeKey(v1, v2)] = e
	p.simplifyHeap.Push(e)
	return e
}

// killSimplifyEdge marks the recorded edge between v1 and v2 dead (so a
// stale heap entry is skipped if it is ever popped) and forgets it.
func (p *Partition) killSimplifyEdge(v1, v2 int) {
	key := edgeKey(v1, v2)
	if e, ok := p.simplifyEdges[key]; ok {
		e.kill()
		delete(p.simplifyEdges, key)
	}
}

// setContractionCost solves for edge e's optimal contraction point from
// its endpoints' combined quadric and sets e's heap key to the resulting
// QEM cost, falling back to the edge midpoint (and tallying a diagnostic)
// if the system is too ill-conditioned to solve.
func (p *Partition) setContractionCost(e *simplifyEdge) {
	q1, q2 := p.Mesh.Vertices[e.V1].Quadric, p.Mesh.Vertices[e.V2].Quadric
	sum := q1.Add(q2)
	point, ok := sum.Solve()
	if !ok {
		p.Diagnostics.SingularSolves++
		point = p.Mesh.Vertices[e.V1].Pos.Add(p.Mesh.Vertices[e.V2].Pos).Scale(0.5)
	}
	e.Target = point
	e.key = sum.Eval(point)
	e.live = true
}

// validContraction runs every pre-apply check for e.
func (p *Partition) validContraction(e *simplifyEdge) bool {
	v1, v2 := &p.Mesh.Vertices[e.V1], &p.Mesh.Vertices[e.V2]
	if !v1.Valid || !v2.Valid {
		return false
	}
	if e.Border && !p.isBorderEdge(e.V1, e.V2) {
		return false
	}

	faces := p.Mesh.FacesOnEdge(e.V1, e.V2)
	expectedCommon := len(faces)
	common := 0
	for nb := range v1.NbrVertices {
		if _, ok := v2.NbrVertices[nb]; ok {
			common++
		}
	}
	if common != expectedCommon {
		return false // non-manifold: contracting would pinch the mesh
	}

	for fi := range v1.NbrFaces {
		if !p.faceSurvivesFlipCheck(fi, e.V1, e.V2, e.Target) {
			return false
		}
	}
	for fi := range v2.NbrFaces {
		if _, already := v1.NbrFaces[fi]; already {
			continue
		}
		if !p.faceSurvivesFlipCheck(fi, e.V2, e.V1, e.Target) {
			return false
		}
	}

	if e.Border {
		stillBorder := false
		for nb := range v1.NbrVertices {
			if nb == e.V2 {
				continue
			}
			if p.isBorderEdge(e.V1, nb) {
				stillBorder = true
				break
			}
		}
		for nb := range v2.NbrVertices {
			if nb == e.V1 {
				continue
			}
			if p.isBorderEdge(e.V2, nb) {
				stillBorder = true
				break
			}
		}
		if !stillBorder {
			return false
		}
	}
	return true
}

// faceSurvivesFlipCheck reports whether face fi, after replacing
// vertex "from" with vertex "to" moved to newPos, keeps a normal that
// agrees with its original. A face that also contains "to" collapses
// (it is deleted by the contraction) and is reported as passing without
// a check; every other face is checked here.
func (p *Partition) faceSurvivesFlipCheck(fi, from, to int, newPos model3d.Coord3D) bool {
	f := &p.Mesh.Faces[fi]
	if !f.Valid {
		return true
	}
	// Faces incident to both endpoints collapse to a degenerate sliver
	// and are deleted by the contraction, not flip-checked.
	hasOther := false
	for _, vi := range f.Indices {
		if vi == to {
			hasOther = true
		}
	}
	if hasOther {
		return true
	}

	var tri [3]model3d.Coord3D
	for k, vi := range f.Indices {
		if vi == from {
			tri[k] = newPos
		} else {
			tri[k] = p.Mesh.Vertices[vi].Pos
		}
	}
	newNormal, area := triangleNormalArea(tri[0], tri[1], tri[2])
	if area == 0 {
		return false
	}
	return newNormal.Dot(f.Normal) > 0
}

// applyContraction moves e.V1 to e.Target, transfers e.V2's incidences to
// it, deletes the collapsing face(s), invalidates e.V2, refreshes the
// quadrics of every affected vertex, and kills and re-pushes every edge
// incident to an affected vertex with a freshly computed cost and
// target, mirroring how the merge heap retires superseded entries
// (killMergeEdge in merger.go) rather than leaving them in the heap to
// be popped with a stale key.
func (p *Partition) applyContraction(e *simplifyEdge) {
	v1, v2 := e.V1, e.V2
	p.killSimplifyEdge(v1, v2)

	collapsing := p.Mesh.FacesOnEdge(v1, v2)
	for _, fi := range collapsing {
		p.Mesh.Faces[fi].Valid = false
		f := &p.Mesh.Faces[fi]
		for _, vi := range f.Indices {
			if vi != v1 {
				delete(p.Mesh.Vertices[vi].NbrFaces, fi)
			}
		}
	}

	p.Mesh.Vertices[v1].Pos = e.Target

	for fi := range p.Mesh.Vertices[v2].NbrFaces {
		if !p.Mesh.Faces[fi].Valid {
			continue
		}
		f := &p.Mesh.Faces[fi]
		for k, vi := range f.Indices {
			if vi == v2 {
				f.Indices[k] = v1
			}
		}
		p.Mesh.Vertices[v1].NbrFaces[fi] = struct{}{}
		normal, area := triangleNormalArea(
			p.Mesh.Vertices[f.Indices[0]].Pos,
			p.Mesh.Vertices[f.Indices[1]].Pos,
			p.Mesh.Vertices[f.Indices[2]].Pos,
		)
		f.Normal, f.Area = normal, area
	}

	affected := map[int]struct{}{v1: {}}
	for nb := range p.Mesh.Vertices[v2].NbrVertices {
		if nb == v1 {
			continue
		}
		p.killSimplifyEdge(v2, nb)
		delete(p.Mesh.Vertices[nb].NbrVertices, v2)
		p.Mesh.Vertices[nb].NbrVertices[v1] = struct{}{}
		p.Mesh.Vertices[v1].NbrVertices[nb] = struct{}{}
		affected[nb] = struct{}{}
	}
	delete(p.Mesh.Vertices[v1].NbrVertices, v2)

	p.Mesh.Vertices[v2].Valid = false
	p.Mesh.Vertices[v2].NbrFaces = map[int]struct{}{}
	p.Mesh.Vertices[v2].NbrVertices = map[int]struct{}{}

	for vi := range affected {
		p.recomputeVertexQuadric(vi)
	}

	// Every edge touching an affected vertex has a stale cost/target from
	// before this contraction's quadric updates: kill and reseed each one.
	reseeded := map[int64]bool{}
	for _, vi := range sortedKeys(affected) {
		for nb := range p.Mesh.Vertices[vi].NbrVertices {
			key := edgeKey(vi, nb)
			if reseeded[key] {
				continue
			}
			reseeded[key] = true
			p.killSimplifyEdge(vi, nb)
			a, b := vi, nb
			if a > b {
				a, b = b, a
			}
			p.insertSimplifyEdge(a, b)
		}
	}
}

func (p *Partition) recomputeVertexQuadric(vi int) {
	v := &p.Mesh.Vertices[vi]
	if !v.Valid {
		return
	}
	v.Quadric = Quadric{}
	for fi := range v.NbrFaces {
		f := &p.Mesh.Faces[fi]
		if !f.Valid {
			continue
		}
		v.Quadric = v.Quadric.Add(PlaneQuadric(f.Normal, v.Pos, p.Config.FaceCoefficient*f.Area))
	}
	for nb := range v.NbrVertices {
		if p.isBorderEdge(vi, nb) {
			v.Quadric = v.Quadric.Add(p.borderConstraintQuadric(vi, nb))
		}
	}
}

func (p *Partition) validVertexCount() int {
	n := 0
	for i := range p.Mesh.Vertices {
		if p.Mesh.Vertices[i].Valid {
			n++
		}
	}
	return n
}

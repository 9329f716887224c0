package partition

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// RunPostProcessing runs the four-step cleanup pass over the already
// swap-converged partition: drop tiny clusters, merge coplanar
// neighbors, reattach islands, then re-index to a dense mesh.
func (p *Partition) RunPostProcessing() {
	p.removeTinyClusters()
	p.mergeCoplanarClusters()
	p.reattachIslandClusters()
	p.Reindex()
}

// removeTinyClusters reassigns every cluster whose area falls below
// Config.MinClusterArea to the neighbor that minimizes the resulting
// Δenergy.
func (p *Partition) removeTinyClusters() {
	if p.Config.MinClusterArea <= 0 {
		return
	}
	for _, c := range p.Clusters {
		if c == nil || c.Empty() || c.Area >= p.Config.MinClusterArea {
			continue
		}
		target, ok := p.bestAbsorberFor(c)
		if !ok {
			continue
		}
		p.absorbClusterInto(c.ID, target)
	}
}

// bestAbsorberFor returns the live neighbor of c whose absorption of c
// minimizes Δenergy.
func (p *Partition) bestAbsorberFor(c *Cluster) (int, bool) {
	best := -1
	bestDelta := math.Inf(1)
	for _, n := range sortedKeys(c.NbrClusters) {
		nc := p.Clusters[n]
		if nc == nil || nc.Empty() {
			continue
		}
		merged := nc.Cov.Add(c.Cov)
		delta := merged.Energy() - nc.Energy - c.Energy
		if delta < bestDelta {
			bestDelta = delta
			best = n
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// mergeCoplanarClusters merges adjacent cluster pairs whose best-fit
// planes nearly coincide: both the max and average perpendicular
// vertex-to-plane distance must fall below their thresholds, and the
// two plane normals must align within Config.CoplanarNormalCos.
func (p *Partition) mergeCoplanarClusters() {
	progress := true
	for progress {
		progress = false
		for _, c := range p.Clusters {
			if c == nil || c.Empty() {
				continue
			}
			for _, n := range sortedKeys(c.NbrClusters) {
				if n <= c.ID {
					continue
				}
				nc := p.Clusters[n]
				if nc == nil || nc.Empty() {
					continue
				}
				if !p.areCoplanar(c, nc) {
					continue
				}
				p.absorbClusterInto(nc.ID, c.ID)
				progress = true
				break
			}
		}
	}
}

// areCoplanar implements a two-sided distance test plus a
// normal-alignment test, both derived from the clusters' plane normals
// (the Covariance's smallest-eigenvalue eigenvector) and centroids.
func (p *Partition) areCoplanar(a, b *Cluster) bool {
	na, pa := clusterPlane(a)
	nb, pb := clusterPlane(b)
	if math.Abs(na.Dot(nb)) < p.Config.CoplanarNormalCos {
		return false
	}

	maxDist, avgDist, count := 0.0, 0.0, 0
	for _, fid := range sortedFaceIDs(b.Faces) {
		f := &p.Mesh.Faces[fid]
		for _, vi := range f.Indices {
			d := math.Abs(na.Dot(p.Mesh.Vertices[vi].Pos.Sub(pa)))
			maxDist = maxOf(maxDist, d)
			avgDist += d
			count++
		}
	}
	for _, fid := range sortedFaceIDs(a.Faces) {
		f := &p.Mesh.Faces[fid]
		for _, vi := range f.Indices {
			d := math.Abs(nb.Dot(p.Mesh.Vertices[vi].Pos.Sub(pb)))
			maxDist = maxOf(maxDist, d)
			avgDist += d
			count++
		}
	}
	if count == 0 {
		return true
	}
	avgDist /= float64(count)
	return maxDist <= p.Config.CoplanarMaxDistance && avgDist <= p.Config.CoplanarAvgDistance
}

// clusterPlane returns a unit normal approximating the cluster's best-fit
// plane (Covariance.Normal, the smallest-eigenvalue eigenvector) and its
// covariance centroid as a point on that plane.
func clusterPlane(c *Cluster) (normal, point model3d.Coord3D) {
	return c.Cov.Normal(), c.Cov.Center()
}

// reattachIslandClusters absorbs clusters whose face-adjacency graph
// connects to the rest of the mesh through only one or two cluster edges
// and whose area is small, into their dominant neighbor.
func (p *Partition) reattachIslandClusters() {
	for _, c := range p.Clusters {
		if c == nil || c.Empty() {
			continue
		}
		if len(c.NbrClusters) > 2 || c.Area >= p.Config.MinClusterArea {
			continue
		}
		target := p.mostAdjacentNeighborCluster(c.ID, sortedFaceIDs(c.Faces))
		if target == -1 {
			continue
		}
		p.absorbClusterInto(c.ID, target)
	}
}

// absorbClusterInto merges src's faces into dst and empties src, then
// rebuilds the touched clusters' covariance/energy/adjacency. Unlike
// mergeClusters (the merge-heap's absorption, which keeps the heap's
// edge bookkeeping consistent), this is used only by phases that run
// after the merge heap has been discarded, so it simply recomputes
// adjacency globally afterward.
func (p *Partition) absorbClusterInto(src, dst int) {
	if src == dst {
		return
	}
	cs, cd := p.Clusters[src], p.Clusters[dst]
	for fid := range cs.Faces {
		p.Mesh.Faces[fid].ClusterID = dst
		cd.Faces[fid] = struct{}{}
	}
	cs.Faces = map[int]struct{}{}
	cd.Cov = cd.Cov.Add(cs.Cov)
	cd.recomputeEnergy()
	cs.Cov = Covariance{}
	cs.recomputeEnergy()
	p.liveClusters--
	p.rebuildClusterAdjacency()
}

// Reindex builds a dense output mesh from the current valid
// vertices/faces, dropping invalid entries and any empty clusters. It
// returns the old-id -> new-id maps for vertices and faces, which
// callers (e.g. PLY export) need to translate any externally held
// references.
func (p *Partition) Reindex() (vertexMap, faceMap map[int]int) {
	vertexMap = make(map[int]int)
	faceMap = make(map[int]int)

	newVerts := make([]model3d.Coord3D, 0, len(p.Mesh.Vertices))
	for vi := range p.Mesh.Vertices {
		if !p.Mesh.Vertices[vi].Valid {
			continue
		}
		vertexMap[vi] = len(newVerts)
		newVerts = append(newVerts, p.Mesh.Vertices[vi].Pos)
	}

	newFaces := make([][3]int, 0, len(p.Mesh.Faces))
	newClusterIDs := make([]int, 0, len(p.Mesh.Faces))
	for fi := range p.Mesh.Faces {
		f := &p.Mesh.Faces[fi]
		if !f.Valid {
			continue
		}
		faceMap[fi] = len(newFaces)
		var tri [3]int
		for k, vi := range f.Indices {
			tri[k] = vertexMap[vi]
		}
		newFaces = append(newFaces, tri)
		newClusterIDs = append(newClusterIDs, f.ClusterID)
	}

	rebuilt, diag, err := NewMesh(newVerts, newFaces)
	if err != nil {
		// Reindexing a previously-validated mesh can only fail if a bug
		// introduced a dangling reference; this is an invariant
		// violation, not a user-facing error path: p.Mesh and p.Clusters
		// are left as they were and only the maps are returned.
		return vertexMap, faceMap
	}
	p.Diagnostics.add(*diag)
	for i := range rebuilt.Faces {
		rebuilt.Faces[i].ClusterID = newClusterIDs[i]
	}
	p.Mesh = rebuilt
	p.rebuildClustersFromFaceIDs(newClusterIDs)
	return vertexMap, faceMap
}

// rebuildClustersFromFaceIDs reconstructs p.Clusters after a Reindex, one
// cluster per distinct id appearing in ids (which is exactly the set of
// ClusterIDs a freshly rebuilt mesh's faces carry).
func (p *Partition) rebuildClustersFromFaceIDs(ids []int) {
	maxID := -1
	for _, id := range ids {
		if id > maxID {
			maxID = id
		}
	}
	p.Clusters = make([]*Cluster, maxID+1)
	p.liveClusters = 0
	for fi, id := range ids {
		c := p.Clusters[id]
		if c == nil {
			c = newCluster(id)
			p.Clusters[id] = c
			p.liveClusters++
		}
		c.Faces[fi] = struct{}{}
		c.Cov = c.Cov.Add(p.Mesh.Faces[fi].Cov)
	}
	for _, c := range p.Clusters {
		if c != nil {
			c.recomputeEnergy()
		}
	}
	p.rebuildClusterAdjacency()
}

func sortedFaceIDs(m map[int]struct{}) []int { return sortedKeys(m) }

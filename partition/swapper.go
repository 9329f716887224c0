package partition

import (
	"math"
	"sort"

	"github.com/unixpickle/essentials"
)

// RunSwapping runs boundary-face migration to convergence. Each pass's
// per-face Δenergy search is fanned out across
// Config.SwapConcurrency goroutines via essentials.StatefulConcurrentMap,
// exactly as the teacher's treed/mesh_surface.go parallelizes its
// per-axis split search; the proposals it produces are still applied
// sequentially and deterministically.
func (p *Partition) RunSwapping() {
	p.lastSwapTouched = nil
	for iter := 0; iter < p.Config.SwapIterationCap; iter++ {
		touched := p.swapOnce()
		if len(touched) == 0 {
			p.Diagnostics.NoProgressPasses++
			return
		}
		p.processIslands(touched)
		if p.lastSwapTouched != nil && setEqual(touched, p.lastSwapTouched) {
			return
		}
		p.lastSwapTouched = touched
	}
}

type swapCandidate struct {
	faceID, from, to int
	delta            float64
}

// swapOnce runs one full iteration: search for a Δ<0 destination for
// every boundary face, apply the improving ones (sorted per-cluster by Δ
// ascending, skipping faces that already moved this pass), and returns
// the set of clusters touched.
func (p *Partition) swapOnce() map[int]struct{} {
	var boundary []int
	for fi := range p.Mesh.Faces {
		if p.Mesh.Faces[fi].Valid && p.isBoundaryFace(fi) {
			boundary = append(boundary, fi)
		}
	}

	results := make([]*swapCandidate, len(boundary))
	essentials.StatefulConcurrentMap(p.Config.SwapConcurrency, len(boundary), func() func(int) {
		return func(i int) {
			fi := boundary[i]
			from, to, delta, ok := p.bestSwapFor(fi)
			if ok {
				results[i] = &swapCandidate{faceID: fi, from: from, to: to, delta: delta}
			}
		}
	})

	for _, c := range p.Clusters {
		if c != nil {
			c.PendingSwaps = c.PendingSwaps[:0]
		}
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		c := p.Clusters[r.from]
		c.PendingSwaps = append(c.PendingSwaps, SwapProposal{FaceID: r.faceID, From: r.from, To: r.to, Delta: r.delta})
	}

	touched := map[int]struct{}{}
	for _, c := range p.Clusters {
		if c == nil || len(c.PendingSwaps) == 0 {
			continue
		}
		sort.SliceStable(c.PendingSwaps, func(i, j int) bool {
			a, b := c.PendingSwaps[i], c.PendingSwaps[j]
			if a.Delta != b.Delta {
				return a.Delta < b.Delta
			}
			return a.FaceID < b.FaceID
		})
		for _, sp := range c.PendingSwaps {
			f := &p.Mesh.Faces[sp.FaceID]
			if f.ClusterID != sp.From {
				continue // face already moved earlier this pass
			}
			p.applySwap(sp)
			touched[sp.From] = struct{}{}
			touched[sp.To] = struct{}{}
		}
		c.PendingSwaps = nil
	}

	if len(touched) > 0 {
		p.rebuildClusterAdjacency()
	}
	return touched
}

// isBoundaryFace reports whether f has a valid neighbor in a different
// cluster.
func (p *Partition) isBoundaryFace(fi int) bool {
	f := &p.Mesh.Faces[fi]
	for nf := range f.NbrFaces {
		nface := &p.Mesh.Faces[nf]
		if nface.Valid && nface.ClusterID != f.ClusterID {
			return true
		}
	}
	return false
}

// bestSwapFor computes, for boundary face fi, the neighbor cluster whose
// adoption of fi minimizes the combined Δenergy. ok is false if no
// neighbor cluster yields Δ < 0.
func (p *Partition) bestSwapFor(fi int) (from, to int, delta float64, ok bool) {
	f := &p.Mesh.Faces[fi]
	from = f.ClusterID
	fromCluster := p.Clusters[from]

	fromWithout := fromCluster.Cov.Sub(f.Cov)
	deltaFromPart := fromWithout.Energy() - fromCluster.Energy

	bestDelta := math.Inf(1)
	bestTo := -1
	seen := map[int]struct{}{}
	for nf := range f.NbrFaces {
		nface := &p.Mesh.Faces[nf]
		if !nface.Valid || nface.ClusterID == from {
			continue
		}
		to := nface.ClusterID
		if _, dup := seen[to]; dup {
			continue
		}
		seen[to] = struct{}{}

		toCluster := p.Clusters[to]
		toWith := toCluster.Cov.Add(f.Cov)
		deltaToPart := toWith.Energy() - toCluster.Energy

		total := deltaFromPart + deltaToPart
		if total < bestDelta {
			bestDelta = total
			bestTo = to
		}
	}

	if bestTo == -1 || bestDelta >= 0 {
		return 0, 0, 0, false
	}
	return from, bestTo, bestDelta, true
}

// applySwap moves a single face from one cluster to another, updating
// both clusters' covariance, energy and face membership. Neighbor-cluster
// set maintenance is deferred to a single rebuildClusterAdjacency call
// after the whole pass, rather than being kept incrementally consistent
// per swap.
func (p *Partition) applySwap(sp SwapProposal) {
	f := &p.Mesh.Faces[sp.FaceID]
	from, to := p.Clusters[sp.From], p.Clusters[sp.To]

	delete(from.Faces, sp.FaceID)
	from.Cov = from.Cov.Sub(f.Cov)
	from.recomputeEnergy()

	to.Faces[sp.FaceID] = struct{}{}
	to.Cov = to.Cov.Add(f.Cov)
	to.recomputeEnergy()

	f.ClusterID = sp.To

	if from.Empty() {
		p.liveClusters--
	}
}

// processIslands runs after each swap pass: every cluster touched by a
// swap may have become disconnected, so its face-adjacency graph
// (restricted to same-cluster faces) is checked for multiple connected
// components. All but the largest component are peeled off into a new
// cluster (if large enough) or folded into the most-adjacent neighbor
// cluster.
func (p *Partition) processIslands(touched map[int]struct{}) {
	changed := false
	for _, cid := range sortedKeys(touched) {
		c := p.Clusters[cid]
		if c == nil || c.Empty() {
			continue
		}
		components := p.connectedComponents(c)
		if len(components) <= 1 {
			continue
		}
		largest := 0
		for i, comp := range components {
			if len(comp) > len(components[largest]) {
				largest = i
			}
		}
		for i, comp := range components {
			if i == largest {
				continue
			}
			area := 0.0
			for _, fid := range comp {
				area += p.Mesh.Faces[fid].Area
			}
			if area >= p.Config.IslandAreaThreshold {
				p.splitComponentToNewCluster(comp)
			} else {
				target := p.mostAdjacentNeighborCluster(cid, comp)
				if target != -1 {
					p.mergeComponentIntoCluster(cid, comp, target)
				}
			}
			changed = true
		}
	}
	if changed {
		p.rebuildClusterAdjacency()
	}
}

// connectedComponents partitions c's face set into maximal groups
// connected through same-cluster NbrFaces edges, via plain BFS.
func (p *Partition) connectedComponents(c *Cluster) [][]int {
	visited := make(map[int]bool, len(c.Faces))
	var components [][]int
	for _, start := range sortedKeys(c.Faces) {
		if visited[start] {
			continue
		}
		queue := []int{start}
		visited[start] = true
		var comp []int
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			comp = append(comp, fi)
			f := &p.Mesh.Faces[fi]
			for nf := range f.NbrFaces {
				if visited[nf] {
					continue
				}
				nface := &p.Mesh.Faces[nf]
				if !nface.Valid || nface.ClusterID != c.ID {
					continue
				}
				visited[nf] = true
				queue = append(queue, nf)
			}
		}
		components = append(components, comp)
	}
	return components
}

// mostAdjacentNeighborCluster returns the cluster id (other than exclude)
// with the most faces adjacent to comp, tie-broken by lowest id. Returns
// -1 if comp has no outside neighbors at all (e.g. it is the whole mesh).
func (p *Partition) mostAdjacentNeighborCluster(exclude int, comp []int) int {
	counts := map[int]int{}
	inComp := make(map[int]bool, len(comp))
	for _, fid := range comp {
		inComp[fid] = true
	}
	for _, fid := range comp {
		f := &p.Mesh.Faces[fid]
		for nf := range f.NbrFaces {
			if inComp[nf] {
				continue
			}
			nface := &p.Mesh.Faces[nf]
			if !nface.Valid || nface.ClusterID == exclude {
				continue
			}
			counts[nface.ClusterID]++
		}
	}
	best, bestCount := -1, -1
	for _, cid := range sortedKeys(setFromCounts(counts)) {
		if counts[cid] > bestCount {
			best, bestCount = cid, counts[cid]
		}
	}
	return best
}

func setFromCounts(counts map[int]int) map[int]struct{} {
	out := make(map[int]struct{}, len(counts))
	for k := range counts {
		out[k] = struct{}{}
	}
	return out
}

// splitComponentToNewCluster gives comp a brand new cluster id, appended
// to p.Clusters, and recomputes both the new and the vacated cluster's
// covariance/energy.
func (p *Partition) splitComponentToNewCluster(comp []int) {
	if len(comp) == 0 {
		return
	}
	oldID := p.Mesh.Faces[comp[0]].ClusterID
	old := p.Clusters[oldID]

	newID := len(p.Clusters)
	nc := newCluster(newID)
	for _, fid := range comp {
		delete(old.Faces, fid)
		old.Cov = old.Cov.Sub(p.Mesh.Faces[fid].Cov)
		p.Mesh.Faces[fid].ClusterID = newID
		nc.Faces[fid] = struct{}{}
		nc.Cov = nc.Cov.Add(p.Mesh.Faces[fid].Cov)
	}
	old.recomputeEnergy()
	nc.recomputeEnergy()
	p.Clusters = append(p.Clusters, nc)
	p.liveClusters++
}

// mergeComponentIntoCluster reassigns comp's faces from their current
// cluster into target.
func (p *Partition) mergeComponentIntoCluster(srcID int, comp []int, target int) {
	if len(comp) == 0 || srcID == target {
		return
	}
	src, dst := p.Clusters[srcID], p.Clusters[target]
	for _, fid := range comp {
		delete(src.Faces, fid)
		src.Cov = src.Cov.Sub(p.Mesh.Faces[fid].Cov)
		p.Mesh.Faces[fid].ClusterID = target
		dst.Faces[fid] = struct{}{}
		dst.Cov = dst.Cov.Add(p.Mesh.Faces[fid].Cov)
	}
	src.recomputeEnergy()
	dst.recomputeEnergy()
	if src.Empty() {
		p.liveClusters--
	}
}

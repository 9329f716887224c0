package partition

// InitMerging builds the cluster-pair merge heap from the current
// (one-per-face) cluster adjacency. It must run after the Partition's
// clusters and their NbrClusters sets are populated (New already does
// this).
func (p *Partition) InitMerging() {
	p.mergeHeap = NewIndexedHeap[*mergeEdge](mergeEdgeLess)
	p.clusterEdges = make(map[int64]*mergeEdge)
	for _, c := range p.Clusters {
		if c == nil || c.Empty() {
			continue
		}
		for n := range c.NbrClusters {
			if n <= c.ID {
				continue // create each unordered pair exactly once
			}
			p.insertMergeEdge(c.ID, n)
		}
	}
}

func (p *Partition) mergeDelta(c1, c2 int) float64 {
	a, b := p.Clusters[c1], p.Clusters[c2]
	merged := a.Cov.Add(b.Cov)
	return merged.Energy() - a.Energy - b.Energy
}

func (p *Partition) insertMergeEdge(c1, c2 int) *mergeEdge {
	key := edgeKey(c1, c2)
	if e, ok := p.clusterEdges[key]; ok {
		return e
	}
	e := newMergeEdge(c1, c2, p.mergeDelta(c1, c2))
	p.clusterEdges[key] = e
	p.mergeHeap.Push(e)
	return e
}

func (p *Partition) killMergeEdge(c1, c2 int) {
	key := edgeKey(c1, c2)
	if e, ok := p.clusterEdges[key]; ok {
		e.kill()
		delete(p.clusterEdges, key)
	}
}

// mergeOnce pops the minimum-key live edge, skipping entries whose
// endpoints are no longer both alive and adjacent, and merges the pair
// it finds. It reports whether a merge was applied; false means the heap
// is exhausted.
func (p *Partition) mergeOnce() bool {
	for {
		e, ok := p.mergeHeap.Pop()
		if !ok {
			return false
		}
		c1, c2 := e.C1, e.C2
		ca, cb := p.Clusters[c1], p.Clusters[c2]
		if ca == nil || cb == nil || ca.Empty() || cb.Empty() {
			continue
		}
		if _, adjacent := ca.NbrClusters[c2]; !adjacent {
			continue
		}
		delete(p.clusterEdges, edgeKey(c1, c2))
		p.mergeClusters(c1, c2)
		return true
	}
}

// mergeClusters absorbs c2 into c1: c1 keeps its id, c2 becomes empty.
// c1 is assumed < c2, matching the canonical pair order every mergeEdge
// is created with.
func (p *Partition) mergeClusters(c1, c2 int) {
	ca, cb := p.Clusters[c1], p.Clusters[c2]

	touched := make(map[int]struct{}, len(ca.NbrClusters)+len(cb.NbrClusters))
	for n := range ca.NbrClusters {
		if n != c2 {
			touched[n] = struct{}{}
		}
	}
	for n := range cb.NbrClusters {
		if n != c1 {
			touched[n] = struct{}{}
		}
	}

	for fid := range cb.Faces {
		p.Mesh.Faces[fid].ClusterID = c1
		ca.Faces[fid] = struct{}{}
	}
	cb.Faces = map[int]struct{}{}

	ca.Cov = ca.Cov.Add(cb.Cov)
	ca.recomputeEnergy()

	for n := range touched {
		p.killMergeEdge(c1, n)
		p.killMergeEdge(c2, n)
		nc := p.Clusters[n]
		delete(nc.NbrClusters, c2)
		nc.NbrClusters[c1] = struct{}{}
	}

	ca.NbrClusters = touched
	cb.NbrClusters = map[int]struct{}{}
	p.liveClusters--

	for n := range touched {
		if nc := p.Clusters[n]; nc != nil && !nc.Empty() {
			p.insertMergeEdge(c1, n)
		}
	}
}

// RunMerging repeatedly applies the lowest-cost live merge until the live
// cluster count reaches target or the heap is exhausted. Small drift
// below target-overshoot protection is not attempted here: hitting
// exactly target is out of scope.
//
// The heap is never filtered by key sign: if every remaining edge has a
// positive Δenergy, the lowest one is still applied as long as the live
// count has not yet reached target.
func (p *Partition) RunMerging(target int) {
	for p.liveClusters > target {
		if !p.mergeOnce() {
			return
		}
	}
}

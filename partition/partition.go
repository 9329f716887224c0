package partition

import "math"

// Config collects every tunable of the partitioning pipeline. There is no
// config-file layer (no YAML/env binding): this mirrors the teacher,
// which takes every tunable as a flag or a struct field, never through a
// configuration framework.
type Config struct {
	// TargetClusterNum is where merging stops.
	TargetClusterNum int
	// RunPostProcessing enables the small-cluster/coplanar/island cleanup pass.
	RunPostProcessing bool
	// RunMeshSimplification enables the QEM edge-contraction pass.
	RunMeshSimplification bool
	// MinClusterArea thresholds small-cluster removal and top-K export.
	MinClusterArea float64
	// CoplanarMaxDistance, CoplanarAvgDistance, CoplanarNormalCos gate
	// the coplanar-merge step of post-processing.
	CoplanarMaxDistance float64
	CoplanarAvgDistance float64
	CoplanarNormalCos   float64
	// FaceCoefficient, PointCoefficient weight the triangle-derived vs
	// point-derived QEM contributions, default 1.0 each.
	FaceCoefficient  float64
	PointCoefficient float64
	// SimplifyCostLimit is the maximum QEM cost a contraction may have and
	// still be applied.
	SimplifyCostLimit float64
	// SimplifyTargetVertexNum, if > 0, additionally stops simplification
	// once the valid vertex count reaches this target.
	SimplifyTargetVertexNum int
	// SwapIterationCap bounds the boundary-swap phase with a hard
	// iteration cap, regardless of whether it has converged.
	SwapIterationCap int
	// IslandAreaThreshold decides, for a disconnected component found
	// within a cluster, whether it becomes its own cluster (area >=
	// threshold) or is folded into its most-adjacent neighbor.
	IslandAreaThreshold float64
	// SwapConcurrency bounds how many goroutines the per-face Δenergy
	// sweep may use; 0 means GOMAXPROCS.
	SwapConcurrency int
}

// DefaultConfig returns reasonable zero-value-safe defaults.
func DefaultConfig() Config {
	return Config{
		TargetClusterNum:        1,
		RunPostProcessing:       true,
		RunMeshSimplification:   true,
		MinClusterArea:          0,
		CoplanarMaxDistance:     0.01,
		CoplanarAvgDistance:     0.005,
		CoplanarNormalCos:       math.Cos(10 * math.Pi / 180),
		FaceCoefficient:         1.0,
		PointCoefficient:        1.0,
		SimplifyCostLimit:       math.Inf(1),
		SwapIterationCap:        300,
		IslandAreaThreshold:     0,
		SwapConcurrency:         0,
	}
}

// Partition is the top-level object threaded through every phase
// function, an explicit argument rather than ambient package state. It
// owns the mesh, the cluster registry, and (only while the relevant
// phase is running) the merge/simplify heaps.
type Partition struct {
	Mesh        *Mesh
	Clusters    []*Cluster
	Config      Config
	Diagnostics Diagnostics

	liveClusters int

	mergeHeap    *IndexedHeap[*mergeEdge]
	clusterEdges map[int64]*mergeEdge

	simplifyHeap  *IndexedHeap[*simplifyEdge]
	simplifyEdges map[int64]*simplifyEdge

	lastSwapTouched map[int]struct{}
}

// New builds a Partition over an already-validated Mesh, with one cluster
// per valid face.
func New(mesh *Mesh, cfg Config) *Partition {
	p := &Partition{Mesh: mesh, Config: cfg}
	p.initClustersOnePerFace()
	return p
}

func (p *Partition) initClustersOnePerFace() {
	p.Clusters = make([]*Cluster, len(p.Mesh.Faces))
	p.liveClusters = 0
	for i := range p.Mesh.Faces {
		f := &p.Mesh.Faces[i]
		if !f.Valid {
			continue
		}
		c := newCluster(i)
		c.Faces[i] = struct{}{}
		c.Cov = f.Cov
		c.recomputeEnergy()
		f.ClusterID = i
		p.Clusters[i] = c
		p.liveClusters++
	}
	p.rebuildClusterAdjacency()
}

// rebuildClusterAdjacency derives every cluster's NbrClusters set purely
// from the current per-face ClusterID assignment and the mesh's face dual
// graph. It is used both at initialization and after loading an
// externally supplied cluster file.
func (p *Partition) rebuildClusterAdjacency() {
	for _, c := range p.Clusters {
		if c == nil {
			continue
		}
		c.NbrClusters = map[int]struct{}{}
	}
	for fi := range p.Mesh.Faces {
		f := &p.Mesh.Faces[fi]
		if !f.Valid {
			continue
		}
		c := p.Clusters[f.ClusterID]
		for nf := range f.NbrFaces {
			nface := &p.Mesh.Faces[nf]
			if !nface.Valid || nface.ClusterID == f.ClusterID {
				continue
			}
			c.NbrClusters[nface.ClusterID] = struct{}{}
		}
	}
}

// LoadClusterAssignment restores a partition from an externally supplied
// per-face cluster id assignment: it sets face.ClusterID from assignment,
// then rebuilds cluster covariances and adjacency from the mesh.
func (p *Partition) LoadClusterAssignment(clusterCount int, assignment []int) error {
	if len(assignment) != len(p.Mesh.Faces) {
		return malformedInput("cluster assignment has %d entries, mesh has %d faces", len(assignment), len(p.Mesh.Faces))
	}
	p.Clusters = make([]*Cluster, clusterCount)
	p.liveClusters = 0
	for i := range p.Mesh.Faces {
		f := &p.Mesh.Faces[i]
		if !f.Valid {
			continue
		}
		cid := assignment[i]
		if cid < 0 || cid >= clusterCount {
			return malformedInput("face %d has out-of-range cluster id %d (cluster_count=%d)", i, cid, clusterCount)
		}
		f.ClusterID = cid
		c := p.Clusters[cid]
		if c == nil {
			c = newCluster(cid)
			p.Clusters[cid] = c
		}
		c.Faces[i] = struct{}{}
		c.Cov = c.Cov.Add(f.Cov)
	}
	for cid, c := range p.Clusters {
		if c == nil {
			p.Clusters[cid] = newCluster(cid)
			continue
		}
		c.recomputeEnergy()
		p.liveClusters++
	}
	p.rebuildClusterAdjacency()
	return nil
}

// CurrentClusterNum returns the number of non-empty clusters.
func (p *Partition) CurrentClusterNum() int {
	n := 0
	for _, c := range p.Clusters {
		if c != nil && !c.Empty() {
			n++
		}
	}
	return n
}

// TotalEnergy sums Energy across every non-empty cluster.
func (p *Partition) TotalEnergy() float64 {
	total := 0.0
	for _, c := range p.Clusters {
		if c != nil && !c.Empty() {
			total += c.Energy
		}
	}
	return total
}

// NonEmptyClusters returns the live clusters, sorted by id for
// deterministic iteration.
func (p *Partition) NonEmptyClusters() []*Cluster {
	out := make([]*Cluster, 0, p.liveClusters)
	for _, c := range p.Clusters {
		if c != nil && !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}

// RunPipeline runs the full control flow: merge until the target cluster
// count, swap to convergence, optionally post-process, and optionally
// simplify. It double-checks invariants (a direct port of the original's
// doubleCheckClusters) after merging/swapping and after post-processing,
// matching the original node's call sites.
func (p *Partition) RunPipeline() error {
	p.InitMerging()
	p.RunMerging(p.Config.TargetClusterNum)
	if err := p.DoubleCheck(); err != nil {
		return err
	}

	p.RunSwapping()
	if err := p.DoubleCheck(); err != nil {
		return err
	}

	if p.Config.RunPostProcessing {
		p.RunPostProcessing()
		if err := p.DoubleCheck(); err != nil {
			return err
		}
	}

	if p.Config.RunMeshSimplification {
		p.RunSimplification()
	}
	return nil
}

// DoubleCheck re-derives, from the current mesh/cluster state, that every
// valid face belongs to exactly one non-empty cluster, that each
// cluster's covariance equals the sum of its faces', and that cluster
// adjacency is symmetric and names only non-empty clusters, and returns
// a KindInvariantViolation error if any of these fail. Face and vertex
// adjacency are not checked. This is a direct port of the original's doubleCheckClusters,
// reframed as a returned error instead of an abort/assert.
func (p *Partition) DoubleCheck() error {
	covered := make(map[int]struct{})
	for _, c := range p.Clusters {
		if c == nil || c.Empty() {
			continue
		}
		var sumCov Covariance
		for fid := range c.Faces {
			if fid < 0 || fid >= len(p.Mesh.Faces) {
				return invariantViolation("cluster %d references out-of-range face %d", c.ID, fid)
			}
			f := &p.Mesh.Faces[fid]
			if !f.Valid {
				return invariantViolation("cluster %d references invalid face %d", c.ID, fid)
			}
			if f.ClusterID != c.ID {
				return invariantViolation("face %d claims cluster %d but cluster %d lists it", fid, f.ClusterID, c.ID)
			}
			if _, dup := covered[fid]; dup {
				return invariantViolation("face %d belongs to more than one cluster", fid)
			}
			covered[fid] = struct{}{}
			sumCov = sumCov.Add(f.Cov)
		}
		if !covarianceClose(sumCov, c.Cov) {
			return invariantViolation("cluster %d covariance does not match sum of its faces", c.ID)
		}
		for n := range c.NbrClusters {
			nc := p.Clusters[n]
			if nc == nil || nc.Empty() {
				return invariantViolation("cluster %d lists empty/nil neighbor %d", c.ID, n)
			}
			if _, ok := nc.NbrClusters[c.ID]; !ok {
				return invariantViolation("cluster adjacency not symmetric between %d and %d", c.ID, n)
			}
		}
	}
	for fi := range p.Mesh.Faces {
		f := &p.Mesh.Faces[fi]
		if !f.Valid {
			continue
		}
		if _, ok := covered[fi]; !ok {
			return invariantViolation("valid face %d belongs to no cluster", fi)
		}
	}
	return nil
}

func covarianceClose(a, b Covariance) bool {
	const eps = 1e-6
	if a.FaceCount() != b.FaceCount() {
		return false
	}
	if math.Abs(a.Area()-b.Area()) > eps*(1+math.Abs(b.Area())) {
		return false
	}
	ac, bc := a.sum, b.sum
	if ac.Dist(bc) > eps*(1+bc.Norm()) {
		return false
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a.sumOuter[i][j]-b.sumOuter[i][j]) > eps*(1+math.Abs(b.sumOuter[i][j])) {
				return false
			}
		}
	}
	return true
}

package partition

import "sort"

// SwapProposal is a pending face migration proposed during the boundary
// swap phase. Delta is always <= 0: a cluster only proposes swaps that
// would lower its own energy net of the recipient's.
type SwapProposal struct {
	FaceID int
	From   int
	To     int
	Delta  float64
}

// Cluster is a set of faces approximated by a single plane. Clusters
// are created one-per-face, absorb each other during merging
// (the absorber keeps its id, the absorbed becomes empty), and are never
// resurrected once empty.
type Cluster struct {
	ID          int
	OriginalID  int
	Faces       map[int]struct{}
	NbrClusters map[int]struct{}
	Cov         Covariance
	Energy      float64
	Area        float64

	PendingSwaps []SwapProposal
	visited      bool
}

func newCluster(id int) *Cluster {
	return &Cluster{
		ID:          id,
		OriginalID:  id,
		Faces:       map[int]struct{}{},
		NbrClusters: map[int]struct{}{},
	}
}

// Empty reports whether the cluster currently owns no faces. Dropped
// clusters have an empty face set but are never removed from the
// backing slice, exactly like vertices/faces.
func (c *Cluster) Empty() bool { return len(c.Faces) == 0 }

// recomputeEnergy refreshes the cached Energy/Area from the current Cov:
// a cluster's energy is always derived from its covariance, never set
// independently.
func (c *Cluster) recomputeEnergy() {
	c.Energy = c.Cov.Energy()
	c.Area = c.Cov.Area()
}

// SortClustersByArea and SortClustersByFaceCount are the two candidate
// orderings the original source exposed as `sortClusters(bool byArea)`.
// Both are kept; callers pick the one that fits their phase (cmd/cluster_info
// lists clusters largest area first; nothing in this port needs the
// face-count ordering, but it is kept available for parity with the
// original API surface).
func SortClustersByArea(clusters []*Cluster) {
	sortClustersBy(clusters, func(a, b *Cluster) bool { return a.Area > b.Area })
}

func SortClustersByFaceCount(clusters []*Cluster) {
	sortClustersBy(clusters, func(a, b *Cluster) bool { return len(a.Faces) > len(b.Faces) })
}

// sortClustersBy breaks ties by id, so that the ordering is fully
// deterministic across runs regardless of the input slice's original
// order.
func sortClustersBy(clusters []*Cluster, less func(a, b *Cluster) bool) {
	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID < b.ID
	})
}

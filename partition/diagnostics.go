package partition

// Diagnostics tallies recoverable geometric events encountered while
// building or optimizing a partition: these recoveries are local and
// silent, counted here rather than logged. Callers decide whether and
// how to surface these counts.
type Diagnostics struct {
	// DegenerateFaces counts zero-area or coincident-vertex faces that
	// were skipped rather than causing a fatal error.
	DegenerateFaces int
	// SingularSolves counts QEM 3x3 systems that were too ill-conditioned
	// to solve directly, falling back to the edge midpoint.
	SingularSolves int
	// NoProgressPasses counts swap passes that produced zero accepted
	// swaps before convergence was declared.
	NoProgressPasses int
}

func (d *Diagnostics) add(o Diagnostics) {
	d.DegenerateFaces += o.DegenerateFaces
	d.SingularSolves += o.SingularSolves
	d.NoProgressPasses += o.NoProgressPasses
}

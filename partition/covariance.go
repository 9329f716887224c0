package partition

import (
	"gonum.org/v1/gonum/mat"

	"github.com/unixpickle/model3d/model3d"
)

// Covariance is a running second-moment accumulator over a weighted set of
// points. It stores raw sums, Σx and Σxxᵀ, rather than centered moments,
// because raw sums make Add/Sub exact field-wise inverses: merging two
// clusters and then un-merging one must reproduce the original accumulator
// bit-for-bit up to floating point, which a centered representation cannot
// guarantee once points have been removed from a recentered basis.
//
// Energy is the L2 best-plane fitting error: the smallest eigenvalue of the centered second-moment
// matrix, scaled by the number of faces the accumulator has seen. A
// single face always has zero energy, because its three vertices span at
// most a 2-D affine subspace and the centered covariance of three
// coplanar points is rank-deficient by construction.
type Covariance struct {
	sum      model3d.Coord3D
	sumOuter [3][3]float64
	numPts   int
	faces    int
	area     float64
}

// NewFaceCovariance builds the covariance contribution of a single
// triangle: its three vertices, each weighted equally.
func NewFaceCovariance(v0, v1, v2 model3d.Coord3D, area float64) Covariance {
	var c Covariance
	for _, v := range [3]model3d.Coord3D{v0, v1, v2} {
		c.addPoint(v)
	}
	c.faces = 1
	c.area = area
	return c
}

func (c *Covariance) addPoint(p model3d.Coord3D) {
	c.sum = c.sum.Add(p)
	arr := [3]float64{p.X, p.Y, p.Z}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c.sumOuter[i][j] += arr[i] * arr[j]
		}
	}
	c.numPts++
}

// Add returns the accumulator for the union of c and o's point sets.
func (c Covariance) Add(o Covariance) Covariance {
	var r Covariance
	r.sum = c.sum.Add(o.sum)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.sumOuter[i][j] = c.sumOuter[i][j] + o.sumOuter[i][j]
		}
	}
	r.numPts = c.numPts + o.numPts
	r.faces = c.faces + o.faces
	r.area = c.area + o.area
	return r
}

// Sub returns the accumulator for c's point set with o's removed. o must
// have been produced by (or summed into) c; this is the exact inverse of
// Add, up to floating point.
func (c Covariance) Sub(o Covariance) Covariance {
	var r Covariance
	r.sum = c.sum.Sub(o.sum)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.sumOuter[i][j] = c.sumOuter[i][j] - o.sumOuter[i][j]
		}
	}
	r.numPts = c.numPts - o.numPts
	r.faces = c.faces - o.faces
	r.area = c.area - o.area
	return r
}

// FaceCount is the number of faces whose points have been accumulated.
func (c Covariance) FaceCount() int { return c.faces }

// Area is the total accumulated face area.
func (c Covariance) Area() float64 { return c.area }

// Center is the centroid of the accumulated points.
func (c Covariance) Center() model3d.Coord3D {
	if c.numPts == 0 {
		return model3d.Origin
	}
	return c.sum.Scale(1 / float64(c.numPts))
}

// Normal returns the unit eigenvector of the smallest eigenvalue of the
// centered second-moment matrix: the best-fit plane's normal direction.
// A degenerate accumulator (fewer than 2 faces, or all points identical)
// returns the +Z axis as an arbitrary but deterministic default.
func (c Covariance) Normal() model3d.Coord3D {
	if c.faces <= 1 || c.numPts == 0 {
		return model3d.Z(1)
	}
	n := float64(c.numPts)
	mean := c.sum.Scale(1 / n)
	meanArr := [3]float64{mean.X, mean.Y, mean.Z}

	data := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data[i*3+j] = c.sumOuter[i][j]/n - meanArr[i]*meanArr[j]
		}
	}
	sym := mat.NewSymDense(3, data)
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return model3d.Z(1)
	}
	values := eig.Values(nil)
	minIdx := 0
	for i, v := range values {
		if v < values[minIdx] {
			minIdx = i
		}
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	v := model3d.XYZ(vecs.At(0, minIdx), vecs.At(1, minIdx), vecs.At(2, minIdx))
	return v.Normalize()
}

// Energy is the smallest eigenvalue of the centered second-moment matrix,
// scaled by FaceCount. A zero or single-face accumulator always reports
// zero energy.
func (c Covariance) Energy() float64 {
	if c.faces <= 1 || c.numPts == 0 {
		return 0
	}
	n := float64(c.numPts)
	mean := c.sum.Scale(1 / n)
	meanArr := [3]float64{mean.X, mean.Y, mean.Z}

	data := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			centered := c.sumOuter[i][j]/n - meanArr[i]*meanArr[j]
			data[i*3+j] = centered
		}
	}
	sym := mat.NewSymDense(3, data)
	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		// Degenerate matrix (e.g. all points identical): treat as
		// perfectly planar rather than failing the whole pipeline.
		return 0
	}
	values := eig.Values(nil)
	lambdaMin := values[0]
	for _, v := range values[1:] {
		if v < lambdaMin {
			lambdaMin = v
		}
	}
	if lambdaMin < 0 {
		// Clamp FP noise around zero for near-planar point sets.
		lambdaMin = 0
	}
	return lambdaMin * float64(c.faces)
}

package partition

import (
	"gonum.org/v1/gonum/mat"

	"github.com/unixpickle/model3d/model3d"
)

// Quadric is a 4x4 symmetric matrix Q such that, for a homogeneous point
// p = (x, y, z, 1), p^T Q p equals the sum of squared distances from p to
// a collection of weighted planes (the Garland-Heckbert QEM). Only the
// upper triangle is stored, in row-major order:
//
//	q00 q01 q02 q03
//	    q11 q12 q13
//	        q22 q23
//	            q33
type Quadric struct {
	q00, q01, q02, q03 float64
	q11, q12, q13      float64
	q22, q23           float64
	q33                float64
}

// PlaneQuadric builds the quadric for a single plane through point with
// unit normal normal, scaled by weight.
func PlaneQuadric(normal, point model3d.Coord3D, weight float64) Quadric {
	a, b, c := normal.X, normal.Y, normal.Z
	d := -normal.Dot(point)
	return Quadric{
		q00: weight * a * a, q01: weight * a * b, q02: weight * a * c, q03: weight * a * d,
		q11: weight * b * b, q12: weight * b * c, q13: weight * b * d,
		q22: weight * c * c, q23: weight * c * d,
		q33: weight * d * d,
	}
}

// Add returns the sum of two quadrics.
func (q Quadric) Add(o Quadric) Quadric {
	return Quadric{
		q00: q.q00 + o.q00, q01: q.q01 + o.q01, q02: q.q02 + o.q02, q03: q.q03 + o.q03,
		q11: q.q11 + o.q11, q12: q.q12 + o.q12, q13: q.q13 + o.q13,
		q22: q.q22 + o.q22, q23: q.q23 + o.q23,
		q33: q.q33 + o.q33,
	}
}

// Eval returns p^T Q p for the given point p.
func (q Quadric) Eval(p model3d.Coord3D) float64 {
	x, y, z := p.X, p.Y, p.Z
	return q.q00*x*x + q.q11*y*y + q.q22*z*z +
		2*q.q01*x*y + 2*q.q02*x*z + 2*q.q03*x +
		2*q.q12*y*z + 2*q.q13*y +
		2*q.q23*z + q.q33
}

// conditionThreshold bounds how ill-conditioned the leading 3x3 system may
// be before Solve gives up and asks the caller to fall back to a safe
// default.
const conditionThreshold = 1e12

// Solve finds the point minimizing p^T Q p, subject to the homogeneous
// coordinate being 1, by solving the leading 3x3 linear system. ok is
// false if the system is singular or too ill-conditioned, in which case
// the caller should fall back to e.g. the contracted edge's midpoint.
func (q Quadric) Solve() (point model3d.Coord3D, ok bool) {
	a := mat.NewDense(3, 3, []float64{
		q.q00, q.q01, q.q02,
		q.q01, q.q11, q.q12,
		q.q02, q.q12, q.q22,
	})
	if cond := mat.Cond(a, 2); cond > conditionThreshold {
		return model3d.Origin, false
	}
	rhs := mat.NewVecDense(3, []float64{-q.q03, -q.q13, -q.q23})
	var x mat.VecDense
	if err := x.SolveVec(a, rhs); err != nil {
		return model3d.Origin, false
	}
	return model3d.XYZ(x.AtVec(0), x.AtVec(1), x.AtVec(2)), true
}

package partition

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestCovarianceSingleFaceZeroEnergy(t *testing.T) {
	cov := NewFaceCovariance(model3d.XYZ(0, 0, 0), model3d.XYZ(1, 0, 0), model3d.XYZ(0, 1, 0), 0.5)
	if e := cov.Energy(); e != 0 {
		t.Fatalf("expected zero energy for a single face, got %f", e)
	}
	if cov.FaceCount() != 1 {
		t.Fatalf("expected face count 1, got %d", cov.FaceCount())
	}
}

func TestCovarianceCoplanarFacesZeroEnergy(t *testing.T) {
	a := NewFaceCovariance(model3d.XYZ(0, 0, 0), model3d.XYZ(1, 0, 0), model3d.XYZ(0, 1, 0), 0.5)
	b := NewFaceCovariance(model3d.XYZ(1, 0, 0), model3d.XYZ(1, 1, 0), model3d.XYZ(0, 1, 0), 0.5)
	sum := a.Add(b)
	if e := sum.Energy(); math.Abs(e) > 1e-9 {
		t.Fatalf("expected ~zero energy for two coplanar faces, got %f", e)
	}
}

func TestCovarianceBentFacesNonzeroEnergy(t *testing.T) {
	a := NewFaceCovariance(model3d.XYZ(0, 0, 0), model3d.XYZ(1, 0, 0), model3d.XYZ(0, 1, 0), 0.5)
	b := NewFaceCovariance(model3d.XYZ(1, 0, 0), model3d.XYZ(1, 1, 1), model3d.XYZ(0, 1, 0), 0.5)
	sum := a.Add(b)
	if e := sum.Energy(); e <= 0 {
		t.Fatalf("expected positive energy for a bent pair, got %f", e)
	}
}

func TestCovarianceAddSubInverse(t *testing.T) {
	a := NewFaceCovariance(model3d.XYZ(0, 0, 0), model3d.XYZ(1, 0, 0), model3d.XYZ(0, 1, 0), 0.5)
	b := NewFaceCovariance(model3d.XYZ(1, 0, 0), model3d.XYZ(1, 1, 1), model3d.XYZ(0, 1, 0), 0.5)
	c := NewFaceCovariance(model3d.XYZ(2, 2, 2), model3d.XYZ(3, 2, 2), model3d.XYZ(2, 3, 2), 0.5)

	merged := a.Add(b).Add(c)
	recovered := merged.Sub(b)
	want := a.Add(c)

	if recovered.FaceCount() != want.FaceCount() {
		t.Fatalf("face count mismatch: %d vs %d", recovered.FaceCount(), want.FaceCount())
	}
	if math.Abs(recovered.Area()-want.Area()) > 1e-9 {
		t.Fatalf("area mismatch: %f vs %f", recovered.Area(), want.Area())
	}
	if recovered.sum.Dist(want.sum) > 1e-9 {
		t.Fatalf("sum mismatch: %v vs %v", recovered.sum, want.sum)
	}
}

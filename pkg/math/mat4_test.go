package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestTransformPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{2, 4, 6}
	if got != want {
		t.Errorf("TransformPoint with scale: got %v, want %v", got, want)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30).Mul(Scale(2, 1, 1))
	got := m.TransformDirection(Vec3{1, 1, 0})
	want := Vec3{2, 1, 0}
	if got != want {
		t.Errorf("TransformDirection: got %v, want %v", got, want)
	}
}

func TestRotateAxis(t *testing.T) {
	// 90 degrees around Z maps X onto Y.
	m := RotateAxis(Vec3{0, 0, 1}, math.Pi/2)
	got := m.TransformPoint(Vec3{1, 0, 0})
	if !got.NearlyEqual(Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("RotateAxis Z 90: got %v, want (0, 1, 0)", got)
	}
}

func TestFromColumns(t *testing.T) {
	m := FromColumns(Vec3{0, 1, 0}, Vec3{-1, 0, 0}, Vec3{0, 0, 1})
	got := m.TransformDirection(Vec3{1, 0, 0})
	if got != (Vec3{0, 1, 0}) {
		t.Errorf("FromColumns X image: got %v", got)
	}
	if m.Determinant3() != 1 {
		t.Errorf("Determinant3 = %v, want 1", m.Determinant3())
	}
}

func TestFromMat3x3(t *testing.T) {
	m3 := [9]float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	m4 := FromMat3x3(m3)

	if m4[0] != 1 || m4[1] != 2 || m4[2] != 3 {
		t.Error("FromMat3x3 column 0 incorrect")
	}
	if m4[4] != 4 || m4[5] != 5 || m4[6] != 6 {
		t.Error("FromMat3x3 column 1 incorrect")
	}
	if m4[15] != 1 {
		t.Errorf("FromMat3x3 [15] should be 1, got %f", m4[15])
	}
}

func TestInverse(t *testing.T) {
	m := Translate(1, -2, 3).Mul(Scale(2, 4, 0.5)).Mul(RotateAxis(Vec3{0, 1, 0}, 0.7))
	product := m.Mul(m.Inverse())
	id := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(product[i]-id[i]) > 1e-9 {
			t.Fatalf("M * M^-1 element %d = %v, want %v", i, product[i], id[i])
		}
	}
}

func TestNormalMatrixKeepsPerpendicular(t *testing.T) {
	m := Scale(4, 1, 1)
	// Plane x = y has normal (1,-1,0) and tangent (1,1,0).
	tangent := m.TransformDirection(Vec3{1, 1, 0})
	normal := m.NormalMatrix().TransformDirection(Vec3{1, -1, 0})
	if d := tangent.Dot(normal); math.Abs(d) > 1e-9 {
		t.Errorf("transformed normal not perpendicular to tangent, dot = %v", d)
	}
}

func TestTranspose(t *testing.T) {
	m := Translate(1, 2, 3)
	tr := m.Transpose()
	if tr[3] != 1 || tr[7] != 2 || tr[11] != 3 {
		t.Errorf("Transpose moved translation to %v %v %v", tr[3], tr[7], tr[11])
	}
	if tr.Transpose() != m {
		t.Error("double transpose should be identity operation")
	}
}

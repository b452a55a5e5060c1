package math

import (
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
	if !m.IsIdentity() {
		t.Error("IsIdentity should hold for Identity()")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())
	if result != m {
		t.Errorf("M * I should equal M, got %v", result)
	}
	if m.IsIdentity() {
		t.Error("translation should not be identity")
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(5, 10, 15).Mul(Translate(1, 1, 1))
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{7, 13, 19}
	if got != want {
		t.Errorf("TransformPoint() = %v, want %v", got, want)
	}
}

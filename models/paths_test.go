package models

import (
	"errors"
	"testing"
)

func TestNewPathMatrix(t *testing.T) {
	m, err := NewPathMatrix([][]float64{{100, 110, 120}, {100, 90, 80}}, 0.5)
	if err != nil {
		t.Fatalf("NewPathMatrix: %v", err)
	}
	if m.PathCount() != 2 || m.StepCount() != 2 {
		t.Fatalf("dims = %d paths, %d steps", m.PathCount(), m.StepCount())
	}
	if got := m.Terminal(); got[0] != 120 || got[1] != 80 {
		t.Errorf("Terminal = %v", got)
	}
	if got := m.At(1, 1); got != 90 {
		t.Errorf("At(1, 1) = %v, want 90", got)
	}

	rows := m.Rows()
	rows[0][0] = -1
	if m.At(0, 0) != 100 {
		t.Error("Rows returned a view instead of a copy")
	}
}

func TestNewPathMatrixEmpty(t *testing.T) {
	m, err := NewPathMatrix(nil, 0.1)
	if err != nil {
		t.Fatalf("NewPathMatrix(nil): %v", err)
	}
	if m.PathCount() != 0 || m.Terminal() != nil || m.data != nil {
		t.Errorf("empty matrix not empty: %d paths", m.PathCount())
	}

	var nilMatrix *PathMatrix
	if nilMatrix.PathCount() != 0 {
		t.Error("nil matrix reports paths")
	}
}

func TestNewPathMatrixRagged(t *testing.T) {
	_, err := NewPathMatrix([][]float64{{1, 2}, {1}}, 1)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ragged rows error = %v", err)
	}
	_, err = NewPathMatrix([][]float64{{}}, 1)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero-length rows error = %v", err)
	}
}

func TestDeriveSeed(t *testing.T) {
	if DeriveSeed(42, 1, 2) != DeriveSeed(42, 1, 2) {
		t.Fatal("DeriveSeed is not deterministic")
	}
	seen := map[uint64]bool{}
	for i := 0; i < 20; i++ {
		for j := 0; j < 20; j++ {
			s := DeriveSeed(42, i, j)
			if seen[s] {
				t.Fatalf("collision at (%d, %d)", i, j)
			}
			seen[s] = true
		}
	}
	if DeriveSeed(42, 1, 2) == DeriveSeed(42, 2, 1) {
		t.Error("coordinate order ignored")
	}
	if DeriveSeed(1, 0) == DeriveSeed(2, 0) {
		t.Error("base seed ignored")
	}
}

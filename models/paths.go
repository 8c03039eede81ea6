package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PathMatrix holds simulated trajectories, one row per path and one column per time point.
// Column 0 is the initial price and column t sits at time t·dt. The matrix is owned by the
// caller that produced it and is not modified after construction.
type PathMatrix struct {
	data *mat.Dense // nil when the matrix holds no paths
	dt   float64
}

// NewPathMatrix copies rows into a PathMatrix. All rows must have the same non-zero length.
// An empty rows slice yields an empty matrix, which pricers reject with ErrEmptyInput.
func NewPathMatrix(rows [][]float64, dt float64) (*PathMatrix, error) {
	if len(rows) == 0 {
		return &PathMatrix{dt: dt}, nil
	}
	points := len(rows[0])
	if points == 0 {
		return nil, InvalidParameter("rows", 0, "paths must contain at least one point")
	}
	data := mat.NewDense(len(rows), points, nil)
	for i, row := range rows {
		if len(row) != points {
			return nil, InvalidParameter("rows", float64(i), fmt.Sprintf("path has %d points, want %d", len(row), points))
		}
		data.SetRow(i, row)
	}
	return &PathMatrix{data: data, dt: dt}, nil
}

func (m *PathMatrix) PathCount() int {
	if m == nil || m.data == nil {
		return 0
	}
	r, _ := m.data.Dims()
	return r
}

func (m *PathMatrix) PointCount() int {
	if m == nil || m.data == nil {
		return 0
	}
	_, c := m.data.Dims()
	return c
}

// StepCount is the number of increments per path (PointCount - 1).
func (m *PathMatrix) StepCount() int {
	if m.PointCount() == 0 {
		return 0
	}
	return m.PointCount() - 1
}

func (m *PathMatrix) TimeStep() float64 {
	if m == nil {
		return 0
	}
	return m.dt
}

func (m *PathMatrix) At(path, point int) float64 {
	return m.data.At(path, point)
}

// Path returns a copy of one trajectory.
func (m *PathMatrix) Path(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// Column returns a copy of all path values at time point t.
func (m *PathMatrix) Column(t int) []float64 {
	return mat.Col(nil, t, m.data)
}

// Terminal returns the last value of every path.
func (m *PathMatrix) Terminal() []float64 {
	if m.PathCount() == 0 {
		return nil
	}
	return m.Column(m.PointCount() - 1)
}

// TimeGrid returns the time in years of every column.
func (m *PathMatrix) TimeGrid() []float64 {
	grid := make([]float64, m.PointCount())
	for i := range grid {
		grid[i] = float64(i) * m.dt
	}
	return grid
}

// Rows returns a copy of the matrix as nested slices, for serialization.
func (m *PathMatrix) Rows() [][]float64 {
	rows := make([][]float64, m.PathCount())
	for i := range rows {
		rows[i] = m.Path(i)
	}
	return rows
}

// checkPositive verifies that every entry is finite and strictly positive.
func (m *PathMatrix) checkPositive() error {
	raw := m.data.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for t, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: path %d point %d has value %v", ErrNumericInstability, i, t, v)
			}
		}
	}
	return nil
}

// Package report persists results as JSON and renders them as text tables.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bcdannyboy/gbmc/models"
	"github.com/xhhuango/json"
)

// WriteJSON writes v to dir/name as indented JSON, creating dir when needed, and returns the
// file path. A missing ".json" extension is added.
func WriteJSON(dir, name string, v interface{}) (string, error) {
	if name == "" {
		return "", fmt.Errorf("report name must not be empty")
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	f := filepath.Join(dir, name)
	if err := os.WriteFile(f, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", f, err)
	}
	return f, nil
}

// Snapshot is a serializable view of the first paths of a PathMatrix.
type Snapshot struct {
	PathCount int         `json:"path_count"`
	Included  int         `json:"included"`
	StepCount int         `json:"step_count"`
	TimeStep  float64     `json:"time_step"`
	Times     []float64   `json:"times"`
	Paths     [][]float64 `json:"paths"`
	Terminal  []float64   `json:"terminal"`
}

// PathSnapshot copies at most maxPaths trajectories from m. maxPaths <= 0 keeps every path.
// Terminal always covers every path.
func PathSnapshot(m *models.PathMatrix, maxPaths int) Snapshot {
	total := m.PathCount()
	n := total
	if maxPaths > 0 && maxPaths < n {
		n = maxPaths
	}
	s := Snapshot{
		PathCount: total,
		Included:  n,
		StepCount: m.StepCount(),
		TimeStep:  m.TimeStep(),
		Times:     m.TimeGrid(),
		Paths:     make([][]float64, n),
		Terminal:  m.Terminal(),
	}
	for i := 0; i < n; i++ {
		s.Paths[i] = m.Path(i)
	}
	return s
}

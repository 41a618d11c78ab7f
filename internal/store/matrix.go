package store

import (
	"fmt"
	"math"

	"github.com/seenimoa/stockrec/pkg/utils"
)

// Matrix is a labeled user-to-user similarity matrix. Cells may be missing,
// which is represented internally as NaN and reported by Lookup as !ok.
// A Matrix is never modified after construction.
type Matrix struct {
	rowLabels []string
	colLabels []string
	rows      map[string]int
	cols      map[string]int
	values    [][]float64
}

// NewMatrix builds a matrix from row labels, column labels and a dense value
// grid (values[row][col]). Labels are normalized with utils.NormalizeUserID
// and must be unique per axis. Use math.NaN() for missing cells.
func NewMatrix(rowLabels, colLabels []string, values [][]float64) (*Matrix, error) {
	if len(values) != len(rowLabels) {
		return nil, fmt.Errorf("matrix has %d rows but %d row labels", len(values), len(rowLabels))
	}

	m := &Matrix{
		rowLabels: make([]string, len(rowLabels)),
		colLabels: make([]string, len(colLabels)),
		rows:      make(map[string]int, len(rowLabels)),
		cols:      make(map[string]int, len(colLabels)),
		values:    make([][]float64, len(values)),
	}

	for i, l := range colLabels {
		id := utils.NormalizeUserID(l)
		if _, dup := m.cols[id]; dup {
			return nil, fmt.Errorf("duplicate column label %q", id)
		}
		m.cols[id] = i
		m.colLabels[i] = id
	}
	for i, l := range rowLabels {
		id := utils.NormalizeUserID(l)
		if _, dup := m.rows[id]; dup {
			return nil, fmt.Errorf("duplicate row label %q", id)
		}
		if len(values[i]) != len(colLabels) {
			return nil, fmt.Errorf("row %q has %d values, want %d", id, len(values[i]), len(colLabels))
		}
		m.rows[id] = i
		m.rowLabels[i] = id
		m.values[i] = append([]float64(nil), values[i]...)
	}

	return m, nil
}

// Lookup returns the similarity of row user to column user. ok is false when
// either label is unknown or the cell is missing. Lookup never assumes the
// matrix is symmetric.
func (m *Matrix) Lookup(row, col string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.rows[row]
	if !ok {
		return 0, false
	}
	j, ok := m.cols[col]
	if !ok {
		return 0, false
	}
	v := m.values[i][j]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// HasRow reports whether id labels a row.
func (m *Matrix) HasRow(id string) bool {
	if m == nil {
		return false
	}
	_, ok := m.rows[id]
	return ok
}

// HasCol reports whether id labels a column.
func (m *Matrix) HasCol(id string) bool {
	if m == nil {
		return false
	}
	_, ok := m.cols[id]
	return ok
}

// Rows returns the row labels in file order.
func (m *Matrix) Rows() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.rowLabels...)
}

// Cols returns the column labels in file order.
func (m *Matrix) Cols() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.colLabels...)
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rowLabels)
}

package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/seenimoa/stockrec/pkg/models"
	"github.com/seenimoa/stockrec/pkg/utils"
)

// ErrMalformedRow is matched by every *RowError.
var ErrMalformedRow = errors.New("malformed row")

// RowError reports a bad row in one of the input tables.
type RowError struct {
	File string
	Line int
	Msg  string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Is makes errors.Is(err, ErrMalformedRow) true for row errors.
func (e *RowError) Is(target error) bool {
	return target == ErrMalformedRow
}

// Constituents column names as published with the S&P 500 list.
const (
	ColSymbol       = "Symbol"
	ColSecurity     = "Security"
	ColSector       = "GICS Sector"
	ColSubIndustry  = "GICS Sub-Industry"
	ColHeadquarters = "Headquarters Location"
	ColDateAdded    = "Date added"
	ColCIK          = "CIK"
	ColFounded      = "Founded"
	ColRecentChange = "last_month_move"
)

var constituentsHeader = []string{
	ColSymbol, ColSecurity, ColSector, ColSubIndustry,
	ColHeadquarters, ColDateAdded, ColCIK, ColFounded, ColRecentChange,
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// header maps trimmed, lower-cased column names to their index.
func header(rec []string) map[string]int {
	cols := make(map[string]int, len(rec))
	for i, name := range rec {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[strings.ToLower(name)]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// ReadPortfolios parses the portfolio table. Columns are located by header;
// user_id, stock, sector and weight are required, name is optional.
func ReadPortfolios(r io.Reader, file string) ([]models.Holding, error) {
	cr := newReader(r)
	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", file, err)
	}
	cols := header(head)
	for _, req := range []string{"user_id", "stock", "sector", "weight"} {
		if _, ok := cols[req]; !ok {
			return nil, &RowError{File: file, Line: 1, Msg: fmt.Sprintf("missing column %q", req)}
		}
	}

	var out []models.Holding
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}

		h := models.Holding{
			UserID: utils.NormalizeUserID(field(rec, cols, "user_id")),
			Name:   field(rec, cols, "name"),
			Symbol: utils.NormalizeSymbol(field(rec, cols, "stock")),
			Sector: field(rec, cols, "sector"),
		}
		if h.UserID == "" || h.Symbol == "" {
			return nil, &RowError{File: file, Line: line, Msg: "empty user_id or stock"}
		}
		raw := field(rec, cols, "weight")
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, &RowError{File: file, Line: line, Msg: fmt.Sprintf("invalid weight %q", raw)}
		}
		if w < 0 {
			return nil, &RowError{File: file, Line: line, Msg: fmt.Sprintf("negative weight %v", w)}
		}
		h.Weight = w
		out = append(out, h)
	}
	return out, nil
}

// ReadMatrix parses a square-or-not similarity table. The first header cell
// is the index label and is ignored; the remaining header cells are column
// user ids. Each data row starts with the row user id. Blank and NaN cells
// are stored as missing.
func ReadMatrix(r io.Reader, file string) (*Matrix, error) {
	cr := newReader(r)
	head, err := cr.Read()
	if err == io.EOF {
		return NewMatrix(nil, nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", file, err)
	}
	if len(head) == 0 {
		return nil, &RowError{File: file, Line: 1, Msg: "empty header"}
	}
	colLabels := head[1:]

	var (
		rowLabels []string
		values    [][]float64
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}
		if len(rec)-1 > len(colLabels) {
			return nil, &RowError{File: file, Line: line, Msg: fmt.Sprintf("%d values for %d columns", len(rec)-1, len(colLabels))}
		}

		row := make([]float64, len(colLabels))
		for j := range row {
			row[j] = math.NaN()
			if j+1 >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[j+1])
			if cell == "" || strings.EqualFold(cell, "nan") {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, &RowError{File: file, Line: line, Msg: fmt.Sprintf("invalid similarity %q", cell)}
			}
			if math.IsInf(v, 0) || v < 0 || v > 1 {
				return nil, &RowError{File: file, Line: line, Msg: fmt.Sprintf("similarity %q outside [0,1]", cell)}
			}
			row[j] = v
		}
		rowLabels = append(rowLabels, rec[0])
		values = append(values, row)
	}

	m, err := NewMatrix(rowLabels, colLabels, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return m, nil
}

// ReadConstituents parses the stock reference table. Only Symbol is
// required. A blank or missing last_month_move leaves HasChange false.
func ReadConstituents(r io.Reader, file string) ([]models.StockReference, error) {
	cr := newReader(r)
	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", file, err)
	}
	cols := header(head)
	if _, ok := cols[strings.ToLower(ColSymbol)]; !ok {
		return nil, &RowError{File: file, Line: 1, Msg: fmt.Sprintf("missing column %q", ColSymbol)}
	}

	var out []models.StockReference
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}

		ref := models.StockReference{
			Symbol:       utils.NormalizeSymbol(field(rec, cols, ColSymbol)),
			Security:     field(rec, cols, ColSecurity),
			Sector:       field(rec, cols, ColSector),
			SubIndustry:  field(rec, cols, ColSubIndustry),
			Headquarters: field(rec, cols, ColHeadquarters),
			DateAdded:    field(rec, cols, ColDateAdded),
			CIK:          field(rec, cols, ColCIK),
			Founded:      field(rec, cols, ColFounded),
		}
		if ref.Symbol == "" {
			return nil, &RowError{File: file, Line: line, Msg: "empty symbol"}
		}
		if raw := field(rec, cols, ColRecentChange); raw != "" && !strings.EqualFold(raw, "nan") {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &RowError{File: file, Line: line, Msg: fmt.Sprintf("invalid %s %q", ColRecentChange, raw)}
			}
			ref.RecentChange = v
			ref.HasChange = true
		}
		out = append(out, ref)
	}
	return out, nil
}

// WriteConstituents writes refs in the layout ReadConstituents accepts.
func WriteConstituents(w io.Writer, refs []models.StockReference) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(constituentsHeader); err != nil {
		return err
	}
	for _, r := range refs {
		change := ""
		if r.HasChange {
			change = strconv.FormatFloat(r.RecentChange, 'f', -1, 64)
		}
		rec := []string{
			r.Symbol, r.Security, r.Sector, r.SubIndustry,
			r.Headquarters, r.DateAdded, r.CIK, r.Founded, change,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

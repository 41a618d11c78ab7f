package store

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/seenimoa/stockrec/internal/logging"
	"github.com/seenimoa/stockrec/pkg/models"
)

const (
	portfoliosCSV = `user_id,name,stock,sector,weight
U1,Alice,AAPL,Technology,60
U1,Alice,XOM,Energy,40
U2,Bob,MSFT,Technology,70
U2,Bob,AAPL,Technology,30
U3,Carol,GOOG,Technology,50
 U3 ,Carol, jnj ,Health Care,50
`
	sectorCSV = `user_id,U1,U2,U3
U1,1.0,0.8,0.3
U2,0.8,1.0,
U3,0.3,NaN,1.0
`
	riskCSV = `,U1,U2,U3
U1,1,0.5,0.2
U2,0.5,1,0.1
U3,0.2,0.1,1
`
	constituentsCSV = `Symbol,Security,GICS Sector,GICS Sub-Industry,Headquarters Location,Date added,CIK,Founded,last_month_move
AAPL,Apple Inc.,Information Technology,Technology Hardware,"Cupertino, California",1982-11-30,0000320193,1977,2.5
MSFT,Microsoft,Information Technology,Systems Software,"Redmond, Washington",1994-06-01,0000789019,1975,
GOOG,Alphabet Inc. (Class C),Communication Services,Interactive Media,"Mountain View, California",2006-04-03,0001652044,1998,-1.25
XOM,ExxonMobil,Energy,Integrated Oil & Gas,"Spring, Texas",1957-03-04,0000034088,1999,0.4
JNJ,Johnson & Johnson,Health Care,Pharmaceuticals,"New Brunswick, New Jersey",1973-06-30,0000200406,1886,NaN
`
)

func writeTables(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	return Paths{
		Portfolios:       write("user_portfolios.csv", portfoliosCSV),
		SectorSimilarity: write("sector_similarity_matrix.csv", sectorCSV),
		RiskSimilarity:   write("risk_similarity_matrix.csv", riskCSV),
		Constituents:     write("constituents_with_changes.csv", constituentsCSV),
	}
}

func TestLoad(t *testing.T) {
	s, err := Load(context.Background(), writeTables(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := s.Users(); strings.Join(got, ",") != "U1,U2,U3" {
		t.Errorf("Users() = %v", got)
	}
	if s.NumHoldings() != 6 {
		t.Errorf("NumHoldings() = %d, want 6", s.NumHoldings())
	}

	// identifiers were trimmed and symbols upper-cased
	if _, ok := s.Owned("U3")["JNJ"]; !ok {
		t.Errorf("U3 should own JNJ, got %v", s.Owned("U3"))
	}

	if v, ok := s.SectorMatrix().Lookup("U1", "U2"); !ok || v != 0.8 {
		t.Errorf("sector U1,U2 = %v,%v", v, ok)
	}
	if _, ok := s.SectorMatrix().Lookup("U2", "U3"); ok {
		t.Error("blank cell should be missing")
	}
	if _, ok := s.SectorMatrix().Lookup("U3", "U2"); ok {
		t.Error("NaN cell should be missing")
	}
	if v, ok := s.RiskMatrix().Lookup("U3", "U1"); !ok || v != 0.2 {
		t.Errorf("risk U3,U1 = %v,%v", v, ok)
	}

	ref, ok := s.Reference("AAPL")
	if !ok {
		t.Fatal("AAPL reference missing")
	}
	if ref.Headquarters != "Cupertino, California" || !ref.HasChange || ref.RecentChange != 2.5 {
		t.Errorf("AAPL reference = %+v", ref)
	}
	if msft, _ := s.Reference("MSFT"); msft.HasChange {
		t.Error("blank last_month_move should leave HasChange false")
	}
	if jnj, _ := s.Reference("JNJ"); jnj.HasChange {
		t.Error("NaN last_month_move should leave HasChange false")
	}
	if got := strings.Join(s.Universe(), ","); got != "AAPL,MSFT,GOOG,XOM,JNJ" {
		t.Errorf("Universe() = %s", got)
	}

	st := s.Stats()
	if st.ID == "" || st.Users != 3 || st.Stocks != 5 || st.SectorMatrix != 3 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestLoadMissingFile(t *testing.T) {
	p := writeTables(t)
	p.RiskSimilarity = filepath.Join(t.TempDir(), "nope.csv")
	if _, err := Load(context.Background(), p); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestReadPortfoliosErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative weight", "user_id,stock,sector,weight\nU1,AAPL,Tech,-1\n"},
		{"non-numeric weight", "user_id,stock,sector,weight\nU1,AAPL,Tech,lots\n"},
		{"missing column", "user_id,stock,weight\nU1,AAPL,1\n"},
		{"empty symbol", "user_id,stock,sector,weight\nU1,,Tech,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPortfolios(strings.NewReader(tt.body), "p.csv")
			if !errors.Is(err, ErrMalformedRow) {
				t.Fatalf("error = %v, want ErrMalformedRow", err)
			}
			var re *RowError
			if !errors.As(err, &re) || re.File != "p.csv" {
				t.Errorf("error = %#v, want *RowError for p.csv", err)
			}
		})
	}
}

func TestReadPortfoliosLineNumbers(t *testing.T) {
	body := "user_id,stock,sector,weight\nU1,AAPL,Tech,1\nU1,MSFT,Tech,x\n"
	_, err := ReadPortfolios(strings.NewReader(body), "p.csv")
	var re *RowError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v", err)
	}
	if re.Line != 3 {
		t.Errorf("Line = %d, want 3", re.Line)
	}
}

func TestReadPortfoliosZeroWeightAllowed(t *testing.T) {
	hs, err := ReadPortfolios(strings.NewReader("user_id,stock,sector,weight\nU1,AAPL,Tech,0\n"), "p.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(hs) != 1 || hs[0].Weight != 0 {
		t.Errorf("holdings = %+v", hs)
	}
}

func TestReadMatrixErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad value", ",A,B\nA,1,x\n"},
		{"too many values", ",A\nA,1,2\n"},
		{"duplicate row", ",A,B\nA,1,0\nA,0,1\n"},
		{"negative value", ",A,B\nA,1,-0.5\n"},
		{"value above one", ",A,B\nA,1,1.5\n"},
		{"infinite value", ",A,B\nA,1,inf\n"},
		{"negative infinity", ",A,B\nA,-Inf,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadMatrix(strings.NewReader(tt.body), "m.csv"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadMatrixOutOfRangeIsRowError(t *testing.T) {
	_, err := ReadMatrix(strings.NewReader(",A,B\nA,1,0.5\nB,2,1\n"), "m.csv")
	if !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("err = %v, want ErrMalformedRow", err)
	}
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 {
		t.Errorf("err = %#v, want line 3", err)
	}
}

func TestReadMatrixAcceptsBounds(t *testing.T) {
	m, err := ReadMatrix(strings.NewReader(",A,B\nA,1,0\nB,0.0,1.0\n"), "m.csv")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := m.Lookup("A", "B"); !ok || v != 0 {
		t.Errorf("Lookup(A,B) = %v,%v, want explicit 0", v, ok)
	}
}

func TestReadMatrixShortRowIsMissing(t *testing.T) {
	m, err := ReadMatrix(strings.NewReader(",A,B\nA,1\n"), "m.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Lookup("A", "B"); ok {
		t.Error("short row should leave trailing cells missing")
	}
}

func TestMatrixAsymmetricLookup(t *testing.T) {
	m, err := NewMatrix([]string{"A", "B"}, []string{"A", "B"}, [][]float64{
		{1, 0.9},
		{0.1, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	ab, _ := m.Lookup("A", "B")
	ba, _ := m.Lookup("B", "A")
	if ab != 0.9 || ba != 0.1 {
		t.Errorf("Lookup(A,B)=%v Lookup(B,A)=%v", ab, ba)
	}
	if _, ok := m.Lookup("A", "Z"); ok {
		t.Error("unknown column should be missing")
	}
	var nilM *Matrix
	if _, ok := nilM.Lookup("A", "B"); ok || nilM.Len() != 0 {
		t.Error("nil matrix should behave as empty")
	}
	if _, err := NewMatrix([]string{"A"}, []string{"A", "A"}, [][]float64{{1, math.NaN()}}); err == nil {
		t.Error("duplicate column should be rejected")
	}
}

func TestWriteConstituentsRoundTrip(t *testing.T) {
	refs, err := ReadConstituents(strings.NewReader(constituentsCSV), "c.csv")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteConstituents(&buf, refs); err != nil {
		t.Fatal(err)
	}
	again, err := ReadConstituents(&buf, "c.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(refs) {
		t.Fatalf("len = %d, want %d", len(again), len(refs))
	}
	for i := range refs {
		if again[i] != refs[i] {
			t.Errorf("row %d = %+v, want %+v", i, again[i], refs[i])
		}
	}
}

func TestPortfolioAndAllocation(t *testing.T) {
	s := New([]models.Holding{
		{UserID: "U1", Symbol: "A", Sector: "Energy", Weight: 20},
		{UserID: "U1", Symbol: "B", Sector: "Tech", Weight: 30},
		{UserID: "U1", Symbol: "C", Sector: "Energy", Weight: 10},
		{UserID: "U1", Symbol: "D", Sector: "Health", Weight: 30},
	}, nil, nil, nil)

	view, ok := s.Portfolio("U1")
	if !ok {
		t.Fatal("U1 should have a portfolio")
	}
	want := []models.SectorWeight{
		{Sector: "Energy", Weight: 30},
		{Sector: "Tech", Weight: 30},
		{Sector: "Health", Weight: 30},
	}
	if len(view.Allocation) != len(want) {
		t.Fatalf("allocation = %+v", view.Allocation)
	}
	for i := range want {
		if view.Allocation[i] != want[i] {
			t.Errorf("allocation[%d] = %+v, want %+v", i, view.Allocation[i], want[i])
		}
	}
	if view.TopSector != "Energy" {
		t.Errorf("TopSector = %q, want Energy", view.TopSector)
	}
	if len(view.Holdings) != 4 {
		t.Errorf("holdings = %d, want 4", len(view.Holdings))
	}

	if _, ok := s.Portfolio("nobody"); ok {
		t.Error("unknown user should not have a portfolio")
	}
}

func TestSnapshotCopiesInputs(t *testing.T) {
	in := []models.Holding{{UserID: "U1", Symbol: "A", Sector: "X", Weight: 1}}
	s := New(in, nil, nil, nil)
	in[0].Weight = 99
	if s.Holdings("U1")[0].Weight != 1 {
		t.Error("snapshot must not alias caller slices")
	}
	out := s.Holdings("U1")
	out[0].Weight = 42
	if s.Holdings("U1")[0].Weight != 1 {
		t.Error("Holdings must return a copy")
	}
}

func TestHolder(t *testing.T) {
	h := NewHolder(writeTables(t), logging.Nop())

	if _, err := h.Current(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Current() before load = %v, want ErrNoSnapshot", err)
	}

	var (
		mu   sync.Mutex
		seen []string
	)
	h.Subscribe(func(s *Snapshot) {
		mu.Lock()
		seen = append(seen, s.ID)
		mu.Unlock()
	})

	first, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	cur, _ := h.Current()
	if cur != first {
		t.Error("Current() should return the reloaded snapshot")
	}

	// a failing reload keeps the old snapshot
	if err := os.WriteFile(h.Paths().Portfolios, []byte("user_id,stock,sector,weight\nU1,A,X,-5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	cur, _ = h.Current()
	if cur != first {
		t.Error("failed reload must keep the previous snapshot")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != first.ID {
		t.Errorf("subscribers saw %v, want [%s]", seen, first.ID)
	}
}

func TestHolderSwapNotifiesSubscribers(t *testing.T) {
	h := NewHolder(Paths{}, logging.Nop())
	s := New(nil, nil, nil, nil)

	var got []string
	h.Subscribe(func(*Snapshot) { got = append(got, "first") })
	h.Subscribe(func(*Snapshot) {
		got = append(got, "second")
		// subscribing from a callback must not deadlock or run in this swap
		h.Subscribe(func(*Snapshot) { got = append(got, "late") })
	})

	if old := h.Swap(s); old != nil {
		t.Errorf("first Swap returned %v, want nil", old)
	}
	if strings.Join(got, ",") != "first,second" {
		t.Errorf("notified = %v, want first,second", got)
	}

	got = nil
	if old := h.Swap(s); old != s {
		t.Error("second Swap should return the previous snapshot")
	}
	if strings.Join(got, ",") != "first,second,late" {
		t.Errorf("notified = %v, want first,second,late", got)
	}
}

func TestHolderConcurrentReaders(t *testing.T) {
	h := NewHolder(writeTables(t), logging.Nop())
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s, err := h.Current()
				if err != nil {
					t.Error(err)
					return
				}
				if s.NumHoldings() != 6 {
					t.Errorf("NumHoldings() = %d", s.NumHoldings())
					return
				}
			}
		}()
	}
	for i := 0; i < 3; i++ {
		if _, err := h.Reload(context.Background()); err != nil {
			t.Error(err)
		}
	}
	wg.Wait()
}

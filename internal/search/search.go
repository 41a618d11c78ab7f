// Package search provides full-text lookup over the stock reference table.
// The index lives in memory and is rebuilt whenever a new snapshot is
// published.
package search

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/rs/zerolog"

	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/pkg/models"
)

// ErrNotReady is returned before the first index has been built.
var ErrNotReady = errors.New("search index not built")

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 10

// Hit is one search result.
type Hit struct {
	Symbol   string  `json:"symbol"`
	Security string  `json:"security"`
	Sector   string  `json:"sector"`
	Score    float64 `json:"score"`
}

// document is what gets indexed for each reference row.
type document struct {
	Symbol      string `json:"symbol"`
	Security    string `json:"security"`
	Sector      string `json:"sector"`
	SubIndustry string `json:"sub_industry"`
}

// Index is an immutable in-memory index over one reference table.
type Index struct {
	idx   bleve.Index
	count int
}

// Build indexes refs. Duplicate symbols keep the first row.
func Build(refs []models.StockReference) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		if r.Symbol == "" || seen[r.Symbol] {
			continue
		}
		seen[r.Symbol] = true
		doc := document{
			Symbol:      strings.ToLower(r.Symbol),
			Security:    r.Security,
			Sector:      r.Sector,
			SubIndustry: r.SubIndustry,
		}
		if err := batch.Index(r.Symbol, doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index %s: %w", r.Symbol, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("execute batch: %w", err)
	}
	return &Index{idx: idx, count: len(seen)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	symbolField := bleve.NewTextFieldMapping()
	symbolField.Analyzer = keyword.Name
	symbolField.Store = true
	doc.AddFieldMappingsAt("symbol", symbolField)

	textField := bleve.NewTextFieldMapping()
	textField.Store = true
	doc.AddFieldMappingsAt("security", textField)
	doc.AddFieldMappingsAt("sector", textField)
	doc.AddFieldMappingsAt("sub_industry", textField)

	indexMapping.DefaultMapping = doc
	return indexMapping
}

// Len returns the number of indexed stocks.
func (i *Index) Len() int { return i.count }

// Search matches q against symbols (exact and prefix), company names,
// sectors and sub-industries. Exact symbol hits rank first.
func (i *Index) Search(q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	lower := strings.ToLower(q)

	exact := bleve.NewTermQuery(lower)
	exact.SetField("symbol")
	exact.SetBoost(10.0)

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("symbol")
	prefix.SetBoost(5.0)

	name := bleve.NewMatchQuery(q)
	name.SetField("security")
	name.SetBoost(3.0)

	namePrefix := bleve.NewPrefixQuery(lower)
	namePrefix.SetField("security")
	namePrefix.SetBoost(2.0)

	sector := bleve.NewMatchQuery(q)
	sector.SetField("sector")

	sub := bleve.NewMatchQuery(q)
	sub.SetField("sub_industry")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(exact, prefix, name, namePrefix, sector, sub))
	req.Fields = []string{"security", "sector"}
	req.Size = limit
	req.SortBy([]string{"-_score", "_id"})

	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{
			Symbol:   h.ID,
			Security: fieldString(h.Fields, "security"),
			Sector:   fieldString(h.Fields, "sector"),
			Score:    h.Score,
		})
	}
	return hits, nil
}

// Close releases the index.
func (i *Index) Close() error { return i.idx.Close() }

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// Live serves searches from the index for the latest snapshot.
type Live struct {
	cur    atomic.Pointer[Index]
	logger zerolog.Logger
}

// NewLive creates an empty live index.
func NewLive(logger zerolog.Logger) *Live {
	return &Live{logger: logger.With().Str("component", "search").Logger()}
}

// Rebuild indexes s's reference table and swaps it in. It has the shape of
// a store.Holder subscriber.
func (l *Live) Rebuild(s *store.Snapshot) {
	idx, err := Build(s.References())
	if err != nil {
		l.logger.Error().Err(err).Str("snapshot_id", s.ID).Msg("search index rebuild failed")
		return
	}
	// The old index is not closed; in-flight searches may still hold it.
	l.cur.Store(idx)
	l.logger.Debug().Int("stocks", idx.Len()).Str("snapshot_id", s.ID).Msg("search index rebuilt")
}

// Search runs q against the current index.
func (l *Live) Search(q string, limit int) ([]Hit, error) {
	idx := l.cur.Load()
	if idx == nil {
		return nil, ErrNotReady
	}
	return idx.Search(q, limit)
}

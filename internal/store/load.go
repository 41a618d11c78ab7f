package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockrec/internal/config"
	"github.com/seenimoa/stockrec/pkg/models"
)

// Paths locates the four input tables.
type Paths struct {
	Portfolios       string
	SectorSimilarity string
	RiskSimilarity   string
	Constituents     string
}

// PathsFromConfig resolves table paths against the configured data directory.
func PathsFromConfig(cfg config.DataConfig) Paths {
	return Paths{
		Portfolios:       cfg.Path(cfg.PortfoliosFile),
		SectorSimilarity: cfg.Path(cfg.SectorSimilarityFile),
		RiskSimilarity:   cfg.Path(cfg.RiskSimilarityFile),
		Constituents:     cfg.Path(cfg.ConstituentsFile),
	}
}

// All returns the paths in a fixed order.
func (p Paths) All() []string {
	return []string{p.Portfolios, p.SectorSimilarity, p.RiskSimilarity, p.Constituents}
}

// Load reads all four tables concurrently and builds a snapshot. The first
// failure cancels the remaining reads.
func Load(ctx context.Context, p Paths) (*Snapshot, error) {
	var (
		holdings []models.Holding
		sector   *Matrix
		risk     *Matrix
		refs     []models.StockReference
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		holdings, err = readFile(gctx, p.Portfolios, ReadPortfolios)
		return err
	})
	g.Go(func() error {
		var err error
		sector, err = readFile(gctx, p.SectorSimilarity, ReadMatrix)
		return err
	})
	g.Go(func() error {
		var err error
		risk, err = readFile(gctx, p.RiskSimilarity, ReadMatrix)
		return err
	})
	g.Go(func() error {
		var err error
		refs, err = readFile(gctx, p.Constituents, ReadConstituents)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return New(holdings, sector, risk, refs), nil
}

func readFile[T any](ctx context.Context, path string, parse func(io.Reader, string) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	v, err := parse(f, path)
	if err != nil {
		return zero, err
	}
	return v, nil
}

package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/stockrec/pkg/models"
	"github.com/seenimoa/stockrec/pkg/utils"
)

const sourceConstituents = "constituents"

// footnote markers such as "[3]" that trail cells in wiki tables.
var footnoteRe = regexp.MustCompile(`\[[^\]]*\]`)

// Constituents fetches the S&P 500 constituents table from the configured
// URL. Results are cached for an hour.
func (c *Client) Constituents(ctx context.Context) ([]models.StockReference, error) {
	url := c.cfg.ConstituentsURL
	if cached, ok := c.constituents.Get(url); ok {
		return cached, nil
	}

	body, err := c.Get(ctx, sourceConstituents, url, "text/html")
	if err != nil {
		return nil, err
	}
	refs, err := ParseConstituents(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	c.constituents.Set(url, refs)
	c.logger.Info().Int("stocks", len(refs)).Msg("fetched constituents")
	return refs, nil
}

// ParseConstituents extracts reference rows from an HTML page containing a
// table with id "constituents". Columns are matched by header text, so
// reordered or extra columns are tolerated.
func ParseConstituents(r io.Reader) ([]models.StockReference, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents table: %w", ErrNotFound)
	}

	var headers []string
	table.Find("tr").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, cellText(th))
	})

	var refs []models.StockReference
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make(map[string]string, len(headers))
		cells.Each(func(j int, td *goquery.Selection) {
			if j < len(headers) {
				row[headers[j]] = cellText(td)
			}
		})

		ref := models.StockReference{
			Symbol:       utils.NormalizeSymbol(row["Symbol"]),
			Security:     row["Security"],
			Sector:       row["GICS Sector"],
			SubIndustry:  row["GICS Sub-Industry"],
			Headquarters: row["Headquarters Location"],
			DateAdded:    row["Date added"],
			CIK:          row["CIK"],
			Founded:      row["Founded"],
		}
		if ref.Symbol == "" {
			return
		}
		refs = append(refs, ref)
	})

	if len(refs) == 0 {
		return nil, fmt.Errorf("constituents table has no rows: %w", ErrNotFound)
	}
	return refs, nil
}

func cellText(s *goquery.Selection) string {
	t := footnoteRe.ReplaceAllString(s.Text(), "")
	return strings.Join(strings.Fields(t), " ")
}

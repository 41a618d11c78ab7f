// Package report renders a user's portfolio and recommendations as plain
// text (terminal) or a self-contained HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/seenimoa/stockrec/pkg/models"
	"github.com/seenimoa/stockrec/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Configuration
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text", "html" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatHTML, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, html or json)", s)
	}
}

// Config controls rendering.
type Config struct {
	Title    string    // default "Stock Recommendations for <user>"
	BarWidth int       // score bar width in the text report, default 20
	Now      time.Time // report timestamp, default now
}

// Input is everything a report shows. A nil list omits that section; a
// non-empty note replaces the list with a message such as "no holdings".
type Input struct {
	Portfolio  models.PortfolioView
	Sector     *models.RecommendationList
	SectorNote string
	Risk       *models.RecommendationList
	RiskNote   string
	Headlines  map[string][]models.Headline
}

// ════════════════════════════════════════════════════════════════════
// Report Data (flattened for rendering)
// ════════════════════════════════════════════════════════════════════

// Data is the model passed to both renderers.
type Data struct {
	Title       string
	UserID      string
	UserName    string
	GeneratedAt string
	TopSector   string

	Holdings   []HoldingRow
	Allocation []AllocationRow

	Sections []Section
}

// HoldingRow is one portfolio line.
type HoldingRow struct {
	Symbol string
	Sector string
	Weight string
}

// AllocationRow is one sector total.
type AllocationRow struct {
	Sector string
	Weight string
	Share  float64 // 0-100, share of total weight
}

// Section is one recommendation list.
type Section struct {
	Title    string
	Subtitle string
	Note     string
	Rows     []RecRow
}

// RecRow is one ranked recommendation joined with reference data.
type RecRow struct {
	Rank         int
	Symbol       string
	Score        string
	ScoreValue   float64
	Bar          string
	Security     string
	Sector       string
	SubIndustry  string
	Headquarters string
	Founded      string
	Change       string
	ChangeClass  string // "positive", "negative" or ""
	Headlines    []models.Headline
}

// ════════════════════════════════════════════════════════════════════
// Generate
// ════════════════════════════════════════════════════════════════════

// GenerateText renders a terminal-friendly report.
func GenerateText(in Input, cfg Config) (string, error) {
	d := Build(in, cfg)
	return renderText(d)
}

// GenerateHTML renders a standalone HTML page.
func GenerateHTML(in Input, cfg Config) (string, error) {
	d := Build(in, cfg)

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	}).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// Build flattens in for rendering.
func Build(in Input, cfg Config) Data {
	if cfg.BarWidth <= 0 {
		cfg.BarWidth = 20
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}

	p := in.Portfolio
	d := Data{
		Title:       cfg.Title,
		UserID:      p.UserID,
		GeneratedAt: utils.FormatDateTimeET(cfg.Now),
		TopSector:   p.TopSector,
	}
	if d.Title == "" {
		d.Title = "Stock Recommendations for " + p.UserID
	}

	var total float64
	for _, h := range p.Holdings {
		if d.UserName == "" {
			d.UserName = h.Name
		}
		d.Holdings = append(d.Holdings, HoldingRow{
			Symbol: h.Symbol,
			Sector: h.Sector,
			Weight: fmt.Sprintf("%.2f", h.Weight),
		})
		total += h.Weight
	}
	for _, a := range p.Allocation {
		row := AllocationRow{Sector: a.Sector, Weight: fmt.Sprintf("%.2f", a.Weight)}
		if total > 0 {
			row.Share = a.Weight / total * 100
		}
		d.Allocation = append(d.Allocation, row)
	}

	if in.Sector != nil || in.SectorNote != "" {
		sec := buildSection("Recommendations by Sector", in.Sector, in.SectorNote, in.Headlines, cfg.BarWidth)
		if in.Sector != nil && in.Sector.TopSector != "" {
			sec.Subtitle = "Top sector: " + in.Sector.TopSector
		}
		d.Sections = append(d.Sections, sec)
	}
	if in.Risk != nil || in.RiskNote != "" {
		d.Sections = append(d.Sections, buildSection("Recommendations by Risk Profile", in.Risk, in.RiskNote, in.Headlines, cfg.BarWidth))
	}
	return d
}

func buildSection(title string, list *models.RecommendationList, note string, news map[string][]models.Headline, barWidth int) Section {
	sec := Section{Title: title, Note: note}
	if list == nil {
		return sec
	}
	if note == "" && len(list.Items) == 0 {
		sec.Note = "No recommendations available."
	}
	for _, it := range list.Items {
		row := RecRow{
			Rank:       it.Rank,
			Symbol:     it.Symbol,
			Score:      utils.FormatScore(it.Score),
			ScoreValue: it.Score,
			Bar:        utils.ScoreBar(it.Score, barWidth),
			Headlines:  news[it.Symbol],
		}
		if s := it.Stock; s != nil {
			row.Security = s.Security
			row.Sector = s.Sector
			row.SubIndustry = s.SubIndustry
			row.Headquarters = s.Headquarters
			row.Founded = s.Founded
			if s.HasChange {
				row.Change = utils.FormatPct(s.RecentChange)
				row.ChangeClass = changeClass(s.RecentChange)
			}
		}
		sec.Rows = append(sec.Rows, row)
	}
	return sec
}

func changeClass(v float64) string {
	switch {
	case v > 0:
		return "positive"
	case v < 0:
		return "negative"
	default:
		return ""
	}
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderText(d Data) (string, error) {
	var sb strings.Builder
	line := strings.Repeat("═", 72)
	thinLine := strings.Repeat("─", 72)

	sb.WriteString(line + "\n")
	fmt.Fprintf(&sb, "  %s\n", d.Title)
	fmt.Fprintf(&sb, "  Generated: %s\n", d.GeneratedAt)
	sb.WriteString(line + "\n")

	who := d.UserID
	if d.UserName != "" {
		who = fmt.Sprintf("%s (%s)", d.UserName, d.UserID)
	}
	fmt.Fprintf(&sb, "\n  ■ PORTFOLIO: %s\n", who)
	if len(d.Holdings) == 0 {
		sb.WriteString("    No holdings.\n")
	} else {
		tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "    Symbol\tSector\tWeight\t")
		for _, h := range d.Holdings {
			fmt.Fprintf(tw, "    %s\t%s\t%s\t\n", h.Symbol, h.Sector, h.Weight)
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}

		sb.WriteString("\n  ■ SECTOR ALLOCATION\n")
		tw = tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
		for _, a := range d.Allocation {
			fmt.Fprintf(tw, "    %s\t%s\t(%.1f%%)\n", a.Sector, a.Weight, a.Share)
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
		if d.TopSector != "" {
			fmt.Fprintf(&sb, "    Top sector: %s\n", d.TopSector)
		}
	}
	sb.WriteString(thinLine + "\n")

	for _, sec := range d.Sections {
		fmt.Fprintf(&sb, "\n  ■ %s\n", strings.ToUpper(sec.Title))
		if sec.Subtitle != "" {
			fmt.Fprintf(&sb, "    %s\n", sec.Subtitle)
		}
		if sec.Note != "" {
			fmt.Fprintf(&sb, "    %s\n", sec.Note)
		}
		if len(sec.Rows) > 0 {
			tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "    #\tSymbol\tScore\t\tCompany\tSector\tChange")
			for _, r := range sec.Rows {
				fmt.Fprintf(tw, "    %d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Rank, r.Symbol, r.Score, r.Bar, dash(r.Security), dash(r.Sector), dash(r.Change))
			}
			if err := tw.Flush(); err != nil {
				return "", err
			}
			for _, r := range sec.Rows {
				for _, h := range r.Headlines {
					if h.SentimentLabel != "" {
						fmt.Fprintf(&sb, "      [%s] %s (%s)\n", r.Symbol, h.Title, h.SentimentLabel)
					} else {
						fmt.Fprintf(&sb, "      [%s] %s\n", r.Symbol, h.Title)
					}
				}
			}
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n  Scores are relative (0-100) within each list. Not investment advice.\n")
	return sb.String(), nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

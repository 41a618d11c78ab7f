package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/seenimoa/stockrec/internal/datasource"
	"github.com/seenimoa/stockrec/internal/logging"
	"github.com/seenimoa/stockrec/internal/recommend"
	"github.com/seenimoa/stockrec/internal/report"
	"github.com/seenimoa/stockrec/internal/sentiment"
	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/pkg/models"
	"github.com/seenimoa/stockrec/pkg/utils"
)

// --- Recommend Command ---

var recommendCmd = &cobra.Command{
	Use:   "recommend [user]",
	Short: "Recommend stocks for a user",
	Long: `Recommend stocks for a user from the holdings of similar users.

Examples:
  stockrec recommend U1
  stockrec recommend U1 --by risk --top 10
  stockrec recommend U1 --format html -o report.html
  stockrec recommend U1 --news`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		top, _ := cmd.Flags().GetInt("top")
		formatFlag, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("output")
		withNews, _ := cmd.Flags().GetBool("news")

		format, err := report.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		var kinds []models.RecommendationKind
		switch by {
		case "sector":
			kinds = []models.RecommendationKind{models.KindSector}
		case "risk":
			kinds = []models.RecommendationKind{models.KindRisk}
		case "both", "":
			kinds = []models.RecommendationKind{models.KindSector, models.KindRisk}
		default:
			return fmt.Errorf("unknown --by %q (want sector, risk or both)", by)
		}
		if top <= 0 {
			top = cfg.Recommend.TopN
		}

		ctx := cmd.Context()
		logger := logging.With("recommend")
		holder, s, err := loadSnapshot(ctx, logging.With("store"))
		if err != nil {
			return err
		}
		engine := recommend.NewEngine(holder, cfg.Recommend.TopN, logger)

		user := utils.NormalizeUserID(args[0])
		view, _ := s.Portfolio(user)
		view.UserID = user
		in := report.Input{Portfolio: view}

		for _, kind := range kinds {
			list, err := engine.Recommend(ctx, user, kind, top)
			note := ""
			switch {
			case errors.Is(err, recommend.ErrNoHoldings):
				note = fmt.Sprintf("User %s has no holdings.", user)
			case errors.Is(err, recommend.ErrUserNotFound):
				note = fmt.Sprintf("User %s is not in the risk similarity table.", user)
			case err != nil:
				return err
			}
			if kind == models.KindSector {
				in.SectorNote = note
				if note == "" {
					in.Sector = &list
				}
			} else {
				in.RiskNote = note
				if note == "" {
					in.Risk = &list
				}
			}
		}

		if withNews {
			client := datasource.NewClient(cfg.Fetch, logging.With("datasource"))
			in.Headlines, err = client.HeadlinesFor(ctx, recommendedSymbols(in), cfg.Recommend.NewsPerStock)
			if err != nil {
				logger.Warn().Err(err).Msg("headlines unavailable")
			}
		}

		var rendered []byte
		switch format {
		case report.FormatJSON:
			rendered, err = json.MarshalIndent(jsonReport{
				Portfolio:  in.Portfolio,
				Sector:     in.Sector,
				SectorNote: in.SectorNote,
				Risk:       in.Risk,
				RiskNote:   in.RiskNote,
				Headlines:  in.Headlines,
			}, "", "  ")
			rendered = append(rendered, '\n')
		case report.FormatHTML:
			var html string
			html, err = report.GenerateHTML(in, report.Config{})
			rendered = []byte(html)
		default:
			var text string
			text, err = report.GenerateText(in, report.Config{})
			rendered = []byte(text)
		}
		if err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}

		if out == "" {
			_, err = os.Stdout.Write(rendered)
			return err
		}
		if err := os.WriteFile(out, rendered, 0o644); err != nil {
			return err
		}
		fmt.Printf("📄 Report written to %s\n", out)
		return nil
	},
}

type jsonReport struct {
	Portfolio  models.PortfolioView         `json:"portfolio"`
	Sector     *models.RecommendationList   `json:"sector,omitempty"`
	SectorNote string                       `json:"sector_note,omitempty"`
	Risk       *models.RecommendationList   `json:"risk,omitempty"`
	RiskNote   string                       `json:"risk_note,omitempty"`
	Headlines  map[string][]models.Headline `json:"headlines,omitempty"`
}

func init() {
	recommendCmd.Flags().String("by", "both", "recommender: sector, risk or both")
	recommendCmd.Flags().Int("top", 0, "number of recommendations (default: recommend.top_n)")
	recommendCmd.Flags().String("format", "text", "output format: text, html or json")
	recommendCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	recommendCmd.Flags().Bool("news", false, "include recent headlines for each recommendation")
}

// recommendedSymbols lists every recommended symbol once, in report order.
func recommendedSymbols(in report.Input) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range []*models.RecommendationList{in.Sector, in.Risk} {
		if list == nil {
			continue
		}
		for _, it := range list.Items {
			if _, ok := seen[it.Symbol]; ok {
				continue
			}
			seen[it.Symbol] = struct{}{}
			out = append(out, it.Symbol)
		}
	}
	return out
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [symbol]",
	Short: "Show recent headlines for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.Recommend.NewsPerStock
		}
		symbol := utils.NormalizeSymbol(args[0])

		client := datasource.NewClient(cfg.Fetch, logging.With("datasource"))
		headlines, err := client.Headlines(cmd.Context(), symbol, limit)
		if err != nil {
			return err
		}
		if len(headlines) == 0 {
			fmt.Printf("No headlines for %s\n", symbol)
			return nil
		}

		summary := sentiment.Aggregate(symbol, headlines, time.Now())
		fmt.Printf("📰 %s — %s (%+.2f)\n\n", symbol, summary.Label, summary.Score)
		for _, h := range headlines {
			when := ""
			if !h.PublishedAt.IsZero() {
				when = utils.FormatDateTimeET(h.PublishedAt)
			}
			fmt.Printf("  • %s [%s]\n    %s  %s\n", h.Title, h.SentimentLabel, when, h.Link)
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 0, "number of headlines (default: recommend.news_per_stock)")
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download reference data",
}

var fetchConstituentsCmd = &cobra.Command{
	Use:   "constituents",
	Short: "Download the S&P 500 constituents table as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		client := datasource.NewClient(cfg.Fetch, logging.With("datasource"))
		refs, err := client.Constituents(cmd.Context())
		if err != nil {
			return err
		}

		if out == "" {
			return store.WriteConstituents(os.Stdout, refs)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := store.WriteConstituents(f, refs); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "✅ Wrote %d constituents to %s\n", len(refs), out)
		return nil
	},
}

func init() {
	fetchConstituentsCmd.Flags().StringP("output", "o", "", "output CSV file (default: stdout)")
	fetchCmd.AddCommand(fetchConstituentsCmd)
}

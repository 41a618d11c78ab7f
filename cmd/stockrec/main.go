// stockrec recommends stocks to a user from the holdings of similar users.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/stockrec/internal/config"
	"github.com/seenimoa/stockrec/internal/logging"
	"github.com/seenimoa/stockrec/internal/search"
	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stockrec",
	Short: "stockrec — peer-similarity stock recommendations",
	Long: `stockrec recommends stocks to a user based on what similar users hold.

Two recommenders are available: by sector (users with a similar sector
profile, restricted to the user's top sector) and by risk (users with a
similar risk profile, weighted by their holding size).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
			cfg.Data.Dir = dir
		}
		level := cfg.Logging.Level
		if l, _ := cmd.Flags().GetString("log-level"); l != "" {
			level = l
		}
		logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory override")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadSnapshot reads the configured tables into a holder.
func loadSnapshot(ctx context.Context, logger zerolog.Logger) (*store.Holder, *store.Snapshot, error) {
	holder := store.NewHolder(store.PathsFromConfig(cfg.Data), logger)
	s, err := holder.Reload(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading data from %s: %w", cfg.Data.Dir, err)
	}
	return holder, s, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stockrec %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show data files, snapshot size and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  stockrec — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		now := utils.NowET()
		fmt.Printf("  Market Status: %s\n", utils.MarketStatusAt(now))
		fmt.Printf("  Trading Day:   %v\n", utils.IsTradingDay(now))
		fmt.Printf("  Market Open:   %v\n", utils.IsMarketOpenAt(now))
		fmt.Printf("  Time (ET):     %s\n", utils.FormatDateTimeET(now))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Data Dir:      %s\n", cfg.Data.Dir)
		fmt.Printf("    Top N:         %d\n", cfg.Recommend.TopN)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Printf("    Hot Reload:    %v\n", cfg.Data.Watch)
		fmt.Println()

		fmt.Println("  Data Files:")
		ready := true
		for _, f := range config.CheckDataFiles(cfg) {
			status := "❌ missing"
			if f.Exists {
				status = fmt.Sprintf("✅ %d bytes", f.Size)
			} else {
				ready = false
			}
			fmt.Printf("    %-20s %s (%s)\n", f.Name+":", status, f.Path)
		}

		if ready {
			_, s, err := loadSnapshot(cmd.Context(), logging.With("store"))
			fmt.Println()
			fmt.Println("  Snapshot:")
			if err != nil {
				fmt.Printf("    ❌ %v\n", err)
			} else {
				st := s.Stats()
				fmt.Printf("    Users:         %d\n", st.Users)
				fmt.Printf("    Holdings:      %d\n", st.Holdings)
				fmt.Printf("    Stocks:        %d\n", st.Stocks)
				fmt.Printf("    Sector matrix: %d users\n", st.SectorMatrix)
				fmt.Printf("    Risk matrix:   %d users\n", st.RiskMatrix)
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Users Command ---

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with holdings",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := loadSnapshot(cmd.Context(), logging.With("store"))
		if err != nil {
			return err
		}
		for _, u := range s.Users() {
			fmt.Println(u)
		}
		return nil
	},
}

// --- Portfolio Command ---

var portfolioCmd = &cobra.Command{
	Use:   "portfolio [user]",
	Short: "Show a user's holdings and sector allocation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := loadSnapshot(cmd.Context(), logging.With("store"))
		if err != nil {
			return err
		}
		view, ok := s.Portfolio(args[0])
		if !ok {
			return fmt.Errorf("no holdings for user %s", utils.NormalizeUserID(args[0]))
		}

		fmt.Printf("Portfolio: %s\n\n", view.UserID)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tSECTOR\tWEIGHT")
		for _, h := range view.Holdings {
			fmt.Fprintf(w, "%s\t%s\t%.2f\n", h.Symbol, h.Sector, h.Weight)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "SECTOR\tWEIGHT\t")
		for _, a := range view.Allocation {
			fmt.Fprintf(w, "%s\t%.2f\t\n", a.Sector, a.Weight)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nTop sector: %s\n", view.TopSector)
		return nil
	},
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the reference table by symbol, name or sector",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := loadSnapshot(cmd.Context(), logging.With("store"))
		if err != nil {
			return err
		}
		idx, err := search.Build(s.References())
		if err != nil {
			return err
		}
		defer idx.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		q := strings.Join(args, " ")
		hits, err := idx.Search(q, limit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Printf("No matches for %q\n", q)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tSECURITY\tSECTOR\tSCORE")
		for _, h := range hits {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\n", h.Symbol, h.Security, h.Sector, h.Score)
		}
		return w.Flush()
	},
}

func init() {
	searchCmd.Flags().Int("limit", search.DefaultLimit, "maximum number of results")
}

// Command correlate runs correlation analyses, scans, backtests and maintenance tasks from the shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ZyrticX/DELTA-MIX/internal/platform/config"
	infradb "github.com/ZyrticX/DELTA-MIX/internal/platform/db"
)

var (
	configDir string
	verbose   bool

	// cfg is loaded once in PersistentPreRunE.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Historical correlation-pattern analysis",
	Long: `correlate finds past dates whose cross-market correlation fingerprint resembles
today's and summarises what the target did next.

Examples:
  correlate analyze --symbol AAPL
  correlate scan --min-confidence 60 --direction up
  correlate backtest --start 2023-01-01 --end 2023-12-31 --step 5 --symbols AAPL,MSFT`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var paths []string
		if configDir != "" {
			paths = []string{configDir}
		}
		loaded, err := config.Load(paths...)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory containing config.yaml (default ./configs and .)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level to stderr")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	db, err := infradb.OpenDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

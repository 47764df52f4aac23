package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	symbollistadapters "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/adapters"
	"github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/domain/entity"
	symbollistusecase "github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/usecase"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Manage the symbol catalog",
}

var symbolsImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Upsert symbols from a CSV file (- for stdin)",
	Long: `Reads a CSV with a header row. Recognised columns: code (required), name, market,
sector, sort_key. Imported symbols are active; sort_key defaults to the row order.

Example:
  correlate symbols import universe.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbolsImport,
}

var symbolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the active symbols",
	RunE:  runSymbolsList,
}

func init() {
	rootCmd.AddCommand(symbolsCmd)
	symbolsCmd.AddCommand(symbolsImportCmd, symbolsListCmd)
}

func runSymbolsImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	symbols, err := parseSymbolsCSV(r)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	uc := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db))
	n, err := uc.ImportSymbols(cmd.Context(), symbols)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d symbols\n", n)
	return nil
}

func runSymbolsList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	symbols, err := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db)).ListActiveSymbols(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range symbols {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", s.Code, s.Name, s.Market, s.Sector)
	}
	return nil
}

// parseSymbolsCSV reads symbols from CSV with a header row. Column order is free.
func parseSymbolsCSV(r io.Reader) ([]entity.Symbol, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["code"]; !ok {
		return nil, errors.New(`csv header must contain a "code" column`)
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []entity.Symbol
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		s := entity.Symbol{
			Code:   field(rec, "code"),
			Name:   field(rec, "name"),
			Market: field(rec, "market"),
			Sector: field(rec, "sector"),
		}
		if v := field(rec, "sort_key"); v != "" {
			if s.SortKey, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("line %d: sort_key %q is not an integer", line, v)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

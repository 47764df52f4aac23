// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"fmt"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for symbol (stock ticker) data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	UpsertBatch(ctx context.Context, symbols []entity.Symbol) error
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active symbols from the repository.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// ListActiveCodes returns the codes of all active symbols.
// It makes SymbolUsecase usable as the stock catalog of the correlation engine.
func (u *SymbolUsecase) ListActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// ImportSymbols normalizes and upserts symbols as active. Duplicate codes keep the last row.
// Rows without a sort key are numbered after their position in the input.
func (u *SymbolUsecase) ImportSymbols(ctx context.Context, symbols []entity.Symbol) (int, error) {
	index := make(map[string]int, len(symbols))
	out := make([]entity.Symbol, 0, len(symbols))
	for i, s := range symbols {
		if err := s.Normalize(); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		s.IsActive = true
		if s.SortKey == 0 {
			s.SortKey = i + 1
		}
		if j, ok := index[s.Code]; ok {
			out[j] = s
			continue
		}
		index[s.Code] = len(out)
		out = append(out, s)
	}
	if err := u.repo.UpsertBatch(ctx, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

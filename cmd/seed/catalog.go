package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/domain"
)

// catalogEntry is one product in the import file.
type catalogEntry struct {
	ID uuid.UUID `json:"id"`
	domain.ProductInput
}

type importResult struct {
	Imported int
	Skipped  int
}

// decodeCatalog reads a JSON array of catalog entries.
func decodeCatalog(r io.Reader) ([]catalogEntry, error) {
	var entries []catalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return entries, nil
}

// validateCatalog logs every invalid entry and returns how many there were.
func validateCatalog(ctx context.Context, entries []catalogEntry) int {
	logger := zerolog.Ctx(ctx)
	invalid := 0
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			invalid++
			logger.Warn().Int("index", i).Str("name", e.Name).Msg(domain.ErrorMessage(err))
		}
	}
	return invalid
}

// importCatalog upserts each entry. Invalid entries are logged and skipped so
// one bad row does not abort the import.
func importCatalog(ctx context.Context, products domain.ProductService, entries []catalogEntry) importResult {
	logger := zerolog.Ctx(ctx)
	var result importResult
	for i, e := range entries {
		if _, err := products.UpsertProduct(ctx, domain.SystemActor(), e.ID, e.ProductInput); err != nil {
			result.Skipped++
			logger.Warn().Err(err).Int("index", i).Str("name", e.Name).Msg("skipped catalog entry")
			continue
		}
		result.Imported++
	}
	return result
}

// Command seed imports a JSON product catalog into the store.
//
//	seed -f products.json
//
// Each entry is {"id", "sellerId", "name", "price", "stock"}. Stock may be a
// number or {"quantity": n}. Entries without an id get a new one.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/dukerupert/greencart/internal"
	"github.com/dukerupert/greencart/internal/postgres"
	"github.com/dukerupert/greencart/internal/service"
)

func run() error {
	file := flag.StringP("file", "f", "products.json", "path to the product catalog")
	dryRun := flag.Bool("dry-run", false, "validate the file without writing")
	flag.Parse()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)
	ctx := logger.WithContext(context.Background())

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	catalog, err := decodeCatalog(f)
	if err != nil {
		return err
	}
	logger.Info().Int("count", len(catalog)).Str("file", *file).Msg("Catalog loaded")

	if *dryRun {
		invalid := validateCatalog(ctx, catalog)
		logger.Info().Int("invalid", invalid).Msg("Dry run complete")
		return nil
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
	if err != nil {
		return err
	}
	defer pool.Close()

	result := importCatalog(ctx, service.NewProductService(postgres.NewStore(pool), 0), catalog)
	logger.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("Catalog import complete")

	if result.Imported == 0 && len(catalog) > 0 {
		return fmt.Errorf("no products imported")
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

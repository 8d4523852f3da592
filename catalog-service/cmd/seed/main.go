package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/bootstrap"
	"github.com/arunvm123/showcatalog/catalog-service/config"
	"github.com/arunvm123/showcatalog/catalog-service/model"
)

//go:embed shows.json
var showsJSON []byte

func loadShows() ([]model.ProductInput, error) {
	var shows []model.ProductInput
	if err := json.Unmarshal(showsJSON, &shows); err != nil {
		return nil, fmt.Errorf("failed to decode seed data: %w", err)
	}
	for i := range shows {
		shows[i] = shows[i].Normalize()
		if err := shows[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed show %q: %w", shows[i].Title, err)
		}
	}
	return shows, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("seed", flag.ContinueOnError)
	configPath := flags.String("config", "config.yaml", "path to the catalog service config file")
	dryRun := flags.Bool("dry-run", false, "validate the seed data without writing it")
	if err := flags.Parse(args); err != nil {
		return err
	}

	shows, err := loadShows()
	if err != nil {
		return err
	}
	if *dryRun {
		fmt.Fprintf(stdout, "%d shows are valid\n", len(shows))
		return nil
	}

	cfg, err := config.Initialise(*configPath, false)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := bootstrap.NewLogger(cfg.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to assemble catalog service: %w", err)
	}
	defer app.Close()

	seeded := 0
	for _, show := range shows {
		product, err := app.Service.Create(ctx, show)
		if err != nil {
			logger.Error("failed to seed show", "title", show.Title, "error", err)
			continue
		}
		seeded++
		logger.Info("seeded show", "id", product.ID, "title", product.Title)
	}

	logger.Info("seed finished", "seeded", seeded, "total", len(shows))
	if seeded != len(shows) {
		return fmt.Errorf("seeded %d of %d shows", seeded, len(shows))
	}
	return nil
}

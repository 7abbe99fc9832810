// Command chartwatch renders the comparison chart to a file, runs a one-shot
// statistics refresh, or opens the terminal shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ewilliams-labs/chartwatch/internal/adapters/csvstore"
	"github.com/ewilliams-labs/chartwatch/internal/adapters/echarts"
	"github.com/ewilliams-labs/chartwatch/internal/adapters/sqlite"
	"github.com/ewilliams-labs/chartwatch/internal/adapters/youtube"
	"github.com/ewilliams-labs/chartwatch/internal/config"
	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/ports"
	"github.com/ewilliams-labs/chartwatch/internal/core/services"
	"github.com/ewilliams-labs/chartwatch/internal/tui"
)

func main() {
	var (
		configPath = flag.String("config", config.Path(), "config file path")
		outPath    = flag.String("out", "", "write the chart to this file (overrides chart.output_path)")
		doRefresh  = flag.Bool("refresh", false, "refresh YouTube statistics before rendering")
		runTUI     = flag.Bool("tui", false, "open the interactive terminal shell")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	catalog := csvstore.NewCatalog(cfg.CatalogPath)

	var store ports.ObservationStore
	switch cfg.Stats.Driver {
	case "sqlite":
		sqliteStore, err := sqlite.NewStore(cfg.Stats.Path)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize database: %v", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	case "csv":
		store = csvstore.NewObservationLog(cfg.Stats.Path)
	default:
		log.Fatalf("Unknown stats driver: %s", cfg.Stats.Driver)
	}

	httpClient := youtube.NewHTTPClient(
		context.Background(),
		cfg.YouTube.AccessToken,
		time.Duration(cfg.YouTube.TimeoutSecs)*time.Second,
	)
	stats := youtube.NewClient(httpClient, "", cfg.YouTube.APIKey,
		time.Duration(cfg.YouTube.CacheTTLSecs)*time.Second)

	library := services.NewLibrary(catalog, store, services.ViewsSource(cfg.Pipeline.ViewsSource))
	refresher := services.NewRefresher(stats, store)
	pipeline := pipelineOptions(cfg)

	if *runTUI {
		shell := tui.New(library, refresher, pipeline, cfg.Chart.Title)
		if _, err := tea.NewProgram(shell, tea.WithAltScreen()).Run(); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		return
	}

	ctx := context.Background()

	if *doRefresh {
		songs, err := library.Songs(ctx)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		summary := refresher.Run(ctx, songs, func(done, total int, song domain.Song, err error) {
			fmt.Printf("\r[%d/%d] %s", done, total, song.Title)
		})
		fmt.Println()
		log.Printf("refresh: %d updated, %d skipped of %d", summary.Updated, summary.Skipped, summary.Total)
	}

	songs, err := library.Songs(ctx)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	derived, err := services.Derive(songs, pipeline)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	path := *outPath
	if path == "" {
		path = cfg.Chart.OutputPath
	}
	if path == "" {
		path = "chart.html"
	}
	if err := echarts.RenderToFile(derived, chartOptions(cfg), path); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	log.Printf("chart written to %s (%d records)", path, len(derived))
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("WARN: config file %s not found, using defaults", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

func pipelineOptions(cfg *config.Config) services.PipelineConfig {
	return services.PipelineConfig{
		CohortYear:     cfg.Pipeline.CohortYear,
		Policy:         services.ReferencePolicy(cfg.Pipeline.Policy),
		ReferenceTitle: cfg.Pipeline.ReferenceTitle,
	}
}

func chartOptions(cfg *config.Config) echarts.Options {
	return echarts.Options{
		Title:              cfg.Chart.Title,
		ViewsSeriesName:    cfg.Chart.ViewsSeriesName,
		VotesSeriesName:    cfg.Chart.VotesSeriesName,
		AnnotateThreshold:  cfg.Chart.AnnotateThreshold,
		MagnitudeThreshold: cfg.Chart.MagnitudeThreshold,
		ViewsBarColor:      cfg.Chart.Palette.ViewsBar,
		VotesBarColor:      cfg.Chart.Palette.VotesBar,
		PositiveBright:     cfg.Chart.Palette.PositiveBright,
		PositiveDark:       cfg.Chart.Palette.PositiveDark,
		NegativeBright:     cfg.Chart.Palette.NegativeBright,
		NegativeDark:       cfg.Chart.Palette.NegativeDark,
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ewilliams-labs/chartwatch/internal/adapters/csvstore"
	"github.com/ewilliams-labs/chartwatch/internal/adapters/echarts"
	"github.com/ewilliams-labs/chartwatch/internal/adapters/rest"
	"github.com/ewilliams-labs/chartwatch/internal/adapters/sqlite"
	"github.com/ewilliams-labs/chartwatch/internal/adapters/youtube"
	"github.com/ewilliams-labs/chartwatch/internal/config"
	"github.com/ewilliams-labs/chartwatch/internal/core/ports"
	"github.com/ewilliams-labs/chartwatch/internal/core/services"
)

func main() {
	// 1. Configuration
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// 2. Initialize "Driven" Adapters
	// -- Storage
	catalog := csvstore.NewCatalog(cfg.CatalogPath)

	var store ports.ObservationStore
	var storeCloser func() error

	switch cfg.Stats.Driver {
	case "sqlite":
		sqliteStore, err := sqlite.NewStore(cfg.Stats.Path)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize database: %v", err)
		}
		store = sqliteStore
		storeCloser = sqliteStore.Close
	case "csv":
		store = csvstore.NewObservationLog(cfg.Stats.Path)
		storeCloser = func() error { return nil }
	default:
		log.Fatalf("Unknown stats driver: %s", cfg.Stats.Driver)
	}
	defer storeCloser()

	// -- YouTube Adapter
	httpClient := youtube.NewHTTPClient(
		context.Background(),
		cfg.YouTube.AccessToken,
		time.Duration(cfg.YouTube.TimeoutSecs)*time.Second,
	)
	stats := youtube.NewClient(httpClient, "", cfg.YouTube.APIKey,
		time.Duration(cfg.YouTube.CacheTTLSecs)*time.Second)

	// 3. Initialize Core Logic
	library := services.NewLibrary(catalog, store, services.ViewsSource(cfg.Pipeline.ViewsSource))
	refresher := services.NewRefresher(stats, store)

	// 4. Initialize "Driving" Adapter
	handler := rest.NewHandler(library, refresher, pipelineOptions(cfg), chartOptions(cfg))

	// Optional scheduled refresh
	if cfg.Server.RefreshTime != "" {
		scheduler, err := scheduleRefresh(cfg, library, refresher)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		defer scheduler.Stop()
	}

	// 5. Start the Server
	log.Println("------------------------------------------------")
	log.Printf("📊 chartwatch dashboard is running on http://localhost%s", cfg.Server.ListenAddr)
	log.Println("------------------------------------------------")

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}

func loadConfig() (*config.Config, error) {
	path := config.Path()
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

// scheduleRefresh registers the optional daily refresh job.
func scheduleRefresh(cfg *config.Config, library *services.Library, refresher *services.Refresher) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Server.Timezone, err)
	}

	parts := strings.SplitN(cfg.Server.RefreshTime, ":", 2)
	spec := fmt.Sprintf("%s %s * * *", parts[1], parts[0])

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() {
		songs, err := library.Songs(context.Background())
		if err != nil {
			log.Printf("WARN scheduled refresh: %v", err)
			return
		}
		summary := refresher.Run(context.Background(), songs, nil)
		log.Printf("scheduled refresh: %d updated, %d skipped of %d",
			summary.Updated, summary.Skipped, summary.Total)
	}); err != nil {
		return nil, fmt.Errorf("schedule refresh: %w", err)
	}

	c.Start()
	log.Printf("scheduled daily refresh at %s (%s)", cfg.Server.RefreshTime, cfg.Server.Timezone)
	return c, nil
}

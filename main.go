package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"trainboard/internal/api"
	"trainboard/internal/config"
	"trainboard/internal/feeds"
	"trainboard/internal/stations"
)

func main() {
	if os.Getenv("LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	if os.Getenv("DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	dir, err := stations.LoadDirectory("data/stations.csv")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load station table")
	}

	station, err := pickStation(cfg, dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve target station")
	}
	log.Info().Str("id", station.ID).Str("name", station.Name).Strs("lines", station.Lines).Msg("Watching station")

	cache := feeds.NewSnapshotCache()
	broadcast := make(chan struct{}, 1)

	client := feeds.NewClient(cfg.Polling.FetchTimeout, cfg.Polling.APIKey)
	projector := feeds.NewProjector(dir)
	scheduler, err := feeds.NewScheduler(cfg, client, projector, cache, station, broadcast)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build refresh scheduler")
	}

	hub := api.NewSSEHub(cache, broadcast)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go hub.Run()
	go scheduler.Run(ctx)

	server := api.NewServer(cfg.Server.Port, hub, dir, station, cache)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

// pickStation validates an explicit station id, or falls back to the nearest
// station to the configured coordinates. An id missing from the table is
// fatal: showing countdowns for a guessed station would be silently wrong.
func pickStation(cfg *config.Config, dir *stations.Directory) (stations.Station, error) {
	if cfg.Station.ID != "" {
		station, ok := dir.Lookup(cfg.Station.ID)
		if !ok {
			return stations.Station{}, &unknownStationError{id: cfg.Station.ID}
		}
		return station, nil
	}
	return dir.Nearest(cfg.Station.Latitude, cfg.Station.Longitude)
}

type unknownStationError struct {
	id string
}

func (e *unknownStationError) Error() string {
	return "station id " + e.id + " not present in station table"
}

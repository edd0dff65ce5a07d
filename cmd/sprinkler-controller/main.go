package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oebus/sprinkler-controller/internal/api"
	"github.com/oebus/sprinkler-controller/internal/buttons"
	"github.com/oebus/sprinkler-controller/internal/config"
	"github.com/oebus/sprinkler-controller/internal/controller"
	"github.com/oebus/sprinkler-controller/internal/datadog"
	"github.com/oebus/sprinkler-controller/internal/journal"
	"github.com/oebus/sprinkler-controller/internal/logging"
	"github.com/oebus/sprinkler-controller/internal/opensprinkler"
	"github.com/oebus/sprinkler-controller/internal/poller"
	"github.com/oebus/sprinkler-controller/internal/session"
	"github.com/oebus/sprinkler-controller/internal/station"
	"github.com/oebus/sprinkler-controller/internal/status"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("host", cfg.OpenSprinkler.Host).
		Int("port", cfg.OpenSprinkler.Port).
		Int("buttons", len(cfg.Buttons)).
		Msg("Starting sprinkler controller")

	datadog.InitMetrics(cfg.DDAgentAddr, cfg.DDNamespace, cfg.DDTags, cfg.EnableDatadog)

	client := opensprinkler.New(cfg.OpenSprinkler.Host, cfg.OpenSprinkler.Port, cfg.OpenSprinkler.Password)

	registry := station.Build(client)
	if registry.Len() == 0 {
		log.Warn().Msg("No stations available; reload via the API once the device is reachable")
	}

	tracker := session.NewTracker()

	var recorder controller.Recorder
	jrnl, err := journal.Open(cfg.JournalFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.JournalFile).Msg("Toggle journal disabled")
	} else {
		recorder = jrnl
		defer jrnl.Close()
	}

	coordinator := controller.New(registry, tracker, client, recorder)

	table := cfg.ButtonTable()
	for pin, displayIndex := range table {
		if displayIndex >= registry.Len() {
			log.Error().
				Int("gpio", pin).
				Int("station", displayIndex).
				Msg("Button maps to a station outside the loaded registry")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	window := time.Duration(cfg.DebounceMillis) * time.Millisecond
	defaultDuration := time.Duration(cfg.DefaultDurationSeconds) * time.Second
	debouncer := buttons.NewDebouncer(table, window, defaultDuration, coordinator)

	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED — GPIO buttons are disabled system-wide")
	} else {
		pins := make([]int, 0, len(table))
		for pin := range table {
			pins = append(pins, pin)
		}
		source, err := buttons.NewGPIOSource(cfg.GPIOChip, pins, window)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up GPIO buttons")
		}
		defer source.Close()
		go debouncer.Run(ctx, source.Events())
	}

	refreshInterval := time.Duration(cfg.RefreshIntervalSeconds) * time.Second
	go poller.New(client, registry, tracker, refreshInterval).Run(ctx)

	if cfg.APIPort != 0 {
		reporter := status.NewReporter(registry, tracker)
		server := api.NewServer(reporter, coordinator, registry, client, jrnl, defaultDuration)
		go func() {
			if err := server.Start(cfg.APIPort); err != nil {
				log.Fatal().Err(err).Msg("API server failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down sprinkler controller")
}

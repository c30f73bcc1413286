package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/envmon/internal/config"
	"github.com/thatsimonsguy/envmon/internal/logging"
	"github.com/thatsimonsguy/envmon/internal/monitor"
	"github.com/thatsimonsguy/envmon/system/shutdown"
	"github.com/thatsimonsguy/envmon/system/startup"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile, cfg.LogConsole)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("serial_port", cfg.Serial.Port).
		Str("storage", cfg.Storage.Driver).
		Bool("simulate", cfg.Sensors.Simulate).
		Msg("Starting environment monitor")

	sys, err := startup.Build(cfg)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to initialize controller")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(startup.Settings(cfg), sys.Deps(cfg))
	if err := mon.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Monitor loop exited with error")
	}

	sys.Close()
	shutdown.Shutdown(sys.LED, 0)
}

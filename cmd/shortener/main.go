package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/MikhailRaia/shortlinks/internal/app"
	"github.com/MikhailRaia/shortlinks/internal/config"
	"github.com/MikhailRaia/shortlinks/internal/logger"
	"github.com/rs/zerolog/log"
)

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to create heap profile")
		return
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Error().Err(err).Msg("Failed to write heap profile")
	}
}

func main() {
	logger.InitLogger("info")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.InitLogger(cfg.LogLevel)

	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	runErr := application.Run(ctx)

	if cfg.MemProfile != "" {
		writeHeapProfile(cfg.MemProfile)
	}

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Error running application")
	}
}

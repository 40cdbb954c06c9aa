package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/MikhailRaia/secure-shortener/internal/app"
	"github.com/MikhailRaia/secure-shortener/internal/config"
	"github.com/MikhailRaia/secure-shortener/internal/logger"
	"github.com/rs/zerolog/log"
)

var memprofile = flag.String("memprofile", "", "write memory profile to `file` on exit")

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create heap profile")
		return
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Error().Err(err).Msg("Failed to write heap profile")
	}
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := logger.InitLogger(logger.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

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

	if *memprofile != "" {
		writeHeapProfile(*memprofile)
	}

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Error running application")
	}
}

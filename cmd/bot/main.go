// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/headroom/internal/app"
	"github.com/keshon/headroom/internal/config"
	"github.com/keshon/headroom/internal/logging"
	"github.com/keshon/headroom/internal/storage"
	v "github.com/keshon/headroom/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty && !cfg.IsProduction(),
		File:   cfg.LogFile,
		Name:   v.AppName,
	})
	log.Info().Str("version", v.Version).Str("transport", cfg.Transport).Msgf("Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.StoragePath, cfg.HistoryLimit, log)
	if err != nil {
		log.Fatal().Err(err).Msg("storage")
	}
	defer store.Close()

	tr, err := app.NewTransport(cfg, log, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("transport")
	}

	session, err := app.NewSession(cfg, log, store, tr)
	if err != nil {
		log.Fatal().Err(err).Msg("session")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- session.Run(ctx)
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Msgf("Received signal %s, shutting down...", s)
		session.Stop()
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("bot stopped")
		}
		cancel()
	}

	log.Info().Msgf("%s exited cleanly", v.AppName)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/headroom/internal/app"
	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/internal/config"
	"github.com/keshon/headroom/internal/logging"
	"github.com/keshon/headroom/internal/storage"
	v "github.com/keshon/headroom/internal/version"
)

var (
	storagePath string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   v.AppName + "-cli",
	Short: v.AppDescription + " Local tools.",
	Long: `Runs the bot's command set without a chat service: talk to it on the
terminal, list what it understands, or check which command a message
would trigger.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "datastore file (default from STORAGE_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

// env is everything a subcommand needs. Close releases the datastore.
type env struct {
	cfg     *config.Config
	store   *storage.Storage
	session *bot.Session
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// newEnv builds a console session reading in and writing out.
func newEnv(in io.Reader, out io.Writer) (*env, error) {
	cfg, err := config.LoadFor(config.TransportConsole)
	if err != nil {
		return nil, err
	}
	if storagePath != "" {
		cfg.StoragePath = storagePath
	}

	log := zerolog.Nop()
	if verbose {
		log = logging.NewWithWriter(os.Stderr, logging.Options{Level: cfg.LogLevel, Pretty: true, Name: v.AppName})
	}

	store, err := storage.New(context.Background(), cfg.StoragePath, cfg.HistoryLimit, log)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, store: store}

	tr, err := app.NewTransport(cfg, log, in, out)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.session, err = app.NewSession(cfg, log, store, tr)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("build session: %w", err)
	}
	return e, nil
}

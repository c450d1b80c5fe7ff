// Package bot wires a chat transport to a command registry: it owns the bot
// session, dispatches inbound messages to the first matching command, and gives
// commands a per-invocation Context to reply through.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/headroom/pkg/cmd"
	"github.com/keshon/headroom/pkg/jobmgr"
)

const listenJob = "realtime"

// Options configures a Session.
type Options struct {
	Name     string
	Logger   zerolog.Logger
	Poster   Poster
	Listener Listener
	// Directory is optional. When nil and Poster implements Directory, Poster is used.
	Directory Directory
	// Commands are registered after the built-in help command, in order.
	Commands []cmd.Command
	// Middleware is applied to every command, help included.
	Middleware []cmd.Middleware
}

// Session is a single running bot identity.
type Session struct {
	name       string
	log        zerolog.Logger
	registry   *cmd.Registry
	poster     Poster
	listener   Listener
	directory  Directory
	dispatcher *Dispatcher
	jobs       *jobmgr.Manager
	startedAt  time.Time
	shutdown   atomic.Bool
}

// New builds a session and its command registry. The registry is fixed from
// here on.
func New(opts Options) (*Session, error) {
	if opts.Name == "" {
		return nil, errors.New("bot name is required")
	}
	if opts.Poster == nil {
		return nil, errors.New("poster is required")
	}

	cmds := append([]cmd.Command{Help()}, opts.Commands...)
	registry, err := cmd.NewRegistry(cmd.ApplyAll(cmds, opts.Middleware...)...)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	dir := opts.Directory
	if dir == nil {
		dir, _ = opts.Poster.(Directory)
	}

	log := opts.Logger.With().Str("bot", opts.Name).Logger()
	s := &Session{
		name:      opts.Name,
		log:       log,
		registry:  registry,
		poster:    opts.Poster,
		listener:  opts.Listener,
		directory: dir,
		jobs:      jobmgr.NewManager(log),
		startedAt: time.Now().UTC(),
	}
	s.dispatcher = NewDispatcher(s, registry)
	log.Debug().Int("commands", registry.Len()).Msg("commands registered")
	return s, nil
}

// Name returns the bot name.
func (s *Session) Name() string { return s.name }

// Logger returns the session logger.
func (s *Session) Logger() zerolog.Logger { return s.log }

// Commands returns the registered commands in dispatch order.
func (s *Session) Commands() []cmd.Command { return s.registry.Commands() }

// Registry returns the command registry.
func (s *Session) Registry() *cmd.Registry { return s.registry }

// Directory returns the directory, or nil if the transport has none.
func (s *Session) Directory() Directory { return s.directory }

// JobStatus summarises the session's background jobs.
func (s *Session) JobStatus() string { return s.jobs.Status() }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// ShuttingDown reports whether Stop has been called.
func (s *Session) ShuttingDown() bool { return s.shutdown.Load() }

// Say sends msg through the session's poster.
func (s *Session) Say(ctx context.Context, msg Message) error {
	return s.poster.PostMessage(ctx, msg)
}

// Run starts the realtime connection and blocks until ctx is done, Stop is
// called, or the listener fails.
func (s *Session) Run(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("no realtime listener configured")
	}
	if s.ShuttingDown() {
		return nil
	}

	s.log.Info().Msgf("Starting %s ...", s.name)

	done := make(chan error, 1)
	err := s.jobs.StartAsync(ctx, listenJob, func(jobCtx context.Context) error {
		err := s.listener.Listen(jobCtx, s)
		done <- err
		return err
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		s.Stop()
		err = <-done
	case err = <-done:
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("realtime connection: %w", err)
	}
	return nil
}

// Stop requests a graceful shutdown. In-flight commands are not interrupted;
// new events are dropped.
func (s *Session) Stop() {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}
	s.log.Info().Msgf("Shutting down %s ...", s.name)
	if err := s.jobs.Stop(listenJob); err != nil {
		s.log.Debug().Err(err).Msg("listener was not running")
	}
}

// Connected implements Sink.
func (s *Session) Connected(ctx context.Context, id Identity) {
	s.log.Info().
		Str("user_id", id.UserID).
		Str("team_id", id.TeamID).
		Msgf("%s has successfully connected as %s.", s.name, id.Name)
}

// HandleMessage implements Sink. Command errors end here and are logged.
func (s *Session) HandleMessage(ctx context.Context, ev Event) {
	if s.ShuttingDown() {
		s.log.Debug().Str("channel", ev.ChannelID).Msg("shutting down, message dropped")
		return
	}
	if strings.TrimSpace(ev.Text) == "" {
		return
	}

	matched, err := s.dispatcher.Dispatch(ctx, ev)
	if err != nil {
		s.log.Error().Err(err).
			Str("team", ev.TeamID).
			Str("channel", ev.ChannelID).
			Str("user", ev.UserID).
			Msg("command failed")
		return
	}
	if !matched {
		s.log.Trace().Str("channel", ev.ChannelID).Msg("no command matched")
	}
}

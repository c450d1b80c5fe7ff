package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/internal/storage"
	"github.com/keshon/headroom/pkg/cmd"
)

type nopPoster struct{}

func (nopPoster) PostMessage(ctx context.Context, msg bot.Message) error { return nil }

type dirPoster struct{ nopPoster }

func (dirPoster) User(ctx context.Context, id string) (*bot.User, error) {
	return &bot.User{ID: id, Name: "ada"}, nil
}
func (dirPoster) Team(ctx context.Context, id string) (*bot.Team, error) {
	return &bot.Team{ID: id, Name: "acme"}, nil
}
func (dirPoster) Channel(ctx context.Context, id string) (*bot.Channel, error) {
	return &bot.Channel{ID: id, Name: "general"}, nil
}

type memRecorder struct {
	mu      sync.Mutex
	entries map[string][]storage.CommandRecord
	err     error
}

func (m *memRecorder) AppendCommand(teamID string, rec storage.CommandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.entries == nil {
		m.entries = map[string][]storage.CommandRecord{}
	}
	m.entries[teamID] = append(m.entries[teamID], rec)
	return nil
}

func session(t *testing.T, poster bot.Poster, mws []cmd.Middleware, cmds ...cmd.Command) *bot.Session {
	t.Helper()
	s, err := bot.New(bot.Options{Name: "test", Logger: zerolog.Nop(), Poster: poster, Commands: cmds, Middleware: mws})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func counter(name string, n *int, err error) cmd.Command {
	return bot.MustCommand(name, name, "", bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
		*n++
		return err
	}))
}

func msg(team, user, text string) bot.Event {
	return bot.Event{TeamID: team, UserID: user, ChannelID: "C1", Text: text}
}

func TestCommandLoggerRecords(t *testing.T) {
	rec := &memRecorder{}
	runs := 0
	s := session(t, dirPoster{}, []cmd.Middleware{WithCommandLogger(rec)}, counter("ping", &runs, nil))

	s.HandleMessage(context.Background(), msg("T1", "U1", "ping"))

	if runs != 1 {
		t.Fatalf("runs = %d", runs)
	}
	got := rec.entries["T1"]
	if len(got) != 1 {
		t.Fatalf("entries = %+v", rec.entries)
	}
	e := got[0]
	if e.Command != "ping" || e.Text != "ping" || e.UserID != "U1" || e.ChannelID != "C1" {
		t.Errorf("entry = %+v", e)
	}
	if e.ChannelName != "general" || e.TeamName != "acme" || e.Username != "ada" {
		t.Errorf("names not resolved: %+v", e)
	}
}

func TestCommandLoggerKeepsCommandError(t *testing.T) {
	boom := errors.New("boom")
	rec := &memRecorder{err: errors.New("disk full")}
	runs := 0
	wrapped := WithCommandLogger(rec)(counter("fail", &runs, boom))

	s := session(t, nopPoster{}, nil, wrapped)

	// HandleMessage only logs errors, so dispatch directly.
	d := bot.NewDispatcher(s, s.Registry())
	matched, err := d.Dispatch(context.Background(), msg("T1", "U1", "fail"))
	if !matched || !errors.Is(err, boom) {
		t.Errorf("Dispatch = %v, %v", matched, err)
	}
}

func TestCommandLoggerWithoutRecorder(t *testing.T) {
	runs := 0
	s := session(t, nopPoster{}, []cmd.Middleware{WithCommandLogger(nil)}, counter("ping", &runs, nil))
	s.HandleMessage(context.Background(), msg("T1", "U1", "ping"))
	if runs != 1 {
		t.Errorf("runs = %d", runs)
	}
}

func TestTeamOnly(t *testing.T) {
	runs := 0
	s := session(t, nopPoster{}, []cmd.Middleware{WithTeamOnly()}, counter("history", &runs, nil))
	s.HandleMessage(context.Background(), msg("", "U1", "history"))
	if runs != 0 {
		t.Errorf("ran without team")
	}
	s.HandleMessage(context.Background(), msg("T1", "U1", "history"))
	if runs != 1 {
		t.Errorf("runs = %d", runs)
	}
}

func TestOnly(t *testing.T) {
	a, b := 0, 0
	s := session(t, nopPoster{}, []cmd.Middleware{Only(WithTeamOnly(), "a")},
		counter("a", &a, nil), counter("b", &b, nil))
	s.HandleMessage(context.Background(), msg("", "U1", "a"))
	s.HandleMessage(context.Background(), msg("", "U1", "b"))
	if a != 0 || b != 1 {
		t.Errorf("a = %d, b = %d", a, b)
	}
}

func TestCooldown(t *testing.T) {
	runs := 0
	cd := NewCooldown(time.Hour, 2)
	s := session(t, nopPoster{}, []cmd.Middleware{cd.Middleware()}, counter("ping", &runs, nil))

	for i := 0; i < 3; i++ {
		s.HandleMessage(context.Background(), msg("T1", "U1", "ping"))
	}
	if runs != 2 {
		t.Errorf("U1 runs = %d, want 2", runs)
	}
	s.HandleMessage(context.Background(), msg("T1", "U2", "ping"))
	if runs != 3 {
		t.Errorf("U2 should have its own bucket, runs = %d", runs)
	}
}

func TestCooldownDropsRefilledBuckets(t *testing.T) {
	cd := NewCooldown(time.Minute, 2)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := t0
	cd.now = func() time.Time { return clock }

	cd.Allow("U1")
	cd.Allow("U1")

	clock = t0.Add(time.Minute)
	cd.Allow("U2")
	cd.Allow("U2")

	clock = t0.Add(2 * time.Minute)
	if !cd.Allow("U3") {
		t.Fatal("U3 denied")
	}
	if _, ok := cd.users["U1"]; ok {
		t.Error("refilled bucket for U1 kept")
	}
	if len(cd.users) != 2 {
		t.Errorf("buckets = %d, want 2 (U2, U3)", len(cd.users))
	}
	if !cd.Allow("U2") || cd.Allow("U2") {
		t.Error("U2 bucket lost its state")
	}
}

func TestCooldownManyUsersBounded(t *testing.T) {
	cd := NewCooldown(time.Second, 1)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cd.now = func() time.Time { return clock }

	for i := 0; i < 1000; i++ {
		cd.Allow(fmt.Sprintf("U%d", i))
		clock = clock.Add(time.Second)
	}
	if n := len(cd.users); n > 2 {
		t.Errorf("buckets = %d after idle users", n)
	}
}

func TestMiddlewareWithoutBotContext(t *testing.T) {
	runs := 0
	c := counter("x", &runs, nil)
	wrapped := NewCooldown(time.Hour, 1).Middleware()(c)
	err := wrapped.Run(context.Background(), &cmd.Invocation{})
	if !errors.Is(err, bot.ErrNoContext) {
		t.Errorf("err = %v", err)
	}
}

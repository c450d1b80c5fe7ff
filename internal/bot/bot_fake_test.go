package bot

import (
	"context"
	"errors"
	"sync"
)

// fakePoster records every outbound message.
type fakePoster struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakePoster) PostMessage(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakePoster) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeDirectoryPoster is a poster that also resolves ids.
type fakeDirectoryPoster struct {
	fakePoster
	users    map[string]*User
	teams    map[string]*Team
	channels map[string]*Channel
}

var errNotFound = errors.New("not found")

func (f *fakeDirectoryPoster) User(ctx context.Context, id string) (*User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errNotFound
}

func (f *fakeDirectoryPoster) Team(ctx context.Context, id string) (*Team, error) {
	if t, ok := f.teams[id]; ok {
		return t, nil
	}
	return nil, errNotFound
}

func (f *fakeDirectoryPoster) Channel(ctx context.Context, id string) (*Channel, error) {
	if c, ok := f.channels[id]; ok {
		return c, nil
	}
	return nil, errNotFound
}

// fakeListener replays events and then blocks until cancelled.
type fakeListener struct {
	id     Identity
	events []Event
	served chan struct{}
}

func (f *fakeListener) Listen(ctx context.Context, sink Sink) error {
	sink.Connected(ctx, f.id)
	for _, ev := range f.events {
		sink.HandleMessage(ctx, ev)
	}
	if f.served != nil {
		close(f.served)
	}
	<-ctx.Done()
	return ctx.Err()
}

// failingListener returns immediately with an error.
type failingListener struct{ err error }

func (f failingListener) Listen(ctx context.Context, sink Sink) error { return f.err }

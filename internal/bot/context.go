package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keshon/headroom/pkg/pattern"
)

var (
	// ErrNoDirectory is returned by lookups when the transport has no directory.
	ErrNoDirectory = errors.New("no directory available")
	// ErrWrongChannelKind is returned by IM and Group for channels of another kind.
	ErrWrongChannelKind = errors.New("channel is of a different kind")
)

// Context is one command invocation: the session, the triggering event and the
// parameters extracted by the command's pattern. It lives for a single
// Execute call.
type Context struct {
	session *Session
	event   Event
	params  pattern.Params
}

func newContext(s *Session, ev Event, params pattern.Params) *Context {
	if params == nil {
		params = pattern.Params{}
	}
	return &Context{session: s, event: ev, params: params}
}

func (c *Context) Session() *Session      { return c.session }
func (c *Context) Event() Event           { return c.event }
func (c *Context) Text() string           { return c.event.Text }
func (c *Context) UserID() string         { return c.event.UserID }
func (c *Context) TeamID() string         { return c.event.TeamID }
func (c *Context) ChannelID() string      { return c.event.ChannelID }
func (c *Context) Params() pattern.Params { return c.params }

// Param returns a single extracted parameter, or "" if absent.
func (c *Context) Param(name string) string { return c.params[name] }

// Logger returns the session logger annotated with the event origin.
func (c *Context) Logger() zerolog.Logger {
	return c.session.log.With().
		Str("team", c.event.TeamID).
		Str("channel", c.event.ChannelID).
		Str("user", c.event.UserID).
		Logger()
}

// Say posts msg, defaulting its channel to the one the event came from.
func (c *Context) Say(ctx context.Context, msg Message) error {
	if msg.Channel == "" {
		msg.Channel = c.event.ChannelID
	}
	return c.session.Say(ctx, msg)
}

// Reply is Say with plain text.
func (c *Context) Reply(ctx context.Context, text string) error {
	return c.Say(ctx, Message{Text: text})
}

// User looks up the sender.
func (c *Context) User(ctx context.Context) (*User, error) {
	dir, err := c.dir()
	if err != nil {
		return nil, err
	}
	return dir.User(ctx, c.event.UserID)
}

// Team looks up the team the event came from.
func (c *Context) Team(ctx context.Context) (*Team, error) {
	dir, err := c.dir()
	if err != nil {
		return nil, err
	}
	return dir.Team(ctx, c.event.TeamID)
}

// Channel looks up the channel the event came from, whatever its kind.
func (c *Context) Channel(ctx context.Context) (*Channel, error) {
	dir, err := c.dir()
	if err != nil {
		return nil, err
	}
	return dir.Channel(ctx, c.event.ChannelID)
}

// IM returns the event channel if it is a direct conversation.
func (c *Context) IM(ctx context.Context) (*Channel, error) {
	return c.channelOfKind(ctx, ChannelIM)
}

// Group returns the event channel if it is a private group.
func (c *Context) Group(ctx context.Context) (*Channel, error) {
	return c.channelOfKind(ctx, ChannelGroup)
}

func (c *Context) channelOfKind(ctx context.Context, kind ChannelKind) (*Channel, error) {
	ch, err := c.Channel(ctx)
	if err != nil {
		return nil, err
	}
	if ch.Kind != kind {
		return nil, fmt.Errorf("%s is a %s, not a %s: %w", ch.ID, ch.Kind, kind, ErrWrongChannelKind)
	}
	return ch, nil
}

func (c *Context) dir() (Directory, error) {
	if c.session.directory == nil {
		return nil, ErrNoDirectory
	}
	return c.session.directory, nil
}

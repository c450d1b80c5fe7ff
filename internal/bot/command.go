package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/headroom/pkg/cmd"
	"github.com/keshon/headroom/pkg/pattern"
)

// ErrNoContext is returned when a bot command is run without a *Context.
var ErrNoContext = errors.New("invocation carries no bot context")

// Handler is the behavior of a command.
type Handler interface {
	Execute(ctx context.Context, c *Context) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, c *Context) error

func (f HandlerFunc) Execute(ctx context.Context, c *Context) error { return f(ctx, c) }

type command struct {
	name        string
	pattern     pattern.Pattern
	description string
	handler     Handler
}

// NewCommand describes a command. p is a path-style string or a
// *regexp.Regexp; anything else fails with *pattern.InvalidPatternError.
// A nil handler does nothing when matched.
func NewCommand(name string, p any, description string, h Handler) (cmd.Command, error) {
	pat, err := pattern.New(p)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", name, err)
	}
	return &command{name: name, pattern: pat, description: description, handler: h}, nil
}

// MustCommand is like NewCommand but panics on error.
func MustCommand(name string, p any, description string, h Handler) cmd.Command {
	c, err := NewCommand(name, p, description, h)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *command) Name() string             { return c.name }
func (c *command) Pattern() pattern.Pattern { return c.pattern }
func (c *command) Description() string      { return c.description }

func (c *command) Run(ctx context.Context, inv *cmd.Invocation) error {
	bc, ok := inv.Data.(*Context)
	if !ok {
		return fmt.Errorf("command %q: %w", c.name, ErrNoContext)
	}
	if c.handler == nil {
		return nil
	}
	return c.handler.Execute(ctx, bc)
}

// ContextOf returns the bot context carried by an invocation, for middleware.
func ContextOf(inv *cmd.Invocation) (*Context, bool) {
	c, ok := inv.Data.(*Context)
	return c, ok
}

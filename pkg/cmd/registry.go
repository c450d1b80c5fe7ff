package cmd

import (
	"errors"
	"fmt"

	"github.com/keshon/headroom/pkg/pattern"
)

var (
	// ErrNilCommand is returned when a nil command is registered.
	ErrNilCommand = errors.New("nil command")
	// ErrDuplicateCommand is returned when two commands share a name.
	ErrDuplicateCommand = errors.New("duplicate command")
)

// Registry is an ordered, immutable set of commands. Order is registration
// order and decides dispatch priority: the first matching command wins.
type Registry struct {
	commands []Command
	byName   map[string]Command
}

// NewRegistry builds a registry from cmds in the given order.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{
		commands: make([]Command, 0, len(cmds)),
		byName:   make(map[string]Command, len(cmds)),
	}
	for i, c := range cmds {
		if c == nil {
			return nil, fmt.Errorf("command #%d: %w", i, ErrNilCommand)
		}
		if _, ok := r.byName[c.Name()]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCommand, c.Name())
		}
		r.byName[c.Name()] = c
		r.commands = append(r.commands, c)
	}
	return r, nil
}

// Get returns the command with the given name, or nil.
func (r *Registry) Get(name string) Command {
	return r.byName[name]
}

// Commands returns all registered commands in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.commands) }

// Match returns the first command whose pattern matches text, with the
// extracted parameters.
func (r *Registry) Match(text string) (Command, pattern.Params, bool) {
	for _, c := range r.commands {
		p := c.Pattern()
		if p == nil {
			continue
		}
		if params, ok := p.Match(text); ok {
			return c, params, true
		}
	}
	return nil, nil, false
}

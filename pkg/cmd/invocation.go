// Package cmd provides a transport-agnostic command core: a command is something
// with a name, a pattern, a description, and Run(ctx, invocation). How messages
// reach it (Slack, Discord, console) is defined by adapters that wrap this.
package cmd

import (
	"context"

	"github.com/keshon/headroom/pkg/pattern"
)

// Invocation carries what a runner passes to a matched command: the message text,
// the parameters extracted by the command's pattern, and an opaque payload.
// Adapters set Data to their own context (e.g. *bot.Context).
type Invocation struct {
	Text   string
	Params pattern.Params
	Data   any
}

// Command is the universal contract: identity, pattern, and execution.
// A command whose Pattern returns nil never matches.
type Command interface {
	Name() string
	Pattern() pattern.Pattern
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

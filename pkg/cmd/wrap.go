package cmd

import (
	"context"

	"github.com/keshon/headroom/pkg/pattern"
)

// RunFunc is the signature of Command.Run.
type RunFunc func(ctx context.Context, inv *Invocation) error

// wrapper keeps the identity of inner and replaces its Run.
type wrapper struct {
	inner Command
	run   RunFunc
}

func (w *wrapper) Name() string             { return w.inner.Name() }
func (w *wrapper) Pattern() pattern.Pattern { return w.inner.Pattern() }
func (w *wrapper) Description() string      { return w.inner.Description() }

func (w *wrapper) Run(ctx context.Context, inv *Invocation) error {
	if w.run == nil {
		return w.inner.Run(ctx, inv)
	}
	return w.run(ctx, inv)
}

// Wrap returns c with its Run replaced by run. Name, pattern and description
// still come from c, so a wrapped command dispatches and lists exactly like
// the original. This is the building block for Middleware.
func Wrap(c Command, run RunFunc) Command {
	return &wrapper{inner: c, run: run}
}

package bot

import (
	"context"

	"github.com/keshon/headroom/pkg/cmd"
)

// Dispatcher runs the first registered command whose pattern matches a message.
type Dispatcher struct {
	session  *Session
	registry *cmd.Registry
}

func NewDispatcher(s *Session, r *cmd.Registry) *Dispatcher {
	return &Dispatcher{session: s, registry: r}
}

// Dispatch matches ev.Text against the registry in order and runs the first
// match only. It reports whether a command ran; a message that matches nothing
// is not an error. Errors returned by the command are passed through as is.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (bool, error) {
	c, params, ok := d.registry.Match(ev.Text)
	if !ok {
		return false, nil
	}

	inst := newContext(d.session, ev, params)
	inv := &cmd.Invocation{
		Text:   ev.Text,
		Params: inst.params,
		Data:   inst,
	}
	return true, c.Run(ctx, inv)
}

// Package commands is the built-in command set registered after help.
package commands

import (
	"github.com/keshon/headroom/internal/storage"
	"github.com/keshon/headroom/pkg/cmd"
)

// Deps are the services commands may need. Commands whose service is nil
// are left out.
type Deps struct {
	Storage *storage.Storage
}

// All returns the built-in commands in dispatch order.
func All(deps Deps) []cmd.Command {
	cmds := []cmd.Command{
		Ping(),
		Echo(),
		Roll(nil),
		Uptime(),
	}
	if deps.Storage != nil {
		cmds = append(cmds, History(deps.Storage), ClearHistory(deps.Storage))
	}
	return cmds
}

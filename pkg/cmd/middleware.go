package cmd

// Middleware wraps a command (e.g. logging, cooldown, history).
// The wrapped value is still a Command with the same name and pattern.
type Middleware func(Command) Command

// Apply applies middlewares in order; the last in the list is the outermost.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

// ApplyAll applies the same middlewares to every command, keeping their order.
func ApplyAll(cmds []Command, mws ...Middleware) []Command {
	out := make([]Command, len(cmds))
	for i, c := range cmds {
		out[i] = Apply(c, mws...)
	}
	return out
}

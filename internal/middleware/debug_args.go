// Package middleware holds the wrappers shared by fossil commands.
package middleware

import (
	"github.com/keshon/fossil/internal/command"
)

// WithDebugArgsPrint logs the command name and its arguments at debug level.
func WithDebugArgsPrint() command.Middleware {
	return func(cmd command.Command) command.Command {
		return &command.WrappedCommand{
			Command: cmd,
			Wrap: func(ctx *command.Context) error {
				ctx.Log.WithField("args", ctx.Args).Debugf("Running %s", cmd.Name())
				return cmd.Run(ctx)
			},
		}
	}
}

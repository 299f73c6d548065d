package middleware

import (
	"errors"
	"fmt"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/command"
)

// WithActiveProfile refuses to run cmd until a profile is selected.
func WithActiveProfile() command.Middleware {
	return func(cmd command.Command) command.Command {
		return &command.WrappedCommand{
			Command: cmd,
			Wrap: func(ctx *command.Context) error {
				p, err := ctx.Repo.ActiveProfile()
				if errors.Is(err, apperr.ErrNoActiveProfile) {
					return fmt.Errorf("%w\nCreate one with `fossil profile create <name>` or pick one with `fossil profile select <name>`", err)
				}
				if err != nil {
					return err
				}
				ctx.Log = ctx.Log.WithField("profile", p.Name)
				return cmd.Run(ctx)
			},
		}
	}
}

// WithArgs fails when fewer than min positional arguments were given.
func WithArgs(min int) command.Middleware {
	return func(cmd command.Command) command.Command {
		return &command.WrappedCommand{
			Command: cmd,
			Wrap: func(ctx *command.Context) error {
				if len(ctx.Args) < min {
					return fmt.Errorf("usage: fossil %s", cmd.Usage())
				}
				return cmd.Run(ctx)
			},
		}
	}
}

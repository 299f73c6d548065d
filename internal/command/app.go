package command

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/repo"
)

// Opener opens the repository a command runs against. The returned
// repository is closed once the command finishes.
type Opener func(ctx context.Context, cmd *cli.Command) (*repo.Repository, error)

// App turns registered commands into a urfave/cli command tree.
type App struct {
	Out   io.Writer
	Log   logrus.FieldLogger
	Open  Opener
	Color bool
}

// Build returns the root command carrying every registered command.
func (a *App) Build(name, usage string, flags ...cli.Flag) *cli.Command {
	root := &cli.Command{
		Name:   name,
		Usage:  usage,
		Flags:  flags,
		Writer: a.Out,
	}
	for _, c := range AllCommands() {
		root.Commands = append(root.Commands, a.convert(c))
	}
	return root
}

func (a *App) convert(c Command) *cli.Command {
	cc := &cli.Command{
		Name:        c.Name(),
		Aliases:     c.Aliases(),
		Usage:       c.Brief(),
		UsageText:   c.Usage(),
		Description: c.Help(),
		Flags:       c.Flags(),
	}
	for _, sub := range c.Subcommands() {
		cc.Commands = append(cc.Commands, a.convert(sub))
	}
	cc.Action = func(ctx context.Context, cmd *cli.Command) error {
		r, err := a.Open(ctx, cmd)
		if err != nil {
			return err
		}
		defer r.Close()

		log := a.Log
		if log == nil {
			log = logrus.StandardLogger()
		}
		return c.Run(&Context{
			Ctx:   ctx,
			Cmd:   cmd,
			Args:  cmd.Args().Slice(),
			Repo:  r,
			Out:   a.Out,
			Log:   log,
			Color: a.Color,
		})
	}
	return cc
}

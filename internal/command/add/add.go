package add

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "add" }
func (c *Command) Aliases() []string { return []string{"a"} }
func (c *Command) Usage() string     { return "add <path>..." }
func (c *Command) Brief() string     { return "Track files or directories in the active profile" }
func (c *Command) Help() string {
	return `Track files in the active profile.

A directory adds every regular file below it, skipping paths matched by
<base>/ignore and the fossil base directory itself. Paths must live under
the home root. Paths that are already tracked are left alone.

Usage:
  add <file>       - track a single file
  add <dir>        - track every file below dir`
}

func (c *Command) Flags() []cli.Flag               { return nil }
func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	added, err := ctx.Repo.Add(ctx.Ctx, ctx.Args...)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		fmt.Fprintln(ctx.Out, "Nothing new to track")
		return nil
	}
	for _, rec := range added {
		fmt.Fprintf(ctx.Out, "%s %d %s\n", ctx.Paint("+", command.GREEN), rec.Index, rec.RelPath)
	}
	fmt.Fprintf(ctx.Out, "Tracking %d new file(s)\n", len(added))
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithArgs(1),
			middleware.WithActiveProfile(),
			middleware.WithDebugArgsPrint(),
		),
	)
}

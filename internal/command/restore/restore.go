package restore

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
	"github.com/keshon/fossil/internal/snapshot"
)

type Command struct{}

func (c *Command) Name() string      { return "restore" }
func (c *Command) Aliases() []string { return []string{"r"} }
func (c *Command) Usage() string     { return "restore [--to <dir>] <archive|sequence>" }
func (c *Command) Brief() string     { return "Write the files of a snapshot back to disk" }
func (c *Command) Help() string {
	return `Restore a snapshot.

The snapshot is given as a path to an archive or as the sequence number of
a snapshot of the active profile. Every file recorded in it is written back
to its path under the home root, replacing the current content. Files the
snapshot does not mention are left alone. The archive is checked first; a
damaged archive changes nothing.

Options:
  --to <dir>   restore under dir instead of the home root`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "to", Usage: "restore under `DIR` instead of the home root"},
	}
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	var opts snapshot.RestoreOptions
	if to := ctx.Cmd.String("to"); to != "" {
		abs, err := filepath.Abs(to)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", to, err)
		}
		opts.Root = abs
	}

	res, err := ctx.Repo.Restore(ctx.Ctx, ctx.Args[0], opts)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	for _, rec := range res.Restored {
		fmt.Fprintf(ctx.Out, "%s %s\n", ctx.Paint("restored", command.GREEN), rec.RelPath)
	}
	fmt.Fprintf(ctx.Out, "Restored %d file(s) from snapshot #%d of '%s' into %s\n",
		len(res.Restored), res.Sequence, res.Profile, res.Root)
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithArgs(1),
			middleware.WithDebugArgsPrint(),
		),
	)
}

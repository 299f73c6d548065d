package rm

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "rm" }
func (c *Command) Aliases() []string { return []string{"remove"} }
func (c *Command) Usage() string     { return "rm <index>" }
func (c *Command) Brief() string     { return "Stop tracking the file at an index" }
func (c *Command) Help() string {
	return `Stop tracking a file. The file itself is not touched.

Indices are shown by ` + "`fossil ls`" + `. Files after the removed one move up by one,
so indices always run from 0 without gaps. An index out of range is
reported and nothing changes.`
}

func (c *Command) Flags() []cli.Flag               { return nil }
func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	index, err := strconv.Atoi(ctx.Args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", ctx.Args[0], err)
	}
	rec, ok, err := ctx.Repo.Remove(ctx.Ctx, index)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(ctx.Out, "No file at index %d\n", index)
		return nil
	}
	fmt.Fprintf(ctx.Out, "%s %s\n", ctx.Paint("-", command.RED), rec.RelPath)
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

package status

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
	"github.com/keshon/fossil/internal/snapshot"
)

type Command struct{}

func (c *Command) Name() string      { return "status" }
func (c *Command) Aliases() []string { return []string{"st"} }
func (c *Command) Usage() string     { return "status [--short]" }
func (c *Command) Brief() string     { return "Compare tracked files with the newest snapshot" }
func (c *Command) Help() string {
	return `Show how the tracked files differ from the newest snapshot.

States:
  unchanged   content matches the snapshot
  modified    content differs
  new         not in the snapshot yet
  missing     tracked but gone from disk
  untracked   in the snapshot but no longer tracked

Options:
  -s, --short   only list files that changed`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "short", Aliases: []string{"s"}, Usage: "hide unchanged files"},
	}
}

func (c *Command) Subcommands() []command.Command { return nil }

var colors = map[snapshot.State]int{
	snapshot.Modified:  command.YELLOW,
	snapshot.Added:     command.GREEN,
	snapshot.Missing:   command.RED,
	snapshot.Untracked: command.CYAN,
}

func (c *Command) Run(ctx *command.Context) error {
	changes, err := ctx.Repo.Status(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(ctx.Out, "No tracked files")
		return nil
	}

	short := ctx.Cmd.Bool("short")
	tw := command.Table(ctx.Out)
	for _, ch := range changes {
		if short && ch.State == snapshot.Unchanged {
			continue
		}
		index := "-"
		if ch.State != snapshot.Untracked {
			index = fmt.Sprint(ch.Record.Index)
		}
		state := string(ch.State)
		if color, ok := colors[ch.State]; ok {
			state = ctx.Paint(state, color)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", index, ch.Record.RelPath, state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if snapshot.Drift(changes) {
		fmt.Fprintln(ctx.Out, "Changes since the last snapshot")
	} else {
		fmt.Fprintln(ctx.Out, "Nothing changed since the last snapshot")
	}
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithActiveProfile(),
			middleware.WithDebugArgsPrint(),
		),
	)
}

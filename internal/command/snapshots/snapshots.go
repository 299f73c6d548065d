package snapshots

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "snapshots" }
func (c *Command) Aliases() []string { return []string{"log"} }
func (c *Command) Usage() string     { return "snapshots [--prune]" }
func (c *Command) Brief() string     { return "List the snapshots of the active profile" }
func (c *Command) Help() string {
	return `List snapshots of the active profile, oldest first.

Snapshots come from the catalog and from the snapshots directory. An archive
deleted by hand is shown as missing; --prune drops such entries from the
catalog. Sequence numbers are never reused.`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "prune", Usage: "forget catalog entries of deleted archives"},
	}
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	if ctx.Cmd.Bool("prune") {
		n, err := ctx.Repo.Prune(ctx.Ctx)
		if err != nil {
			return fmt.Errorf("prune failed: %w", err)
		}
		fmt.Fprintf(ctx.Out, "Forgot %d missing snapshot(s)\n", n)
	}

	list, err := ctx.Repo.Snapshots(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(ctx.Out, "No snapshots found")
		return nil
	}

	tw := command.Table(ctx.Out)
	fmt.Fprintln(tw, "SEQ\tDATE\tFILES\tBLOBS\tSIZE\tARCHIVE")
	for _, l := range list {
		date, files, blobs, size := "-", "-", "-", "-"
		if l.Cataloged {
			date = l.CreatedAt.Local().Format("2006-01-02 15:04:05")
			files = fmt.Sprint(l.Files)
			blobs = fmt.Sprint(l.Blobs)
			size = command.Bytes(l.Bytes)
		}
		archive := l.Archive
		if !l.Present {
			archive = ctx.Paint(archive+" (missing)", command.RED)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", l.Sequence, date, files, blobs, size, archive)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Total snapshots: %d\n", len(list))
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

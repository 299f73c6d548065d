package ls

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/manifest"
	"github.com/keshon/fossil/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "ls" }
func (c *Command) Aliases() []string { return []string{"list"} }
func (c *Command) Usage() string     { return "ls [--field name|path]" }
func (c *Command) Brief() string     { return "List the files tracked by the active profile" }
func (c *Command) Help() string {
	return `List tracked files in index order.

Without --field a table of index, name and path is printed. With --field
only that column is printed, one value per line.`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "field", Aliases: []string{"f"}, Usage: "print a single column: name or path"},
	}
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	doc, err := ctx.Repo.Files()
	if err != nil {
		return err
	}

	if f := ctx.Cmd.String("field"); f != "" {
		field, err := manifest.ParseField(f)
		if err != nil {
			return err
		}
		for v := range doc.Field(field) {
			fmt.Fprintln(ctx.Out, v)
		}
		return nil
	}

	if doc.Len() == 0 {
		fmt.Fprintln(ctx.Out, "No tracked files")
		return nil
	}
	tw := command.Table(ctx.Out)
	fmt.Fprintln(tw, "INDEX\tNAME\tPATH")
	for rec := range doc.Records() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", rec.Index, rec.Name, rec.RelPath)
	}
	return tw.Flush()
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

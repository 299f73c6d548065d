package init

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "init" }
func (c *Command) Aliases() []string { return []string{"i"} }
func (c *Command) Usage() string     { return "init" }
func (c *Command) Brief() string     { return "Prepare the fossil base directory" }
func (c *Command) Help() string {
	return `Prepare the fossil base directory.

Creates <base>/profiles, <base>/snapshots and the 'current_profile' profile,
and selects it. Every other command does this on first use too; init only
reports where things live.`
}

func (c *Command) Flags() []cli.Flag               { return nil }
func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	r := ctx.Repo
	fmt.Fprintf(ctx.Out, "Base directory: %s\n", r.Layout.Base)
	fmt.Fprintf(ctx.Out, "Home root:      %s\n", r.Config.HomeDir)
	fmt.Fprintf(ctx.Out, "Digest:         %s\n", r.Algorithm)
	fmt.Fprintf(ctx.Out, "Compression:    %s\n", r.Config.Compression)
	if p, err := r.ActiveProfile(); err == nil {
		fmt.Fprintf(ctx.Out, "Active profile: %s\n", p.Name)
	} else {
		fmt.Fprintln(ctx.Out, "Active profile: none")
	}
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}

package profile

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "profile" }
func (c *Command) Aliases() []string { return []string{"p"} }
func (c *Command) Usage() string     { return "profile [create|remove|rename|select|list] [<name>]" }
func (c *Command) Brief() string     { return "Manage profiles" }

func (c *Command) Help() string {
	return `Manage profiles. A profile is a named set of tracked files with its own
snapshots. Most commands work on the active profile.

Usage:
  profile                 - list profiles (active marked with '*')
  profile create <name>   - create a profile and make it active
  profile remove <name>   - delete a profile; its snapshots are kept
  profile rename <name>   - rename the active profile
  profile select <name>   - make a profile active
  profile list            - list profiles`
}

func (c *Command) Flags() []cli.Flag { return nil }

func (c *Command) Subcommands() []command.Command {
	return []command.Command{
		command.ApplyMiddlewares(&createCommand{}, middleware.WithArgs(1), middleware.WithDebugArgsPrint()),
		command.ApplyMiddlewares(&removeCommand{}, middleware.WithArgs(1), middleware.WithDebugArgsPrint()),
		command.ApplyMiddlewares(&renameCommand{}, middleware.WithArgs(1), middleware.WithActiveProfile(), middleware.WithDebugArgsPrint()),
		command.ApplyMiddlewares(&selectCommand{}, middleware.WithArgs(1), middleware.WithDebugArgsPrint()),
		command.ApplyMiddlewares(&listCommand{}, middleware.WithDebugArgsPrint()),
	}
}

func (c *Command) Run(ctx *command.Context) error {
	return list(ctx)
}

func list(ctx *command.Context) error {
	profiles, err := ctx.Repo.ListProfiles()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(profiles) == 0 {
		fmt.Fprintln(ctx.Out, "No profiles yet")
		return nil
	}

	fmt.Fprintln(ctx.Out, "Profiles:")
	for _, p := range profiles {
		prefix := "  "
		name := p.Name
		if p.Active {
			prefix = "* "
			name = ctx.Paint(name, command.GREEN)
		}
		fmt.Fprintln(ctx.Out, prefix+name)
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

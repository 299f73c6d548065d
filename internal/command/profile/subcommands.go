package profile

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
)

type createCommand struct{}

func (c *createCommand) Name() string                   { return "create" }
func (c *createCommand) Aliases() []string              { return []string{"new"} }
func (c *createCommand) Usage() string                  { return "profile create <name>" }
func (c *createCommand) Brief() string                  { return "Create a profile and make it active" }
func (c *createCommand) Help() string                   { return "Create an empty profile and select it." }
func (c *createCommand) Flags() []cli.Flag              { return nil }
func (c *createCommand) Subcommands() []command.Command { return nil }

func (c *createCommand) Run(ctx *command.Context) error {
	p, err := ctx.Repo.CreateProfile(ctx.Ctx, ctx.Args[0], true)
	if err != nil {
		return fmt.Errorf("failed to create profile %q: %w", ctx.Args[0], err)
	}
	fmt.Fprintf(ctx.Out, "Profile '%s' created and selected.\n", p.Name)
	return nil
}

type removeCommand struct{}

func (c *removeCommand) Name() string      { return "remove" }
func (c *removeCommand) Aliases() []string { return []string{"rm"} }
func (c *removeCommand) Usage() string     { return "profile remove <name>" }
func (c *removeCommand) Brief() string     { return "Delete a profile" }
func (c *removeCommand) Help() string {
	return "Delete a profile's tracked file list. Its snapshots stay on disk and can still be restored by path."
}
func (c *removeCommand) Flags() []cli.Flag              { return nil }
func (c *removeCommand) Subcommands() []command.Command { return nil }

func (c *removeCommand) Run(ctx *command.Context) error {
	if err := ctx.Repo.RemoveProfile(ctx.Ctx, ctx.Args[0]); err != nil {
		return fmt.Errorf("failed to remove profile %q: %w", ctx.Args[0], err)
	}
	fmt.Fprintf(ctx.Out, "Profile '%s' removed.\n", ctx.Args[0])
	return nil
}

type renameCommand struct{}

func (c *renameCommand) Name() string      { return "rename" }
func (c *renameCommand) Aliases() []string { return []string{"mv"} }
func (c *renameCommand) Usage() string     { return "profile rename <new-name>" }
func (c *renameCommand) Brief() string     { return "Rename the active profile" }
func (c *renameCommand) Help() string {
	return "Rename the active profile. Snapshots taken under the old name keep it."
}
func (c *renameCommand) Flags() []cli.Flag              { return nil }
func (c *renameCommand) Subcommands() []command.Command { return nil }

func (c *renameCommand) Run(ctx *command.Context) error {
	p, err := ctx.Repo.RenameProfile(ctx.Ctx, ctx.Args[0])
	if err != nil {
		return fmt.Errorf("failed to rename profile: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Active profile is now '%s'.\n", p.Name)
	return nil
}

type selectCommand struct{}

func (c *selectCommand) Name() string                   { return "select" }
func (c *selectCommand) Aliases() []string              { return []string{"use"} }
func (c *selectCommand) Usage() string                  { return "profile select <name>" }
func (c *selectCommand) Brief() string                  { return "Make a profile active" }
func (c *selectCommand) Help() string                   { return "Make an existing profile the active one." }
func (c *selectCommand) Flags() []cli.Flag              { return nil }
func (c *selectCommand) Subcommands() []command.Command { return nil }

func (c *selectCommand) Run(ctx *command.Context) error {
	p, err := ctx.Repo.SelectProfile(ctx.Ctx, ctx.Args[0])
	if err != nil {
		return fmt.Errorf("failed to select profile %q: %w", ctx.Args[0], err)
	}
	fmt.Fprintf(ctx.Out, "Switched to profile '%s'.\n", p.Name)
	return nil
}

type listCommand struct{}

func (c *listCommand) Name() string                   { return "list" }
func (c *listCommand) Aliases() []string              { return []string{"ls"} }
func (c *listCommand) Usage() string                  { return "profile list" }
func (c *listCommand) Brief() string                  { return "List profiles" }
func (c *listCommand) Help() string                   { return "List every profile, marking the active one with '*'." }
func (c *listCommand) Flags() []cli.Flag              { return nil }
func (c *listCommand) Subcommands() []command.Command { return nil }

func (c *listCommand) Run(ctx *command.Context) error {
	return list(ctx)
}

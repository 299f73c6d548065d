package snapshot

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "snapshot" }
func (c *Command) Aliases() []string { return []string{"snap", "s"} }
func (c *Command) Usage() string     { return "snapshot" }
func (c *Command) Brief() string     { return "Capture every tracked file into a new archive" }
func (c *Command) Help() string {
	return `Capture the tracked files of the active profile.

Each snapshot is written to <base>/snapshots/<profile>/<profile>[<n>].archive
with the next sequence number. Files with identical content are stored once.
If a tracked file is missing the snapshot is aborted and no archive is written.`
}

func (c *Command) Flags() []cli.Flag               { return nil }
func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	res, err := ctx.Repo.Snapshot(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Snapshot %s of '%s': %d file(s), %d blob(s), %s\n",
		ctx.Paint(fmt.Sprintf("#%d", res.Sequence), command.YELLOW),
		res.Profile, len(res.Records), res.Blobs, command.Bytes(res.Bytes))
	fmt.Fprintln(ctx.Out, res.Archive)
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

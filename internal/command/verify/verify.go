package verify

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "verify" }
func (c *Command) Aliases() []string { return []string{"check"} }
func (c *Command) Usage() string     { return "verify <archive|sequence>" }
func (c *Command) Brief() string     { return "Check a snapshot archive for damage" }
func (c *Command) Help() string {
	return `Check that a snapshot can be restored.

The archive is read once without extracting it. Every blob is hashed and
compared with its name, and every file in the embedded manifest must have
its blob. Blobs no file refers to are listed but do not fail the check.`
}

func (c *Command) Flags() []cli.Flag               { return nil }
func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	rep, err := ctx.Repo.Verify(ctx.Ctx, ctx.Args[0])
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Fprintf(ctx.Out, "Archive:   %s\n", rep.Archive)
	fmt.Fprintf(ctx.Out, "Snapshot:  #%d of '%s'\n", rep.Sequence, rep.Profile)
	fmt.Fprintf(ctx.Out, "Algorithm: %s\n", rep.Algorithm)
	fmt.Fprintf(ctx.Out, "Files:     %d\n", rep.Files)
	fmt.Fprintf(ctx.Out, "Blobs:     %d\n", rep.Blobs)
	report(ctx, "Damaged", rep.Damaged, command.RED)
	report(ctx, "Missing", rep.Missing, command.RED)
	report(ctx, "Orphans", rep.Orphans, command.YELLOW)

	if !rep.OK() {
		return fmt.Errorf("%w: %d damaged, %d missing blob(s)", apperr.ErrCorruptArchive, len(rep.Damaged), len(rep.Missing))
	}
	fmt.Fprintln(ctx.Out, ctx.Paint("OK", command.GREEN))
	return nil
}

func report(ctx *command.Context, label string, digests []string, color int) {
	if len(digests) == 0 {
		return
	}
	fmt.Fprintf(ctx.Out, "%s: %s\n", ctx.Paint(label, color), strings.Join(digests, " "))
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

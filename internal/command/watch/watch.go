package watch

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/middleware"
	"github.com/keshon/fossil/internal/snapshot"
	"github.com/keshon/fossil/internal/watch"
)

type Command struct{}

func (c *Command) Name() string      { return "watch" }
func (c *Command) Aliases() []string { return []string{"w"} }
func (c *Command) Usage() string {
	return "watch [--interval <d>] [--on-change] [--debounce <d>] [--skip-unchanged]"
}
func (c *Command) Brief() string { return "Take snapshots periodically or when tracked files change" }
func (c *Command) Help() string {
	return `Keep taking snapshots of the active profile until interrupted.

Options:
  --interval <d>     snapshot every d (default from config, 0 disables)
  --on-change        snapshot when a tracked file changes
  --debounce <d>     wait until files were quiet for d before snapshotting
  --skip-unchanged   skip snapshots identical to the newest one

Failed snapshots are logged and the schedule continues.`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "snapshot every `DURATION`"},
		&cli.BoolFlag{Name: "on-change", Usage: "snapshot after tracked files change"},
		&cli.DurationFlag{Name: "debounce", Usage: "quiet period before a change-triggered snapshot"},
		&cli.BoolFlag{Name: "skip-unchanged", Usage: "skip snapshots identical to the newest one"},
	}
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Run(ctx *command.Context) error {
	defaults := ctx.Repo.Config.Watch
	s := &watch.Scheduler{
		Snapshotter:   ctx.Repo,
		Log:           ctx.Log,
		Interval:      defaults.Interval,
		Debounce:      defaults.Debounce,
		OnChange:      ctx.Cmd.Bool("on-change"),
		SkipUnchanged: ctx.Cmd.Bool("skip-unchanged"),
		Taken: func(res snapshot.Result) {
			fmt.Fprintf(ctx.Out, "Snapshot #%d: %d file(s) %s\n", res.Sequence, len(res.Records), res.Archive)
		},
	}
	if ctx.Cmd.IsSet("interval") {
		s.Interval = ctx.Cmd.Duration("interval")
	}
	if ctx.Cmd.IsSet("debounce") {
		s.Debounce = ctx.Cmd.Duration("debounce")
	}

	fmt.Fprintf(ctx.Out, "Watching (interval %s, on change %t). Press Ctrl+C to stop.\n", s.Interval, s.OnChange)
	return s.Run(ctx.Ctx)
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

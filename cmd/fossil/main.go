package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/command"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/fs"
	"github.com/keshon/fossil/internal/progress"
	"github.com/keshon/fossil/internal/repo"

	_ "github.com/keshon/fossil/internal/command/add"
	_ "github.com/keshon/fossil/internal/command/init"
	_ "github.com/keshon/fossil/internal/command/ls"
	_ "github.com/keshon/fossil/internal/command/profile"
	_ "github.com/keshon/fossil/internal/command/restore"
	_ "github.com/keshon/fossil/internal/command/rm"
	_ "github.com/keshon/fossil/internal/command/snapshot"
	_ "github.com/keshon/fossil/internal/command/snapshots"
	_ "github.com/keshon/fossil/internal/command/status"
	_ "github.com/keshon/fossil/internal/command/verify"
	_ "github.com/keshon/fossil/internal/command/watch"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged regardless of log_level.
const verboseLogKey = "FOSSIL_LOG_VERBOSE"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log := logrus.New()
	log.SetOutput(stderr)

	app := &command.App{
		Out:   stdout,
		Log:   log,
		Color: isTerminal(stdout),
		Open:  opener(log, stderr),
	}
	root := app.Build("fossil", "Snapshot and restore sets of files under your home directory",
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to the settings file (default <base>/fossil.yaml)",
			Sources: cli.EnvVars("FOSSIL_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "log debug messages",
		},
	)
	root.ErrWriter = stderr

	if err := root.Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// opener resolves the configuration for one command and opens the
// repository it describes.
func opener(log *logrus.Logger, stderr io.Writer) command.Opener {
	return func(ctx context.Context, cmd *cli.Command) (*repo.Repository, error) {
		cfg, err := config.Default()
		if err != nil {
			return nil, err
		}
		cfg, err = config.Resolve(fs.NewOSFS(), cfg, cmd.String("config"))
		if err != nil {
			return nil, err
		}

		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
		if cmd.Bool("verbose") || os.Getenv(verboseLogKey) == "true" {
			level = logrus.DebugLevel
		}
		log.SetLevel(level)
		log.WithField("base", cfg.BaseDir).Debug("Resolved configuration")

		var factory progress.Factory = progress.Nop
		if isTerminal(stderr) {
			factory = func(total int, message string) progress.Tracker {
				return progress.NewSpinnerTo(stderr, total, message)
			}
		}
		return repo.Open(cfg, &repo.Options{Log: log, Progress: factory})
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

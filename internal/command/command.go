package command

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/repo"
)

// Command represents a cli command
type Command interface {
	Name() string
	Aliases() []string
	Usage() string
	Brief() string
	Help() string
	Flags() []cli.Flag
	Subcommands() []Command
	Run(ctx *Context) error
}

// Context represents a cli context
type Context struct {
	Ctx  context.Context
	Cmd  *cli.Command
	Args []string
	Repo *repo.Repository
	Out  io.Writer
	Log  logrus.FieldLogger
	// Color enables ANSI colours in output.
	Color bool
}

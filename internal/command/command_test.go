package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/repo"
)

type echoCommand struct {
	name string
	subs []Command
}

func (c *echoCommand) Name() string           { return c.name }
func (c *echoCommand) Aliases() []string      { return []string{c.name[:1]} }
func (c *echoCommand) Usage() string          { return c.name + " <words>..." }
func (c *echoCommand) Brief() string          { return "echo words" }
func (c *echoCommand) Help() string           { return "Echo words back." }
func (c *echoCommand) Subcommands() []Command { return c.subs }
func (c *echoCommand) Flags() []cli.Flag {
	if len(c.subs) == 0 {
		return nil
	}
	return []cli.Flag{&cli.BoolFlag{Name: "upper"}}
}

func (c *echoCommand) Run(ctx *Context) error {
	s := c.name + ":" + strings.Join(ctx.Args, " ")
	if ctx.Cmd != nil && len(c.subs) > 0 && ctx.Cmd.Bool("upper") {
		s = strings.ToUpper(s)
	}
	_, err := io.WriteString(ctx.Out, s+"\n")
	return err
}

func trace(name string, calls *[]string) Middleware {
	return func(cmd Command) Command {
		return &WrappedCommand{
			Command: cmd,
			Wrap: func(ctx *Context) error {
				*calls = append(*calls, name)
				return cmd.Run(ctx)
			},
		}
	}
}

func TestApplyMiddlewaresOrder(t *testing.T) {
	var calls []string
	var out bytes.Buffer
	cmd := ApplyMiddlewares(&echoCommand{name: "echo"}, trace("inner", &calls), trace("outer", &calls))

	require.NoError(t, cmd.Run(&Context{Args: []string{"hi"}, Out: &out}))
	assert.Equal(t, []string{"outer", "inner"}, calls)
	assert.Equal(t, "echo:hi\n", out.String())
	assert.Equal(t, "echo", cmd.Name(), "wrapping keeps the command's identity")
}

func TestRegistry(t *testing.T) {
	RegisterCommand(&echoCommand{name: "zz-echo"})

	got, ok := GetCommand("zz-echo")
	require.True(t, ok)
	assert.Equal(t, "zz-echo", got.Name())

	got, ok = GetCommand("z")
	require.True(t, ok, "lookup by alias")
	assert.Equal(t, "zz-echo", got.Name())

	_, ok = GetCommand("nope")
	assert.False(t, ok)

	assert.Panics(t, func() { RegisterCommand(&echoCommand{name: "zz-echo"}) })

	all := AllCommands()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name(), all[i].Name())
	}
}

func TestAppRunsRegisteredCommands(t *testing.T) {
	RegisterCommand(&echoCommand{name: "yy-group", subs: []Command{&echoCommand{name: "child"}}})

	home := t.TempDir()
	log := logrus.New()
	log.SetOutput(io.Discard)
	opened := 0
	var out bytes.Buffer
	app := &App{
		Out: &out,
		Log: log,
		Open: func(context.Context, *cli.Command) (*repo.Repository, error) {
			opened++
			return repo.Open(config.DefaultAt(home), &repo.Options{Log: log})
		},
	}

	root := app.Build("fossil", "test")
	require.NoError(t, root.Run(context.Background(), []string{"fossil", "yy-group", "--upper", "a", "b"}))
	assert.Equal(t, "YY-GROUP:A B\n", out.String())

	out.Reset()
	root = app.Build("fossil", "test")
	require.NoError(t, root.Run(context.Background(), []string{"fossil", "yy-group", "child", "x"}))
	assert.Equal(t, "child:x\n", out.String())
	assert.Equal(t, 2, opened)
}

func TestAppOpenFailureStopsCommand(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("boom")
	app := &App{
		Out:  &out,
		Open: func(context.Context, *cli.Command) (*repo.Repository, error) { return nil, boom },
	}
	root := app.Build("fossil", "test")
	root.Commands = []*cli.Command{app.convert(&echoCommand{name: "echo"})}

	err := root.Run(context.Background(), []string{"fossil", "echo", "hi"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, out.String())
}

func TestBytes(t *testing.T) {
	cases := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1024:            "1.0 KiB",
		1536:            "1.5 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for n, want := range cases {
		assert.Equal(t, want, Bytes(n), n)
	}
}

func TestPaint(t *testing.T) {
	plain := &Context{}
	assert.Equal(t, "ok", plain.Paint("ok", GREEN))

	colored := &Context{Color: true}
	s := colored.Paint("ok", GREEN)
	assert.Contains(t, s, "ok")
	assert.NotEqual(t, "ok", s)
}

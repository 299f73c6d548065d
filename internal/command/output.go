package command

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/buger/goterm"
)

// Paint colours s when the context allows colours.
func (c *Context) Paint(s string, color int) string {
	if !c.Color {
		return s
	}
	return goterm.Color(s, color)
}

// Table returns a writer aligning tab separated columns. Flush it when done.
func Table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 10, 3, ' ', 0)
}

// Colours accepted by Paint.
const (
	RED    = goterm.RED
	GREEN  = goterm.GREEN
	YELLOW = goterm.YELLOW
	BLUE   = goterm.BLUE
	CYAN   = goterm.CYAN
)

// Bytes formats n with a binary unit.
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

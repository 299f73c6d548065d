// Package progress draws a spinner with a counter while long operations run.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Tracker counts completed units of work.
type Tracker interface {
	Increment()
	Finish()
}

// Factory starts a tracker for total units described by message.
type Factory func(total int, message string) Tracker

// Nop discards progress.
func Nop(int, string) Tracker { return nop{} }

type nop struct{}

func (nop) Increment() {}
func (nop) Finish()    {}

// Spinner renders progress on a terminal line.
type Spinner struct {
	out       io.Writer
	total     int
	current   int
	message   string
	mu        sync.Mutex
	startTime time.Time
	done      chan struct{}
	stopped   chan struct{}
}

// NewSpinner starts rendering to stderr.
func NewSpinner(total int, message string) Tracker {
	return NewSpinnerTo(os.Stderr, total, message)
}

// NewSpinnerTo starts rendering to out.
func NewSpinnerTo(out io.Writer, total int, message string) *Spinner {
	p := &Spinner{
		out:       out,
		total:     total,
		message:   message,
		startTime: time.Now(),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go p.render()
	return p
}

func (p *Spinner) render() {
	defer close(p.stopped)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := 0

	for {
		select {
		case <-p.done:
			p.mu.Lock()
			elapsed := time.Since(p.startTime)
			fmt.Fprintf(p.out, "\r✓ %s (%d files, %s)          \n",
				p.message, p.current, elapsed.Round(time.Millisecond))
			p.mu.Unlock()
			return

		case <-ticker.C:
			p.mu.Lock()
			if p.total > 0 {
				percent := float64(p.current) / float64(p.total) * 100
				fmt.Fprintf(p.out, "\r%s %s [%d/%d] %.0f%%  ",
					spinner[frame%len(spinner)], p.message, p.current, p.total, percent)
			} else {
				fmt.Fprintf(p.out, "\r%s %s [%d files]  ",
					spinner[frame%len(spinner)], p.message, p.current)
			}
			p.mu.Unlock()
			frame++
		}
	}
}

// Increment records one finished unit. Safe for concurrent use.
func (p *Spinner) Increment() {
	p.mu.Lock()
	p.current++
	p.mu.Unlock()
}

// Finish prints the summary line and waits for the renderer to exit.
func (p *Spinner) Finish() {
	close(p.done)
	<-p.stopped
}

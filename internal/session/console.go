package session

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Console writes the human-readable session transcript.
// Progress goes to out; "nothing to do" notices and write failures go to errOut.
type Console struct {
	out    io.Writer
	errOut io.Writer

	success *color.Color
	notice  *color.Color
	warn    *color.Color
	failure *color.Color
}

// NewConsole creates a console. colors forces ANSI colouring on or off,
// independent of fatih/color's own terminal detection.
func NewConsole(out, errOut io.Writer, colors bool) *Console {
	c := &Console{
		out:     out,
		errOut:  errOut,
		success: color.New(color.FgGreen),
		notice:  color.New(color.FgYellow),
		warn:    color.New(color.FgYellow),
		failure: color.New(color.FgRed),
	}
	for _, col := range []*color.Color{c.success, c.notice, c.warn, c.failure} {
		if colors {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Info prints an uncoloured progress line.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Success prints a green progress line.
func (c *Console) Success(format string, args ...any) {
	c.success.Fprintf(c.out, format+"\n", args...)
}

// Notice prints a highlighted progress line, e.g. the read timeout.
func (c *Console) Notice(format string, args ...any) {
	c.notice.Fprintf(c.out, format+"\n", args...)
}

// Warn prints a yellow line to errOut.
func (c *Console) Warn(format string, args ...any) {
	c.warn.Fprintf(c.errOut, format+"\n", args...)
}

// Error prints a red line to errOut.
func (c *Console) Error(format string, args ...any) {
	c.failure.Fprintf(c.errOut, format+"\n", args...)
}

package consolehelper

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Console prints the user facing progress messages of a deploy run.
type Console struct {
	Out io.Writer

	success *color.Color
	warning *color.Color
	failure *color.Color
}

func New(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}

	return &Console{
		Out:     out,
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
	}
}

func (c *Console) Msg(format string, args ...interface{}) {
	c.println(c.success, fmt.Sprintf(format, args...))
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.println(c.warning, fmt.Sprintf(format, args...))
}

// Bail prints err the way every fatal error is reported.
func (c *Console) Bail(err error) {
	c.println(c.failure, "Error: "+err.Error())
}

func (c *Console) println(style *color.Color, text string) {
	if c.success == nil {
		// zero value Console, write uncolored
		_, _ = fmt.Fprintln(c.Out, text)
		return
	}

	_, _ = style.Fprintln(c.Out, text)
}

package message

import (
	"fmt"
	"io"
	"os"
)

const (
	thinkingColor = "\x1b[90m"
	resetColor    = "\x1b[0m"
)

// ThinkingPrinter renders streamed model thinking in gray as it arrives.
// Feed chunks with Write; an empty chunk closes the block.
type ThinkingPrinter struct {
	out     io.Writer
	started bool
}

// NewThinkingPrinter creates a printer writing to stdout
func NewThinkingPrinter() *ThinkingPrinter {
	return NewThinkingPrinterTo(os.Stdout)
}

// NewThinkingPrinterTo creates a printer against an arbitrary writer
func NewThinkingPrinterTo(out io.Writer) *ThinkingPrinter {
	return &ThinkingPrinter{out: out}
}

// Write prints a thinking chunk; the first chunk opens the gray block
func (p *ThinkingPrinter) Write(chunk string) {
	if chunk == "" {
		p.End()
		return
	}
	if !p.started {
		fmt.Fprint(p.out, thinkingColor+"💭 ")
		p.started = true
	}
	fmt.Fprint(p.out, thinkingColor+chunk)
}

// End closes an open thinking block and resets terminal color
func (p *ThinkingPrinter) End() {
	if p.started {
		fmt.Fprint(p.out, resetColor+"\n")
		p.started = false
	}
}

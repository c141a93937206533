package main

import (
	"fmt"
	"io"
	"os"

	"github.com/srg/blconnect/internal/connector"
	"golang.org/x/term"
)

const clearLineSequence = "\r\033[K"

// AttemptPrinter reports connection attempts.
//
// On a terminal every attempt rewrites the same line; otherwise each attempt
// is printed on its own line so logs and pipes stay readable. Stop must be
// called once the attempts are over to terminate the in-place line.
type AttemptPrinter struct {
	w       io.Writer
	inPlace bool
	current connector.MacAddress
	pending bool // an in-place line is open
}

// NewAttemptPrinter creates a printer writing to w. inPlace selects
// carriage-return updates.
func NewAttemptPrinter(w io.Writer, inPlace bool) *AttemptPrinter {
	return &AttemptPrinter{w: w, inPlace: inPlace}
}

// Callback returns the progress callback to hand to the connector.
func (p *AttemptPrinter) Callback() connector.ProgressCallback {
	return func(address connector.MacAddress, attempt, maxAttempts int) {
		msg := fmt.Sprintf("Attempting to connect to %s, attempt %d out of %d", address, attempt, maxAttempts)

		if !p.inPlace {
			fmt.Fprintln(p.w, msg)
			return
		}

		// A new device gets its own line
		if p.pending && address != p.current {
			fmt.Fprintln(p.w)
		}
		fmt.Fprint(p.w, clearLineSequence+msg)
		p.current = address
		p.pending = true
	}
}

// Stop ends the in-place line, if any. It is safe to call more than once.
func (p *AttemptPrinter) Stop() {
	if p.pending {
		fmt.Fprintln(p.w)
		p.pending = false
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Package diag implements the compiler's diagnostic channel: source
// locations, caret-pointing messages, and the duplicate-suppression and
// message-cap rules spec'd for the scanner's mark() operation.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// maxMessages caps the number of diagnostics printed per compilation, per
// the scanner's mark() contract (ors.c: g_errcnt < 25).
const maxMessages = 25

// Location identifies a point in the source text.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Diagnostic is a single reported compiler error.
type Diagnostic struct {
	Location   Location
	Message    string
	SourceLine string
	cause      error
}

// Error renders the diagnostic the way the reference scanner's mark()
// prints it: the location and the message on the first line, then the
// source line, then a caret under the column.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", d.Location, d.Message)
	if d.SourceLine != "" {
		b.WriteString(d.SourceLine)
		b.WriteByte('\n')
		col := d.Location.Column
		if col < 1 {
			col = 1
		}
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteByte('^')
	}
	return b.String()
}

// Cause unwraps the diagnostic's underlying error, if wrapped with Wrap.
func (d *Diagnostic) Cause() error {
	return d.cause
}

// Wrap attaches cause as the diagnostic's underlying reason, for chaining
// a runtime trap report back to the compile-time check that predicted it.
func (d *Diagnostic) Wrap(cause error) *Diagnostic {
	d.cause = errors.Wrap(cause, d.Message)
	return d
}

// Sink collects diagnostics for one compilation session, applying the
// mark()-style suppression: no more than one report per advance of the
// cursor, and no more than maxMessages total.
type Sink struct {
	SessionID string

	diags       []*Diagnostic
	lastLine    int
	lastColumn  int
	errorCount  int
	suppressed  int
}

// NewSink returns an empty diagnostic sink for one compile session.
func NewSink(sessionID string) *Sink {
	return &Sink{SessionID: sessionID, lastLine: -1, lastColumn: -1}
}

// Mark records a diagnostic at loc unless it would be a cascade of the
// last reported error (cursor has not advanced) or the cap has been hit.
func (s *Sink) Mark(loc Location, sourceLine string, format string, args ...interface{}) {
	s.errorCount++
	if loc.Line < s.lastLine || (loc.Line == s.lastLine && loc.Column <= s.lastColumn) {
		return
	}
	if len(s.diags) >= maxMessages {
		s.suppressed++
		return
	}
	s.lastLine, s.lastColumn = loc.Line, loc.Column
	s.diags = append(s.diags, &Diagnostic{
		Location:   loc,
		Message:    fmt.Sprintf(format, args...),
		SourceLine: sourceLine,
	})
}

// Count returns the number of errors observed, including suppressed ones;
// this is the module-wide error counter spec.md §4.1 describes.
func (s *Sink) Count() int {
	return s.errorCount
}

// Diagnostics returns the (capped) list of diagnostics actually printed.
func (s *Sink) Diagnostics() []*Diagnostic {
	return s.diags
}

// HasErrors reports whether any diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	return s.errorCount > 0
}

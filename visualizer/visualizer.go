// Package visualizer renders a source-snippet-plus-caret view of an
// error: a header naming the code and message, context lines before
// and after, the error line itself (possibly truncated), a caret row
// under the offending column, and an optional recovery hint. It
// performs no I/O of its own — every Render call writes to a
// caller-supplied io.Writer.
//
// The header reads "error at line L, column C: code: message"; the
// " | " gutter and caret line follow the familiar rustc/cargo-style
// layout, configurable here via ContextLines, MaxLineLength,
// MarkerChar, and UseColors.
package visualizer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgellow/zig-stream-parse-sub001/perror"
)

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// Config controls the rendering's shape.
type Config struct {
	// ContextLines is how many lines before and after the error line
	// are included.
	ContextLines int
	// MaxLineLength truncates a rendered line (with an ellipsis) past
	// this many bytes. Zero means no truncation.
	MaxLineLength int
	// MarkerChar is the caret character. Zero value defaults to '^'.
	MarkerChar byte
	// UseColors wraps the error line and caret in ANSI escapes.
	UseColors bool
}

// DefaultConfig returns the framework's default rendering
// configuration: 2 context lines, no truncation, '^' caret, no color.
func DefaultConfig() Config {
	return Config{ContextLines: 2, MarkerChar: '^'}
}

func (c Config) marker() byte {
	if c.MarkerChar == 0 {
		return '^'
	}
	return c.MarkerChar
}

// Render writes a multi-line diagnostic for ec against source to w.
// source is the full document for memory parses, or the last buffered
// window for streaming ones (the caller decides which is available).
func Render(w io.Writer, source []byte, ec perror.ErrorContext, cfg Config) error {
	lines := splitLines(source)
	lineIdx := int(ec.Position.Line) - 1

	if _, err := fmt.Fprintf(w, "error at line %d, column %d: %s: %s\n",
		ec.Position.Line, ec.Position.Column, ec.Code, ec.Message); err != nil {
		return err
	}

	start := lineIdx - cfg.ContextLines
	if start < 0 {
		start = 0
	}
	end := lineIdx + cfg.ContextLines
	if end > len(lines)-1 {
		end = len(lines) - 1
	}

	for i := start; i <= end && i < len(lines); i++ {
		if i < 0 {
			continue
		}
		if i == lineIdx {
			if err := renderErrorLine(w, lines[i], ec, cfg); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%5d | %s\n", i+1, lines[i]); err != nil {
			return err
		}
	}

	if ec.RecoveryHint != "" {
		if _, err := fmt.Fprintf(w, "Hint: %s\n", ec.RecoveryHint); err != nil {
			return err
		}
	}
	return nil
}

func renderErrorLine(w io.Writer, line string, ec perror.ErrorContext, cfg Config) error {
	display := line
	if cfg.MaxLineLength > 0 && len(display) > cfg.MaxLineLength {
		display = display[:cfg.MaxLineLength] + "..."
	}

	if cfg.UseColors {
		if _, err := fmt.Fprintf(w, "%5d | %s%s%s\n", ec.Position.Line, ansiRed, display, ansiReset); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "%5d | %s\n", ec.Position.Line, display); err != nil {
			return err
		}
	}

	col := int(ec.Position.Column)
	if cfg.MaxLineLength > 0 && col > cfg.MaxLineLength {
		// Column falls past the truncation point: still render a
		// caret at the truncation boundary so the line is never
		// silently missing one.
		col = cfg.MaxLineLength
	}

	gutter := strings.Repeat(" ", 8) // matches "%5d | " width
	caret := strings.Repeat(" ", max(0, col-1)) + string(cfg.marker())
	if cfg.UseColors {
		_, err := fmt.Fprintf(w, "%s%s%s%s\n", gutter, ansiRed, caret, ansiReset)
		return err
	}
	_, err := fmt.Fprintf(w, "%s%s\n", gutter, caret)
	return err
}

func splitLines(source []byte) []string {
	if len(source) == 0 {
		return []string{""}
	}
	normalized := bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))
	return strings.Split(string(normalized), "\n")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Package aggregator groups related errors by proximity and kind: each
// reported error either joins the first existing group whose primary
// it is related to, or starts a new group as its own primary. Groups
// are disjoint and built in a single pass, so re-reporting the same
// sequence of errors always yields identical groups.
package aggregator

import (
	"github.com/dgellow/zig-stream-parse-sub001/perror"
)

// DefaultMaxLineDistance is the Δline beyond which two errors are
// never considered related, regardless of category or cascade.
const DefaultMaxLineDistance = 3

// cascadePair is an unordered pair of codes known to cascade from one
// another (e.g. an unbalanced delimiter produces a string of
// unexpected-token errors afterwards).
type cascadePair struct{ a, b perror.Code }

var knownCascades = []cascadePair{
	{perror.UnexpectedToken, perror.MissingToken},
	{perror.UnterminatedString, perror.UnexpectedToken},
	{perror.UnbalancedDelimiter, perror.UnexpectedToken},
	{perror.UnbalancedDelimiter, perror.MissingToken},
}

func isCascade(a, b perror.Code) bool {
	for _, pair := range knownCascades {
		if (pair.a == a && pair.b == b) || (pair.a == b && pair.b == a) {
			return true
		}
	}
	return false
}

// Group is a primary error plus every error judged related to it,
// in the order they were reported.
type Group struct {
	Primary perror.ErrorContext
	Related []perror.ErrorContext
}

// Aggregator routes reported errors to Warnings (severity Warning) or
// into Groups (severity Error/Fatal), grouping the latter by the
// proximity/category/cascade predicate in related.
type Aggregator struct {
	maxLineDistance int

	warnings []perror.ErrorContext
	groups   []Group
}

// Option configures an Aggregator at construction.
type Option func(*Aggregator)

// WithMaxLineDistance overrides the Δline cutoff beyond which two
// errors are never related. Default DefaultMaxLineDistance (3).
func WithMaxLineDistance(n int) Option {
	return func(a *Aggregator) { a.maxLineDistance = n }
}

// New creates an empty Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{maxLineDistance: DefaultMaxLineDistance}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Report routes err by severity: Warning errors are appended to
// Warnings(); Error and Fatal severities are grouped (or start a new
// group) per the proximity/category/cascade predicate.
func (a *Aggregator) Report(err perror.ErrorContext) {
	if err.Severity == perror.Warning {
		a.warnings = append(a.warnings, err)
		return
	}
	for i := range a.groups {
		if a.related(err, a.groups[i].Primary) {
			a.groups[i].Related = append(a.groups[i].Related, err)
			return
		}
	}
	a.groups = append(a.groups, Group{Primary: err})
}

// related reports whether a candidate error e belongs in the same
// group as an existing group's primary p: e is related to p iff Δline is
// within maxLineDistance AND (same category, OR Δline <= 1, OR
// {p.Code, e.Code} is a known cascade pair).
func (a *Aggregator) related(e, p perror.ErrorContext) bool {
	dLine := deltaLine(e.Position.Line, p.Position.Line)
	if dLine > a.maxLineDistance {
		return false
	}
	if e.Code.Category() == p.Code.Category() {
		return true
	}
	if dLine <= 1 {
		return true
	}
	return isCascade(p.Code, e.Code)
}

func deltaLine(a, b uint32) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Warnings returns every reported warning-severity error, in report
// order.
func (a *Aggregator) Warnings() []perror.ErrorContext {
	return a.warnings
}

// Groups returns every error group formed so far, in insertion
// (first-seen-primary) order.
func (a *Aggregator) Groups() []Group {
	return a.groups
}

// ErrorCount returns the total number of Error/Fatal-severity errors
// reported (across all groups), used by parserx to enforce max_errors
// in normal mode.
func (a *Aggregator) ErrorCount() int {
	n := 0
	for _, g := range a.groups {
		n += 1 + len(g.Related)
	}
	return n
}

// Reset clears all warnings and groups, for reuse across parses.
func (a *Aggregator) Reset() {
	a.warnings = a.warnings[:0]
	a.groups = a.groups[:0]
}

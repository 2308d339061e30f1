// Package memstream tokenizes a single, fully in-memory []byte against
// a declarative set of patterns, producing token.Token values that
// borrow directly from the input — no copying, no allocation once the
// Stream is constructed.
//
// Position tracking is byte-oriented: a newline resets the column to 1
// and advances the line; every other byte (including multi-byte UTF-8
// continuation bytes, which the framework treats as opaque since it
// operates on bytes, not runes) advances the column by one.
package memstream

import (
	"github.com/dgellow/zig-stream-parse-sub001/internal/invariant"
	"github.com/dgellow/zig-stream-parse-sub001/internal/pattern"
	"github.com/dgellow/zig-stream-parse-sub001/token"
)

// MatcherFunc is the custom token-recognizer capability, for token
// shapes the pattern algebra cannot express (context-sensitive runs,
// lookups against external state). It reports how many bytes starting
// at offset form this rule's token, or ok=false for no match. A
// matcher must be idempotent on failure: a failed call leaves no state
// behind and may be retried at the same offset with a longer input.
type MatcherFunc func(input []byte, offset int) (n int, ok bool)

// Rule binds a recognizer to the token.Kind emitted when it matches:
// either a declarative Pattern or a custom MatcherFunc, never both.
type Rule struct {
	Kind    token.Kind
	Pattern pattern.Pattern
	Match   MatcherFunc
}

// MatchAt runs the rule's recognizer against input at pos. Both token
// streams drive their matching loops through this, so declarative and
// custom rules are indistinguishable past construction.
func (r Rule) MatchAt(input []byte, pos int) (ok bool, n int) {
	if r.Match != nil {
		n, ok := r.Match(input, pos)
		return ok, n
	}
	return pattern.Match(r.Pattern, input, pos)
}

// PatternSet is the compiled, reusable description of a grammar's
// lexical layer: an ordered list of rules (first match wins, exactly
// like pattern.Alt) plus an optional skip pattern run between tokens
// (whitespace, comments, ...).
type PatternSet struct {
	skip  pattern.Pattern
	rules []Rule
}

// NewPatternSet builds a PatternSet. skip may be nil to disable
// inter-token skipping entirely. Rules are tried in order; construct
// the more specific rules first (e.g. keywords before a general
// identifier rule), the same priority discipline pattern.Alt uses.
func NewPatternSet(skip pattern.Pattern, rules ...Rule) *PatternSet {
	invariant.Precondition(len(rules) > 0, "PatternSet needs at least one rule")
	for _, r := range rules {
		invariant.Precondition((r.Pattern == nil) != (r.Match == nil),
			"rule for kind %d must set exactly one of Pattern or Match", r.Kind)
	}
	return &PatternSet{skip: skip, rules: rules}
}

// Rules returns the set's rules in match-priority order. Callers other
// than Stream (e.g. streamtok.Tokenizer, which matches over a moving
// buffer window instead of a fixed slice) use this to drive their own
// matching loop against the same declarative rule set.
func (s *PatternSet) Rules() []Rule { return s.rules }

// Skip returns the set's skip pattern, or nil if none is configured.
func (s *PatternSet) Skip() pattern.Pattern { return s.skip }

// Stream tokenizes a fixed in-memory buffer against a PatternSet.
type Stream struct {
	input  []byte
	set    *PatternSet
	pos    int
	line   uint32
	column uint32

	havePeek bool
	peeked   token.Token
}

// New creates a Stream over input using set.
func New(input []byte, set *PatternSet) *Stream {
	invariant.NotNil(set, "memstream.New requires a non-nil PatternSet")
	return &Stream{input: input, set: set, line: 1, column: 1}
}

// IsAtEnd reports whether the stream has no more non-EOF tokens to
// produce, ignoring any skip-pattern bytes still remaining.
func (s *Stream) IsAtEnd() bool {
	return s.skipPast() >= len(s.input)
}

// Remaining returns the unconsumed suffix of input, after the current
// position but before any skip-pattern run is applied.
func (s *Stream) Remaining() []byte {
	return s.input[min(s.pos, len(s.input)):]
}

// Peek returns the next token without consuming it. Calling Peek
// repeatedly returns the same token until Next is called.
func (s *Stream) Peek() token.Token {
	if !s.havePeek {
		s.peeked = s.scan()
		s.havePeek = true
	}
	return s.peeked
}

// Next returns the next token and advances past it. Once an EOF token
// has been returned, every subsequent call returns EOF again at the
// same position.
func (s *Stream) Next() token.Token {
	if s.havePeek {
		s.havePeek = false
		return s.peeked
	}
	return s.scan()
}

// skipPast runs the skip pattern repeatedly from s.pos and returns the
// resulting offset, without mutating stream state.
func (s *Stream) skipPast() int {
	pos := s.pos
	if s.set.skip == nil {
		return pos
	}
	for pos < len(s.input) {
		ok, n := pattern.Match(s.set.skip, s.input, pos)
		if !ok || n == 0 {
			break
		}
		pos += n
	}
	return pos
}

func (s *Stream) scan() token.Token {
	s.advanceThroughSkip()

	start := token.Position{Offset: uint64(s.pos), Line: s.line, Column: s.column}

	if s.pos >= len(s.input) {
		return token.Token{Kind: token.KindEOF, Position: start}
	}

	for _, rule := range s.set.rules {
		if ok, n := rule.MatchAt(s.input, s.pos); ok && n > 0 {
			text := s.input[s.pos : s.pos+n]
			s.advance(n)
			return token.Token{Kind: rule.Kind, Text: text, Position: start}
		}
	}

	// No rule recognized the byte at s.pos: emit a single-byte error
	// token and advance past it, so the stream always makes progress.
	text := s.input[s.pos : s.pos+1]
	s.advance(1)
	return token.Token{Kind: token.KindError, Text: text, Position: start}
}

func (s *Stream) advanceThroughSkip() {
	if s.set.skip == nil {
		return
	}
	for s.pos < len(s.input) {
		ok, n := pattern.Match(s.set.skip, s.input, s.pos)
		if !ok || n == 0 {
			break
		}
		s.advance(n)
	}
}

func (s *Stream) advance(n int) {
	for i := 0; i < n; i++ {
		if s.input[s.pos+i] == '\n' {
			s.line++
			s.column = 1
		} else {
			s.column++
		}
	}
	s.pos += n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Package pattern implements the compile-time composable pattern algebra:
// a pure value describing how to recognize a run of bytes, matched by a
// deterministic, non-backtracking (beyond a single alternation frontier)
// routine with no heap allocation on the match path.
//
// Patterns are built once, at init/construction time, from the
// constructors below — the target language's "natural constant
// expression facility". Match is total over every (pattern, input,
// offset) triple, including offset >= len(input); it never panics.
package pattern

import (
	"github.com/dgellow/zig-stream-parse-sub001/internal/charclass"
	"github.com/dgellow/zig-stream-parse-sub001/internal/invariant"
	"github.com/dgellow/zig-stream-parse-sub001/internal/simdscan"
)

// Pattern is an immutable, heap-free description of a byte-level match.
// The concrete variants are unexported; construct them with the
// functions below.
type Pattern interface {
	// match attempts to match starting at input[offset:]. It returns
	// whether the match succeeded and how many bytes it consumed.
	match(input []byte, offset int) (matched bool, n int)

	// nullable reports whether this pattern can match zero bytes. Used
	// only at construction time to reject patterns that would let
	// Seq/Alt/Rep loop forever without progress.
	nullable() bool
}

// Match runs pattern p against input starting at offset. It is total:
// offset may be >= len(input), in which case only Rep{min:0} can
// succeed (with n == 0).
func Match(p Pattern, input []byte, offset int) (matched bool, n int) {
	if offset < 0 {
		return false, 0
	}
	return p.match(input, offset)
}

// --- Literal ---

type literalPattern struct{ s []byte }

// Literal matches an exact byte sequence.
func Literal(s string) Pattern {
	invariant.Precondition(len(s) > 0, "Literal pattern must not be empty (use Rep with min:0 for optional)")
	return literalPattern{s: []byte(s)}
}

func (p literalPattern) match(input []byte, offset int) (bool, int) {
	end := offset + len(p.s)
	if offset < 0 || end > len(input) {
		return false, 0
	}
	for i, b := range p.s {
		if input[offset+i] != b {
			return false, 0
		}
	}
	return true, len(p.s)
}

func (p literalPattern) nullable() bool { return len(p.s) == 0 }

// --- Class ---

// AlphaClass is a pseudo-category usable only with the Class
// constructor: it expands to {alpha_lower, alpha_upper} per spec.
const AlphaClass charclass.Class = 0xff

// SpaceClass is a pseudo-category usable only with the Class
// constructor: it expands to {whitespace, newline} — the inter-token
// skip set most tokenizers want, since a bare whitespace class would
// stop at every line break.
const SpaceClass charclass.Class = 0xfe

type classPattern struct {
	c   charclass.Class
	not [256]bool // complement membership, precomputed at construction
}

// Class matches a single byte belonging to charclass.Class c. Passing
// AlphaClass matches either case of letter; SpaceClass matches
// whitespace or newline. Membership is flattened into a 256-entry
// table at construction, so matching is one lookup regardless of
// whether c is a plain or pseudo class.
func Class(c charclass.Class) Pattern {
	p := classPattern{c: c}
	for i := 0; i < 256; i++ {
		if !classMember(c, charclass.Of(byte(i))) {
			p.not[i] = true
		}
	}
	return p
}

func classMember(c, of charclass.Class) bool {
	switch c {
	case AlphaClass:
		return charclass.IsAlpha(of)
	case SpaceClass:
		return of == charclass.Whitespace || of == charclass.Newline
	default:
		return of == c
	}
}

func (p classPattern) match(input []byte, offset int) (bool, int) {
	if offset >= len(input) || p.not[input[offset]] {
		return false, 0
	}
	return true, 1
}

func (p classPattern) nullable() bool { return false }

// runEnd routes each class to its bulk scanner: the dedicated run
// scans where one exists, the complement-set search otherwise.
func (p classPattern) runEnd(input []byte, offset int) int {
	switch p.c {
	case SpaceClass:
		return simdscan.SkipWhitespace(input, offset)
	case AlphaClass:
		return simdscan.EndOfAlphaRun(input, offset)
	case charclass.Digit:
		return simdscan.EndOfDigitRun(input, offset)
	default:
		return simdscan.FindAnyOf(input, offset, p.not)
	}
}

// --- AnyOf ---

type anyOfPattern struct {
	set [256]bool
	not [256]bool
}

// AnyOf matches a single byte that is a member of set. set may contain
// up to 256 distinct bytes; membership is a compile-time 256-bit table.
func AnyOf(set string) Pattern {
	invariant.Precondition(len(set) > 0, "AnyOf pattern must not be empty")
	p := anyOfPattern{}
	for i := 0; i < 256; i++ {
		p.not[i] = true
	}
	for i := 0; i < len(set); i++ {
		p.set[set[i]] = true
		p.not[set[i]] = false
	}
	return p
}

func (p anyOfPattern) match(input []byte, offset int) (bool, int) {
	if offset >= len(input) {
		return false, 0
	}
	if p.set[input[offset]] {
		return true, 1
	}
	return false, 0
}

func (p anyOfPattern) nullable() bool { return false }

func (p anyOfPattern) runEnd(input []byte, offset int) int {
	return simdscan.FindAnyOf(input, offset, p.not)
}

// --- Range ---

type rangePattern struct{ lo, hi byte }

// Range matches a single byte b with lo <= b <= hi.
func Range(lo, hi byte) Pattern {
	invariant.Precondition(lo <= hi, "Range requires lo <= hi")
	return rangePattern{lo: lo, hi: hi}
}

func (p rangePattern) match(input []byte, offset int) (bool, int) {
	if offset >= len(input) {
		return false, 0
	}
	b := input[offset]
	if b >= p.lo && b <= p.hi {
		return true, 1
	}
	return false, 0
}

func (p rangePattern) nullable() bool { return false }

// --- Any ---

type anyPattern struct{}

// Any matches any single byte, succeeding at any non-end offset.
func Any() Pattern { return anyPattern{} }

func (p anyPattern) match(input []byte, offset int) (bool, int) {
	if offset >= len(input) {
		return false, 0
	}
	return true, 1
}

func (p anyPattern) nullable() bool { return false }

// --- Seq ---

type seqPattern struct{ parts []Pattern }

// Seq matches every pattern in parts, in order, concatenated. On the
// first failure the whole sequence fails with n == 0.
func Seq(parts ...Pattern) Pattern {
	invariant.Precondition(len(parts) > 0, "Seq must have at least one part")
	p := seqPattern{parts: parts}
	invariant.Precondition(!p.nullable(), "Seq must not be able to match empty (every part is nullable)")
	return p
}

func (p seqPattern) match(input []byte, offset int) (bool, int) {
	total := 0
	pos := offset
	for _, part := range p.parts {
		ok, n := part.match(input, pos)
		if !ok {
			return false, 0
		}
		pos += n
		total += n
	}
	return true, total
}

func (p seqPattern) nullable() bool {
	for _, part := range p.parts {
		if !part.nullable() {
			return false
		}
	}
	return true
}

// --- Alt ---

type altPattern struct{ branches []Pattern }

// Alt tries each branch in declaration order; the first that matches
// wins, even if a later branch would match more bytes. Predictable,
// branch-friendly, priority is the caller's to control.
func Alt(branches ...Pattern) Pattern {
	invariant.Precondition(len(branches) > 0, "Alt must have at least one branch")
	for _, b := range branches {
		invariant.Precondition(!b.nullable(), "Alt branch must not be nullable (would make priority ambiguous on empty input)")
	}
	return altPattern{branches: branches}
}

func (p altPattern) match(input []byte, offset int) (bool, int) {
	for _, b := range p.branches {
		if ok, n := b.match(input, offset); ok {
			return true, n
		}
	}
	return false, 0
}

func (p altPattern) nullable() bool {
	for _, b := range p.branches {
		if b.nullable() {
			return true
		}
	}
	return false
}

// --- Rep ---

// Unbounded is the sentinel for Rep's max meaning "no upper bound".
const Unbounded = -1

type repPattern struct {
	min, max int // max == Unbounded means unbounded
	inner    Pattern
}

// Rep matches inner greedily, min..max times (max == Unbounded for no
// upper bound), non-backtracking: it stops at the first failed
// iteration or once max is reached, and succeeds iff it matched at
// least min times. Rep{min:0} matching zero bytes is the one
// construction allowed to report matched=true with n==0.
func Rep(min, max int, inner Pattern) Pattern {
	invariant.Precondition(min >= 0, "Rep min must be >= 0")
	invariant.Precondition(max == Unbounded || max >= min, "Rep max must be Unbounded or >= min")
	if min > 0 {
		invariant.Precondition(!inner.nullable(), "Rep with min>0 over a nullable inner pattern would loop without progress")
	}
	return repPattern{min: min, max: max, inner: inner}
}

// OneOrMore is sugar for Rep(1, Unbounded, inner).
func OneOrMore(inner Pattern) Pattern { return Rep(1, Unbounded, inner) }

// ZeroOrMore is sugar for Rep(0, Unbounded, inner).
func ZeroOrMore(inner Pattern) Pattern { return Rep(0, Unbounded, inner) }

// Optional is sugar for Rep(0, 1, inner).
func Optional(inner Pattern) Pattern { return Rep(0, 1, inner) }

// Then is sugar for Seq(p, next).
func Then(p, next Pattern) Pattern { return Seq(p, next) }

// runScanner is the bulk-scan capability: a single-byte pattern whose
// repetition can be resolved as one whole-run scan. Rep uses it to
// jump over the run a word at a time instead of re-entering match once
// per byte.
type runScanner interface {
	runEnd(input []byte, offset int) int
}

func (p repPattern) match(input []byte, offset int) (bool, int) {
	if rs, ok := p.inner.(runScanner); ok {
		start := offset
		if start > len(input) {
			start = len(input)
		}
		// Each inner iteration consumes exactly one byte, so the run
		// length is the iteration count.
		count := rs.runEnd(input, start) - start
		if p.max != Unbounded && count > p.max {
			count = p.max
		}
		if count < p.min {
			return false, 0
		}
		return true, count
	}

	count := 0
	pos := offset
	total := 0
	for p.max == Unbounded || count < p.max {
		ok, n := p.inner.match(input, pos)
		if !ok || n == 0 {
			// A zero-length inner match would loop forever; treat it
			// as "no more progress possible" and stop the repetition.
			break
		}
		pos += n
		total += n
		count++
	}
	if count < p.min {
		return false, 0
	}
	return true, total
}

func (p repPattern) nullable() bool { return p.min == 0 }

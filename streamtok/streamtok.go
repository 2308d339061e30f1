// Package streamtok implements the streaming tokenizer: it drives a
// buffer.Buffer from a source.Source and a memstream.PatternSet,
// pulling only as many bytes as needed to recognize the next token.
// The tokenizer owns the Buffer across calls rather than re-reading
// the whole source each time, so a token can straddle two reads
// without the caller noticing.
package streamtok

import (
	"errors"

	"github.com/dgellow/zig-stream-parse-sub001/buffer"
	"github.com/dgellow/zig-stream-parse-sub001/internal/invariant"
	"github.com/dgellow/zig-stream-parse-sub001/internal/pattern"
	"github.com/dgellow/zig-stream-parse-sub001/memstream"
	"github.com/dgellow/zig-stream-parse-sub001/source"
	"github.com/dgellow/zig-stream-parse-sub001/token"
)

// ErrOutOfMemory is returned when a token-local Arena's fixed capacity
// is exceeded.
var ErrOutOfMemory = errors.New("streamtok: arena out of memory")

// ErrBufferOverflow is returned when the buffer cannot hold the bytes
// needed to recognize the next token without exceeding its max
// capacity.
var ErrBufferOverflow = errors.New("streamtok: buffer overflow, input exceeds max capacity")

const (
	defaultInitialCapacity = 4096
	defaultMinLookahead    = 64
	readScratchSize        = 4096
)

// Option configures a Tokenizer at construction.
type Option func(*Tokenizer)

// WithBufferOptions forwards options to the underlying buffer.Buffer.
func WithBufferOptions(opts ...buffer.Option) Option {
	return func(t *Tokenizer) { t.bufOpts = append(t.bufOpts, opts...) }
}

// WithInitialCapacity sets the buffer's starting capacity. Default 4096.
func WithInitialCapacity(n int) Option {
	invariant.Precondition(n > 0, "initial capacity must be > 0")
	return func(t *Tokenizer) { t.initialCapacity = n }
}

// WithMinLookahead sets how many live bytes the tokenizer tries to keep
// buffered before attempting a match, so that patterns spanning more
// than one source.Read chunk still match correctly. Default 64.
func WithMinLookahead(n int) Option {
	invariant.Precondition(n > 0, "min lookahead must be > 0")
	return func(t *Tokenizer) { t.minLookahead = n }
}

// WithArena enables the token-local arena: Next copies every returned
// token's Text into arena memory of the given fixed capacity, so it
// remains valid across buffer mutations until the next ResetArena call.
// Without this option, Token.Text borrows directly from the buffer and
// is only valid until the next Next call.
func WithArena(capacity int) Option {
	invariant.Precondition(capacity > 0, "arena capacity must be > 0")
	return func(t *Tokenizer) { t.arena = NewArena(capacity) }
}

// Tokenizer pulls bytes from a source.Source through a buffer.Buffer
// and tokenizes them against a memstream.PatternSet.
type Tokenizer struct {
	buf     *buffer.Buffer
	src     source.Source
	set     *memstream.PatternSet
	arena   *Arena
	scratch []byte

	bufOpts         []buffer.Option
	initialCapacity int
	minLookahead    int

	offset          uint64
	line, column    uint32
	sourceExhausted bool
	wouldBlock      bool
}

// New creates a Tokenizer reading from src and matching against set.
func New(src source.Source, set *memstream.PatternSet, opts ...Option) *Tokenizer {
	invariant.NotNil(src, "streamtok.New requires a non-nil Source")
	invariant.NotNil(set, "streamtok.New requires a non-nil PatternSet")
	t := &Tokenizer{
		src:             src,
		set:             set,
		initialCapacity: defaultInitialCapacity,
		minLookahead:    defaultMinLookahead,
		line:            1,
		column:          1,
		scratch:         make([]byte, readScratchSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.buf = buffer.New(t.initialCapacity, t.bufOpts...)
	return t
}

// ResetArena resets the token-local arena, if one is configured, back
// to empty. Call this between consumer-defined checkpoints (typically
// between top-level records) to reclaim its fixed capacity.
func (t *Tokenizer) ResetArena() {
	if t.arena != nil {
		t.arena.Reset()
	}
}

// Stats exposes the underlying buffer's lifetime counters.
func (t *Tokenizer) Stats() buffer.Stats { return t.buf.Stats() }

// fill tops up the buffer until it holds at least minLookahead live
// bytes or the source is exhausted. It reports whether it managed to
// add any new bytes, so callers can detect a stalled boundary match.
// A source.ErrWouldBlock read does not fail the fill: it sets the
// wouldBlock flag and stops, so Next can still drain every token the
// already-buffered bytes complete before suspending.
func (t *Tokenizer) fill() (grew bool, err error) {
	t.wouldBlock = false
	for !t.sourceExhausted && t.buf.Live() < t.minLookahead {
		n, readErr := t.src.Read(t.scratch)
		if errors.Is(readErr, source.ErrWouldBlock) {
			t.wouldBlock = true
			return grew, nil
		}
		if readErr != nil {
			return grew, readErr
		}
		if n == 0 {
			t.sourceExhausted = true
			break
		}
		if t.buf.Append(t.scratch[:n]) == buffer.ErrBufferOverflow {
			return grew, ErrBufferOverflow
		}
		grew = true
	}
	return grew, nil
}

// Next implements the five-step streaming algorithm: fill, match,
// emit-error-on-no-match, loop-on-skip-kind, borrow-or-arena-copy.
func (t *Tokenizer) Next() (token.Token, error) {
	for {
		if _, err := t.fill(); err != nil {
			return token.Token{}, err
		}

		if skipped, err := t.consumeSkipRun(); err != nil {
			return token.Token{}, err
		} else if skipped {
			continue
		}

		start := token.Position{Offset: t.offset, Line: t.line, Column: t.column}

		if t.buf.Live() == 0 {
			if t.sourceExhausted {
				return token.Token{Kind: token.KindEOF, Position: start}, nil
			}
			if t.wouldBlock {
				return token.Token{}, source.ErrWouldBlock
			}
			continue
		}

		kind, n, ok, err := t.matchRules()
		if err != nil {
			return token.Token{}, err
		}
		if !ok {
			// A failed match over a short window may just be an
			// incomplete token (the closing quote hasn't arrived yet);
			// suspend rather than misreport it as an unknown byte.
			if t.wouldBlock && !t.sourceExhausted && t.buf.Live() < t.minLookahead {
				return token.Token{}, source.ErrWouldBlock
			}
			text, textErr := t.takeText(1)
			if textErr != nil {
				return token.Token{}, textErr
			}
			t.advance(1)
			return token.Token{Kind: token.KindError, Text: text, Position: start}, nil
		}

		text, textErr := t.takeText(n)
		if textErr != nil {
			return token.Token{}, textErr
		}
		t.advance(n)
		return token.Token{Kind: kind, Text: text, Position: start}, nil
	}
}

// consumeSkipRun matches and discards one run of the set's skip
// pattern from the head of the buffer, refilling and retrying while
// the run reaches exactly the end of the live window (it may continue
// past a read boundary).
func (t *Tokenizer) consumeSkipRun() (bool, error) {
	skip := t.set.Skip()
	if skip == nil {
		return false, nil
	}
	any := false
	for {
		window := t.buf.PeekWindow()
		ok, n := pattern.Match(skip, window, 0)
		if !ok || n == 0 {
			return any, nil
		}
		any = true
		atBoundary := n == len(window) && !t.sourceExhausted
		t.advance(n)
		if !atBoundary {
			return any, nil
		}
		if _, err := t.fill(); err != nil {
			return any, err
		}
	}
}

// matchRules tries the set's rules over the live window, refilling and
// retrying for as long as the best match reaches exactly the end of the
// window and the source might still extend it (a greedy pattern
// straddling a read boundary). Each refill asks for at least one byte
// beyond the current window, whatever minLookahead is.
func (t *Tokenizer) matchRules() (token.Kind, int, bool, error) {
	for {
		kind, n, ok := t.bestRuleMatch()
		if !ok {
			return 0, 0, false, nil
		}
		if n != t.buf.Live() || t.sourceExhausted {
			return kind, n, true, nil
		}
		// fill stops at minLookahead live bytes; raise the target for
		// this one call so it reads past the current window.
		saved := t.minLookahead
		if want := t.buf.Live() + 1; t.minLookahead < want {
			t.minLookahead = want
		}
		grew, err := t.fill()
		t.minLookahead = saved
		if err != nil {
			return 0, 0, false, err
		}
		if !grew {
			if t.wouldBlock {
				// More bytes may still extend this greedy match; leave
				// it buffered and suspend instead of splitting it.
				return 0, 0, false, source.ErrWouldBlock
			}
			return kind, n, true, nil
		}
		// Retry now that more bytes are live; loop.
	}
}

func (t *Tokenizer) bestRuleMatch() (token.Kind, int, bool) {
	window := t.buf.PeekWindow()
	for _, rule := range t.set.Rules() {
		if ok, n := rule.MatchAt(window, 0); ok && n > 0 {
			return rule.Kind, n, true
		}
	}
	return 0, 0, false
}

func (t *Tokenizer) takeText(n int) ([]byte, error) {
	src := t.buf.PeekWindow()[:n]
	if t.arena == nil {
		return src, nil
	}
	return t.arena.Alloc(src)
}

func (t *Tokenizer) advance(n int) {
	window := t.buf.PeekWindow()
	for i := 0; i < n; i++ {
		if window[i] == '\n' {
			t.line++
			t.column = 1
		} else {
			t.column++
		}
	}
	t.buf.ConsumeN(n)
	t.offset += uint64(n)
}

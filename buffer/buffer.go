// Package buffer implements the incremental ring/linear buffer the
// streaming tokenizer reads through: a contiguous byte store holding a
// live window [start, end) inside a capacity region, grown by a fixed
// factor and compacted opportunistically to reclaim consumed bytes.
// Every mutating call checks its own preconditions via
// internal/invariant rather than trusting callers to hold the buffer's
// invariants themselves.
package buffer

import "github.com/dgellow/zig-stream-parse-sub001/internal/invariant"

const (
	growthFactor            = 1.5
	defaultCompactThreshold = 0.25
)

// ErrKind enumerates the buffer's own failure modes. Buffer never
// returns a Go error value for these — the spec's contract requires a
// typed outcome the caller can branch on without allocating, so Buffer
// exposes them as explicit return values instead (see Append).
type ErrKind int

const (
	// ErrNone indicates success.
	ErrNone ErrKind = iota
	// ErrBufferOverflow indicates append would need more than
	// max_capacity bytes of live+new content.
	ErrBufferOverflow
)

// Stats reports the buffer's lifetime counters.
type Stats struct {
	Capacity      int
	Live          int
	ConsumedTotal uint64
	Compactions   uint64
	Growths       uint64
	PeakCapacity  int
}

// Buffer is a growable byte store with a live window [start, end)
// inside data[:cap(data)]. It is not safe for concurrent use.
type Buffer struct {
	data  []byte
	start int
	end   int

	maxCapacity      int
	compactThreshold float64

	consumedTotal uint64
	compactions   uint64
	growths       uint64
	peakCapacity  int

	memoryBacked bool
	source       []byte // only valid when memoryBacked
}

// Option configures a Buffer at construction.
type Option func(*Buffer)

// WithMaxCapacity sets the hard cap on growth. Default: no explicit
// cap beyond Go's own slice limits (effectively unbounded).
func WithMaxCapacity(max int) Option {
	invariant.Precondition(max > 0, "WithMaxCapacity requires max > 0")
	return func(b *Buffer) { b.maxCapacity = max }
}

// WithCompactThreshold overrides the consumed-prefix fraction that
// triggers opportunistic compaction on Append. Default: 0.25.
func WithCompactThreshold(threshold float64) Option {
	invariant.Precondition(threshold > 0 && threshold < 1, "compact threshold must be in (0,1)")
	return func(b *Buffer) { b.compactThreshold = threshold }
}

// New creates an empty Buffer with the given initial capacity.
func New(initialCapacity int, opts ...Option) *Buffer {
	invariant.Precondition(initialCapacity > 0, "initial capacity must be > 0")
	b := &Buffer{
		data:             make([]byte, initialCapacity),
		maxCapacity:      0,
		compactThreshold: defaultCompactThreshold,
		peakCapacity:     initialCapacity,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxCapacity > 0 {
		invariant.Precondition(b.maxCapacity >= initialCapacity, "max capacity must be >= initial capacity")
	}
	return b
}

// NewFromSource builds a memory-backed Buffer directly over source,
// with the whole of it already live. Reset is only legal on a buffer
// built this way.
func NewFromSource(source []byte) *Buffer {
	b := &Buffer{
		data:             source,
		end:              len(source),
		maxCapacity:      len(source),
		compactThreshold: defaultCompactThreshold,
		peakCapacity:     len(source),
		memoryBacked:     true,
		source:           source,
	}
	return b
}

// Live returns the number of unconsumed bytes currently buffered.
func (b *Buffer) Live() int { return b.end - b.start }

// Capacity returns the current backing capacity.
func (b *Buffer) Capacity() int { return len(b.data) }

// IsAtEnd reports whether there is no live data left.
func (b *Buffer) IsAtEnd() bool { return b.Live() == 0 }

// Peek returns the first live byte, or (0, false) if the live region
// is empty. The returned byte is only valid until the next mutating
// call (Append, Consume, Compact, Reset).
func (b *Buffer) Peek() (byte, bool) {
	return b.PeekAt(0)
}

// PeekAt returns the byte at offset k from start, or (0, false) if
// k >= Live().
func (b *Buffer) PeekAt(k int) (byte, bool) {
	invariant.Precondition(k >= 0, "PeekAt requires k >= 0")
	if k >= b.Live() {
		return 0, false
	}
	return b.data[b.start+k], true
}

// PeekWindow returns the live region as a slice, valid only until the
// next mutating call.
func (b *Buffer) PeekWindow() []byte {
	return b.data[b.start:b.end]
}

// Consume returns and advances past one byte, or (0, false) if the
// live region is empty.
func (b *Buffer) Consume() (byte, bool) {
	if b.Live() == 0 {
		return 0, false
	}
	c := b.data[b.start]
	b.start++
	b.consumedTotal++
	return c, true
}

// ConsumeN advances past n bytes of the live region. Precondition:
// n <= Live().
func (b *Buffer) ConsumeN(n int) {
	invariant.InRange(n, 0, b.Live(), "ConsumeN n")
	b.start += n
	b.consumedTotal += uint64(n)
}

// Append copies data into the free region, compacting or growing as
// needed. It returns ErrBufferOverflow if the total live+new content
// would exceed max_capacity (when one is configured).
func (b *Buffer) Append(data []byte) ErrKind {
	invariant.Precondition(!b.memoryBacked, "Append is not valid on a memory-backed Buffer")
	if len(data) == 0 {
		return ErrNone
	}

	if b.start > 0 && b.freeSpace() < len(data) {
		b.Compact()
	}

	needed := b.Live() + len(data)
	if b.maxCapacity > 0 && needed > b.maxCapacity {
		return ErrBufferOverflow
	}
	if cap(b.data) < needed {
		if !b.grow(needed) {
			return ErrBufferOverflow
		}
	}

	n := copy(b.data[b.end:cap(b.data)], data)
	b.end += n

	if b.shouldCompact() {
		b.Compact()
	}
	return ErrNone
}

// Compact moves the live region [start, end) to [0, end-start), making
// the consumed prefix's space available again. Byte-for-byte content
// of the live region is unchanged. O(live size).
func (b *Buffer) Compact() {
	if b.start == 0 {
		return
	}
	live := b.Live()
	copy(b.data[0:live], b.data[b.start:b.end])
	b.start = 0
	b.end = live
	b.compactions++
}

// Reset re-points the buffer at offset 0 of its backing source. Legal
// only for memory-backed buffers built with NewFromSource.
func (b *Buffer) Reset() {
	invariant.Precondition(b.memoryBacked, "Reset is only legal on a memory-backed Buffer")
	b.start = 0
	b.end = len(b.source)
}

// Stats returns the buffer's lifetime counters.
func (b *Buffer) Stats() Stats {
	return Stats{
		Capacity:      cap(b.data),
		Live:          b.Live(),
		ConsumedTotal: b.consumedTotal,
		Compactions:   b.compactions,
		Growths:       b.growths,
		PeakCapacity:  b.peakCapacity,
	}
}

func (b *Buffer) freeSpace() int {
	return cap(b.data) - b.end
}

func (b *Buffer) shouldCompact() bool {
	if b.start == 0 || cap(b.data) == 0 {
		return false
	}
	return float64(b.start)/float64(cap(b.data)) >= b.compactThreshold
}

// grow expands the backing store until it can hold needed bytes,
// multiplying capacity by growthFactor each step (capped at
// max_capacity, when configured), preserving the live region.
func (b *Buffer) grow(needed int) bool {
	newCap := cap(b.data)
	for newCap < needed {
		prevCap := newCap
		next := int(float64(newCap) * growthFactor)
		if next <= newCap {
			next = newCap + 1
		}
		if b.maxCapacity > 0 && next > b.maxCapacity {
			next = b.maxCapacity
		}
		newCap = next
		invariant.Invariant(newCap > prevCap, "grow must increase capacity each iteration, stuck at %d", newCap)
		if b.maxCapacity > 0 && newCap >= b.maxCapacity {
			newCap = b.maxCapacity
			break
		}
	}
	if newCap < needed {
		return false
	}
	invariant.Positive(newCap, "grown capacity")
	grown := make([]byte, newCap)
	copy(grown, b.data[:b.end])
	b.data = grown
	b.growths++
	if newCap > b.peakCapacity {
		b.peakCapacity = newCap
	}
	return true
}

package source

import "errors"

// ErrWouldBlock is returned by Push.Read when no bytes are currently
// queued and the source has not been closed: the caller has consumed
// everything fed so far but more may still arrive. streamtok.Tokenizer
// propagates it unchanged, so incremental parsing suspends cleanly at
// a chunk boundary instead of treating "need more bytes" as an error.
var ErrWouldBlock = errors.New("source: would block, no data available yet")

// Push is a Source fed by explicit Feed calls rather than pulled from
// an underlying reader — the producer side of parserx's incremental
// ProcessChunk/Finish API. Unlike Memory, a Push source's end-of-stream
// is not implicit in its length; it is only reached after Close.
type Push struct {
	queue  [][]byte
	off    int
	closed bool
}

// NewPush creates an empty Push source.
func NewPush() *Push { return &Push{} }

// Feed enqueues a chunk of bytes to be returned by subsequent Read
// calls, in order. Feed after Close is a programmer error the caller
// must avoid; Push does not itself validate it (Close is terminal by
// convention, not by enforced precondition, to keep the hot path
// allocation-free).
func (p *Push) Feed(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	p.queue = append(p.queue, chunk)
}

// Close marks the source exhausted: once every queued chunk has been
// drained, Read returns (0, nil) permanently.
func (p *Push) Close() { p.closed = true }

func (p *Push) Read(dst []byte) (int, error) {
	for len(p.queue) > 0 && p.off >= len(p.queue[0]) {
		p.queue = p.queue[1:]
		p.off = 0
	}
	if len(p.queue) == 0 {
		if p.closed {
			return 0, nil
		}
		return 0, ErrWouldBlock
	}
	n := copy(dst, p.queue[0][p.off:])
	p.off += n
	return n, nil
}

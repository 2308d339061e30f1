// Package token defines the common currency every tokenizer in this
// framework produces: a Token with its source Position, independent of
// whether it came from an in-memory stream or an incremental one.
package token

import "fmt"

// Kind identifies a token's lexical category. Each consumer (jsonlex,
// csvlex, ...) defines its own Kind constants starting at KindUserBase;
// the reserved low values are shared structural markers every parser
// needs regardless of grammar.
type Kind uint32

const (
	// KindEOF marks the end of input. Once a stream has returned it,
	// every later call returns it again.
	KindEOF Kind = iota
	// KindError marks a span that no pattern recognized; Text holds the
	// offending bytes (usually a single byte) so callers can report it.
	KindError
	// KindUserBase is the first Kind value available to a consumer's own
	// token taxonomy.
	KindUserBase Kind = 16
)

// Position locates a token in its source: a byte offset plus the
// 1-indexed line and column derived from it.
type Position struct {
	Offset uint64
	Line   uint32
	Column uint32
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a zero-copy view into the source buffer: Text borrows
// directly from it and is only valid as long as that buffer is not
// reused or overwritten (see buffer.Buffer.Compact).
type Token struct {
	Kind     Kind
	Text     []byte
	Position Position
}

// IsEOF reports whether t is the terminal end-of-stream token.
func (t Token) IsEOF() bool { return t.Kind == KindEOF }

// IsError reports whether t represents an unrecognized span.
func (t Token) IsError() bool { return t.Kind == KindError }

func (t Token) String() string {
	return fmt.Sprintf("%s@%s %q", t.kindLabel(), t.Position, t.Text)
}

func (t Token) kindLabel() string {
	switch t.Kind {
	case KindEOF:
		return "EOF"
	case KindError:
		return "ERROR"
	default:
		return fmt.Sprintf("KIND(%d)", t.Kind)
	}
}

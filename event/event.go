// Package event defines the document events a parserx.Parser dispatches
// to a single registered handler: start_document and end_document
// exactly once each, start_element/end_element/value from actions, and
// error immediately before the aggregator sees it. Events are
// stack-allocated values the emitter never retains.
//
// Handler keeps dynamic dispatch to a single function-pointer
// capability: a function plus an opaque user pointer, rather than an
// interface or a buffered event log, so events are dispatched
// synchronously one at a time as they occur instead of collected into
// a tree the caller walks afterward.
package event

import (
	"unsafe"

	"github.com/dgellow/zig-stream-parse-sub001/perror"
	"github.com/dgellow/zig-stream-parse-sub001/token"
)

// Kind discriminates the Event union.
type Kind int

const (
	StartDocument Kind = iota
	EndDocument
	StartElement
	EndElement
	Value
	Error
)

func (k Kind) String() string {
	switch k {
	case StartDocument:
		return "start_document"
	case EndDocument:
		return "end_document"
	case StartElement:
		return "start_element"
	case EndElement:
		return "end_element"
	case Value:
		return "value"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a stack-allocated, tagged-union notification. Only the
// fields relevant to Kind are populated; the emitter never retains an
// Event past the handler call it was passed to.
type Event struct {
	Kind     Kind
	Position token.Position

	// StartElement / EndElement; a Value may also carry one
	Name string

	// Value
	Text []byte

	// Error
	Code    perror.Code
	Message string
}

// Handler is the FFI-ready capability: a plain function plus an
// opaque user pointer, so `(event, user) -> error` can cross a
// language boundary without any Go-specific type going with it.
type Handler func(ev Event, user unsafe.Pointer) error

// Func adapts a pure-Go callback (no opaque pointer needed) into a
// Handler, for callers that don't go through the FFI boundary.
type Func func(ev Event) error

// AsHandler lifts f into a Handler that ignores the user pointer.
func (f Func) AsHandler() Handler {
	return func(ev Event, _ unsafe.Pointer) error { return f(ev) }
}

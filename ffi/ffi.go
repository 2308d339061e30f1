// Package ffi implements an opaque-handle boundary API: parser
// lifecycle, parsing, and error-inspection operations, plus the result
// codes and event-type integers, over a handle table keyed by an
// atomic counter so that no Go-specific type ever needs to cross a
// language boundary.
//
// Handles are minted from an atomic.Uint64 counter over a sync.Map
// handle table, giving uniqueness across threads even though parsing
// itself is not concurrent, without any hand-rolled memory ordering.
//
// This package stands in for the C ABI a non-Go caller would actually
// use, so it is deliberately an external collaborator around the core
// rather than part of it. What follows implements a useful,
// JSON-Schema-validated subset of grammar description — enough to
// drive the core end-to-end from a non-Go caller — not a claim that
// every conceivable grammar is expressible through create_parser's
// grammar_blob format.
package ffi

import (
	"crypto/sha256"
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/fxamacker/cbor/v2"

	"github.com/dgellow/zig-stream-parse-sub001/event"
	"github.com/dgellow/zig-stream-parse-sub001/fsm"
	"github.com/dgellow/zig-stream-parse-sub001/memstream"
	"github.com/dgellow/zig-stream-parse-sub001/parserx"
	"github.com/dgellow/zig-stream-parse-sub001/perror"
)

// Handle is an opaque parser reference. The zero value is never
// issued by create_parser/create_format_parser, so it safely doubles
// as "no handle".
type Handle uint64

// ResultCode is the closed set of outcomes every boundary operation
// returns instead of a Go error.
type ResultCode int

const (
	OK ResultCode = iota
	UNKNOWN
	OOM
	IO
	EOF
	INVALID_HANDLE
	INVALID_ARGUMENT
	INVALID_STATE
	UNEXPECTED_TOKEN
	PARSER_CONFIG
	NOT_IMPLEMENTED
)

// EventType is the boundary's event-type integer, matching event.Kind's
// ordering offset by one (event.Kind is zero-based for Go-internal
// use; the FFI table is 1-based, leaving 0 free as "no event").
type EventType int

const (
	StartDocument EventType = iota + 1
	EndDocument
	StartElement
	EndElement
	Value
	Error
)

func toEventType(k event.Kind) EventType { return EventType(k) + 1 }

var (
	nextHandle  atomic.Uint64
	initialized atomic.Bool
	handles     sync.Map // Handle -> *entry
)

// canonicalEncMode mirrors aggregator's deterministic CBOR mode so the
// same fsm.Table always hashes to the same cache key regardless of
// encoding order.
var canonicalEncMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

type compiledGrammar struct {
	set      *memstream.PatternSet
	table    fsm.Table
	initial  uint32
	recovery fsm.Recovery
	names    []string
}

// grammarCache lets parsers whose compiled fsm.Table matches one seen
// before share a single compiledGrammar. Every grammar_blob is still
// compiled; the cache only dedupes the result. Two byte-different blobs
// (differing only in whitespace or rule ordering, say) can compile down
// to an identical table, so the cache key is the table's canonical CBOR
// hash rather than the raw blob's.
var grammarCache sync.Map // [32]byte -> *compiledGrammar

func cachedCompileGrammar(grammarBlob []byte) (*compiledGrammar, error) {
	set, table, initial, recovery, names, err := compileGrammar(grammarBlob)
	if err != nil {
		return nil, err
	}
	enc, err := canonicalEncMode.Marshal(table)
	if err != nil {
		return &compiledGrammar{set: set, table: table, initial: initial, recovery: recovery, names: names}, nil
	}
	key := sha256.Sum256(enc)
	if cached, ok := grammarCache.Load(key); ok {
		g := cached.(*compiledGrammar)
		return &compiledGrammar{set: set, table: g.table, initial: initial, recovery: recovery, names: names}, nil
	}
	g := &compiledGrammar{set: set, table: table, initial: initial, recovery: recovery, names: names}
	grammarCache.Store(key, g)
	return g, nil
}

type entry struct {
	mu        sync.Mutex
	parser    *parserx.Parser
	lastErr   string
	lastCode  ResultCode
}

// Init performs one-time process-wide setup. Calling it more than
// once is harmless (idempotent).
func Init() ResultCode {
	initialized.Store(true)
	return OK
}

// Shutdown tears down every remaining handle. Safe to call even if
// Init was never called.
func Shutdown() ResultCode {
	handles.Range(func(key, _ interface{}) bool {
		handles.Delete(key)
		return true
	})
	initialized.Store(false)
	return OK
}

func mint(p *parserx.Parser) Handle {
	id := nextHandle.Add(1)
	h := Handle(id)
	handles.Store(h, &entry{parser: p})
	return h
}

func lookup(h Handle) (*entry, bool) {
	v, ok := handles.Load(h)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// CreateParser validates grammarBlob (a JSON grammar description)
// against the embedded schema, compiles it into a PatternSet + fsm.Table,
// and mints a handle for the resulting Parser.
func CreateParser(grammarBlob []byte) (Handle, ResultCode) {
	g, err := cachedCompileGrammar(grammarBlob)
	if err != nil {
		return 0, PARSER_CONFIG
	}
	p := parserx.New(g.set, g.table,
		parserx.WithInitialState(g.initial),
		parserx.WithRecovery(g.recovery),
		parserx.WithRecoveryHintNames(g.names),
	)
	return mint(p), OK
}

// CreateFormatParser mints a handle for a built-in named grammar
// (registered by examples/jsonlex, examples/csvlex via RegisterFormat).
func CreateFormatParser(name string) (Handle, ResultCode) {
	factory, ok := formatRegistry[name]
	if !ok {
		return 0, INVALID_ARGUMENT
	}
	return mint(factory()), OK
}

// formatRegistry maps a format name to a Parser factory. Populated by
// RegisterFormat, called from each example consumer's package init.
var formatRegistry = map[string]func() *parserx.Parser{}

// RegisterFormat adds a named built-in grammar to create_format_parser's
// registry. Example consumer packages call this from init().
func RegisterFormat(name string, factory func() *parserx.Parser) {
	formatRegistry[name] = factory
}

// DestroyParser releases handle h. Using h afterward returns
// INVALID_HANDLE.
func DestroyParser(h Handle) ResultCode {
	if _, ok := lookup(h); !ok {
		return INVALID_HANDLE
	}
	handles.Delete(h)
	return OK
}

// SetEventHandler binds fn (plus its opaque user pointer) as h's
// event handler.
func SetEventHandler(h Handle, fn event.Handler, user unsafe.Pointer) ResultCode {
	e, ok := lookup(h)
	if !ok {
		return INVALID_HANDLE
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parser.SetEventHandler(fn, user)
	return OK
}

// ParseString runs the blocking model over bytes.
func ParseString(h Handle, bytes []byte) ResultCode {
	e, ok := lookup(h)
	if !ok {
		return INVALID_HANDLE
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.parser.ParseString(bytes); err != nil {
		return e.record(err)
	}
	return OK
}

// ParseChunk feeds one chunk to h's incremental parser.
func ParseChunk(h Handle, chunk []byte) ResultCode {
	e, ok := lookup(h)
	if !ok {
		return INVALID_HANDLE
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.parser.ProcessChunk(chunk); err != nil {
		return e.record(err)
	}
	return OK
}

// FinishParsing signals end-of-input to h's incremental parser.
func FinishParsing(h Handle) ResultCode {
	e, ok := lookup(h)
	if !ok {
		return INVALID_HANDLE
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.parser.Finish(); err != nil {
		return e.record(err)
	}
	return OK
}

// GetError returns h's last recorded error message, owned by the
// handle (valid until the next operation on h or DestroyParser).
func GetError(h Handle) (string, ResultCode) {
	e, ok := lookup(h)
	if !ok {
		return "", INVALID_HANDLE
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr, OK
}

// GetErrorCode returns h's last recorded ResultCode.
func GetErrorCode(h Handle) ResultCode {
	e, ok := lookup(h)
	if !ok {
		return INVALID_HANDLE
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCode
}

func (e *entry) record(err error) ResultCode {
	e.lastErr = err.Error()
	code := codeFor(err)
	e.lastCode = code
	return code
}

// codeFor maps an error returned by parserx into the closed
// ResultCode set.
func codeFor(err error) ResultCode {
	if errors.Is(err, parserx.ErrStopped) {
		return INVALID_STATE
	}
	var ec perror.ErrorContext
	if errors.As(err, &ec) {
		switch {
		case ec.Code == perror.UnexpectedToken:
			return UNEXPECTED_TOKEN
		case ec.Code.Category() == 400:
			return IO
		case ec.Code.Category() == 900:
			return UNKNOWN
		default:
			return UNEXPECTED_TOKEN
		}
	}
	return UNKNOWN
}

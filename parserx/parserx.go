// Package parserx assembles the in-memory or streaming tokenizer, the
// fsm.Table driver, the event.Handler, the parserx.Context, and the
// aggregator.Aggregator into the single orchestration object an
// application drives. It implements both the blocking model
// (ParseString, over a fully in-memory input) and the incremental one
// (ProcessChunk/Finish, suspending at chunk boundaries rather than
// treating "need more bytes" as an error), with four failure-mode
// policies: strict, normal, lenient, validation.
//
// Construction follows the common Go entrypoint shape of pre-sized
// buffers plus functional options (mode, recovery, actions, event
// handler, telemetry), so a caller assembles exactly the Parser they
// need in one New call rather than configuring it through setters
// afterward.
package parserx

import (
	"errors"
	"io"
	"time"
	"unsafe"

	"github.com/dgellow/zig-stream-parse-sub001/aggregator"
	"github.com/dgellow/zig-stream-parse-sub001/event"
	"github.com/dgellow/zig-stream-parse-sub001/fsm"
	"github.com/dgellow/zig-stream-parse-sub001/internal/invariant"
	"github.com/dgellow/zig-stream-parse-sub001/memstream"
	"github.com/dgellow/zig-stream-parse-sub001/perror"
	"github.com/dgellow/zig-stream-parse-sub001/source"
	"github.com/dgellow/zig-stream-parse-sub001/streamtok"
	"github.com/dgellow/zig-stream-parse-sub001/token"
	"github.com/dgellow/zig-stream-parse-sub001/visualizer"
)

// ErrStopped is returned by ProcessChunk/Finish when a
// strict-mode (or error-budget-exhausted normal-mode) error has
// already stopped the parse; it is not itself a fatal error, just a
// sentinel for "nothing more will happen on this Parser".
var ErrStopped = errors.New("parserx: parser already stopped")

// ActionFunc is invoked between transition selection and event
// dispatch: the FSM computes a transition, the matching action runs,
// then any error it returns is fed to the aggregator. It must not
// retain tok.Text past its return.
type ActionFunc func(ctx *Context, tok token.Token) error

// tokenSource is the minimal pull interface both memstream.Stream
// (via an adapter) and streamtok.Tokenizer already satisfy.
type tokenSource interface {
	Next() (token.Token, error)
}

type memAdapter struct{ s *memstream.Stream }

func (m memAdapter) Next() (token.Token, error) { return m.s.Next(), nil }

// Option configures a Parser at construction.
type Option func(*Parser)

// WithMode selects the failure policy. Default fsm.Normal.
func WithMode(mode fsm.Mode) Option {
	return func(p *Parser) { p.mode = mode }
}

// WithMaxErrors sets the error budget for fsm.Normal mode. Default 20.
func WithMaxErrors(n int) Option {
	invariant.Precondition(n > 0, "max errors must be > 0")
	return func(p *Parser) { p.maxErrors = n }
}

// WithRecovery configures synchronize-recovery's sync token set and
// resync state.
func WithRecovery(r fsm.Recovery) Option {
	return func(p *Parser) { p.recovery = r }
}

// WithInitialState sets the FSM's starting state id. Default 0.
func WithInitialState(id uint32) Option {
	return func(p *Parser) { p.initialState = id }
}

// WithAction registers the callback invoked when a Transition carries
// action id actionID.
func WithAction(actionID uint32, fn ActionFunc) Option {
	return func(p *Parser) { p.actions[actionID] = fn }
}

// WithEventHandler registers the single event handler, plus its
// opaque user pointer (nil for pure-Go callers — see WithEventFunc).
func WithEventHandler(h event.Handler, user unsafe.Pointer) Option {
	return func(p *Parser) {
		p.handler = h
		p.handlerUser = user
	}
}

// WithEventFunc registers a pure-Go event callback with no opaque
// pointer needed, the common case for non-FFI callers.
func WithEventFunc(f event.Func) Option {
	return func(p *Parser) {
		p.handler = f.AsHandler()
		p.handlerUser = nil
	}
}

// WithVisualizerConfig overrides the default visualizer.Config used
// by Visualize.
func WithVisualizerConfig(cfg visualizer.Config) Option {
	return func(p *Parser) { p.visCfg = cfg }
}

// WithRecoveryHintNames enables fuzzy "did you mean" recovery hints on
// UnexpectedToken errors, fuzzy-ranking the offending token's text
// against names (typically the grammar's token-kind names).
func WithRecoveryHintNames(names []string) Option {
	return func(p *Parser) { p.tokenNames = names }
}

// WithStreamtokOptions forwards options to the streaming tokenizer
// constructed internally the first time ProcessChunk is called.
func WithStreamtokOptions(opts ...streamtok.Option) Option {
	return func(p *Parser) { p.streamtokOpts = append(p.streamtokOpts, opts...) }
}

// WithTelemetry enables token/event/error counting and, if timing is
// true, per-run wall-clock timing. When never enabled, Reset's
// telemetry fields stay zeroed and the run loop pays only the cost of
// the telemetryOn check itself.
func WithTelemetry(timing bool) Option {
	return func(p *Parser) {
		p.telemetryOn = true
		p.telemetryTiming = timing
	}
}

// Telemetry reports counters collected since the last Reset.
type Telemetry struct {
	TokenCount int
	EventCount int
	ErrorCount int
	TotalTime  time.Duration
}

// Parser assembles a token source, an fsm.Table, a Context, an
// event.Handler, and an aggregator.Aggregator into one driven parse.
type Parser struct {
	table        fsm.Table
	mode         fsm.Mode
	maxErrors    int
	recovery     fsm.Recovery
	initialState uint32
	actions      map[uint32]ActionFunc
	tokenNames   []string

	handler     event.Handler
	handlerUser unsafe.Pointer

	ctx *Context
	agg *aggregator.Aggregator

	visCfg     visualizer.Config
	lastSource []byte

	patternSet    *memstream.PatternSet
	streamtokOpts []streamtok.Option
	tok           *streamtok.Tokenizer
	push          *source.Push

	state    uint32
	started  bool
	finished bool
	stopped  bool

	telemetryOn     bool
	telemetryTiming bool
	telemetry       Telemetry
}

// New creates a Parser over the given compiled grammar (a PatternSet
// for tokenizing, and an fsm.Table for the state machine); opts
// configure mode, recovery, actions, and the event handler.
func New(set *memstream.PatternSet, table fsm.Table, opts ...Option) *Parser {
	invariant.NotNil(set, "parserx.New requires a non-nil PatternSet")
	p := &Parser{
		table:     table,
		mode:      fsm.Normal,
		maxErrors: 20,
		actions:   make(map[uint32]ActionFunc),
		ctx:       newContext(),
		agg:       aggregator.New(),
		visCfg:    visualizer.DefaultConfig(),
		patternSet: set,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ctx.emit = p.dispatchEvent
	return p
}

// SetEventHandler rebinds the registered event handler after
// construction — used by the ffi boundary, where set_event_handler is
// a separate operation from create_parser.
func (p *Parser) SetEventHandler(h event.Handler, user unsafe.Pointer) {
	p.handler = h
	p.handlerUser = user
}

// Errors returns the grouped error report accumulated so far.
func (p *Parser) Errors() []aggregator.Group { return p.agg.Groups() }

// Warnings returns every warning-severity error reported so far.
func (p *Parser) Warnings() []perror.ErrorContext { return p.agg.Warnings() }

// Telemetry returns the counters collected since the last Reset, or
// the zero value if WithTelemetry was never passed.
func (p *Parser) Telemetry() Telemetry { return p.telemetry }

// Visualize renders ec against the last source window the Parser
// processed (the full input for ParseString, or the most recently fed
// chunk window for ProcessChunk), writing to w.
func (p *Parser) Visualize(w io.Writer, ec perror.ErrorContext) error {
	return visualizer.Render(w, p.lastSource, ec, p.visCfg)
}

// Reset clears all parse state (FSM state, context, aggregator,
// telemetry) so the Parser can be reused from scratch. The streaming
// tokenizer/push source, if created, are discarded; the next
// ProcessChunk call rebuilds them.
func (p *Parser) Reset() {
	p.state = p.initialState
	p.started = false
	p.finished = false
	p.stopped = false
	p.ctx.reset()
	p.agg.Reset()
	p.tok = nil
	p.push = nil
	p.lastSource = nil
	p.telemetry = Telemetry{}
}

// ParseString runs the blocking model: tokenizes input entirely via
// memstream.Stream (zero allocation on the matching path) and drives
// it to completion in one call.
func (p *Parser) ParseString(input []byte) error {
	p.Reset()
	p.lastSource = input
	var started time.Time
	if p.telemetryOn && p.telemetryTiming {
		started = time.Now()
	}
	stream := memstream.New(input, p.patternSet)
	_, err := p.run(memAdapter{s: stream})
	if p.telemetryOn && p.telemetryTiming {
		p.telemetry.TotalTime += time.Since(started)
	}
	return err
}

// ProcessChunk feeds chunk to the incremental streaming tokenizer and
// drives the parse as far as the currently buffered bytes allow,
// suspending (returning nil) at the chunk boundary rather than
// treating "need more bytes" as an error.
func (p *Parser) ProcessChunk(chunk []byte) error {
	if p.stopped {
		return ErrStopped
	}
	if p.tok == nil {
		p.push = source.NewPush()
		p.tok = streamtok.New(p.push, p.patternSet, p.streamtokOpts...)
	}
	p.push.Feed(chunk)
	p.lastSource = chunk
	suspended, err := p.run(p.tok)
	if suspended {
		return nil
	}
	return err
}

// Finish signals end-of-input to the incremental tokenizer (if
// ProcessChunk was ever called) and drains every remaining buffered
// token, emitting end_document on successful completion.
func (p *Parser) Finish() error {
	if p.stopped {
		return ErrStopped
	}
	if p.tok == nil {
		// Nothing was ever fed: still run once over an empty input so
		// start/end_document are emitted symmetrically with ParseString.
		return p.ParseString(nil)
	}
	p.push.Close()
	_, err := p.run(p.tok)
	return err
}

// run drives src until it suspends (incremental: source.ErrWouldBlock
// with no further progress possible), reaches end of input, or a
// strict/budget-exhausted error stops the parse. It returns
// suspended=true only for the incremental "wait for more bytes" case.
func (p *Parser) run(src tokenSource) (suspended bool, err error) {
	if !p.started {
		if err := p.dispatchEvent(event.Event{Kind: event.StartDocument}); err != nil {
			p.stopped = true
			return false, err
		}
		p.started = true
		p.state = p.initialState
	}

	for {
		tok, nextErr := src.Next()
		if nextErr != nil {
			if errors.Is(nextErr, source.ErrWouldBlock) {
				return true, nil
			}
			if errors.Is(nextErr, streamtok.ErrBufferOverflow) {
				return false, p.reportFatal(perror.BufferOverflow, token.Position{}, nextErr.Error())
			}
			if errors.Is(nextErr, streamtok.ErrOutOfMemory) {
				return false, p.reportFatal(perror.MemoryError, token.Position{}, nextErr.Error())
			}
			return false, p.reportFatal(perror.ReadFailure, token.Position{}, nextErr.Error())
		}

		if p.telemetryOn {
			p.telemetry.TokenCount++
		}

		if tok.IsEOF() {
			if !p.finished {
				p.finished = true
				if err := p.dispatchEvent(event.Event{Kind: event.EndDocument, Position: tok.Position}); err != nil {
					p.stopped = true
					return false, err
				}
			}
			return false, nil
		}

		if tok.IsError() {
			ec := perror.New(perror.UnknownCharacter, toPos(tok.Position),
				"unrecognized byte").WithTokenText(tok.Text)
			if stop, err := p.handleError(ec, tok.Position, src); stop {
				return false, err
			}
			continue
		}

		tr, stepErr := p.table.Step(p.state, tok)
		if stepErr != nil {
			var ut *fsm.UnexpectedToken
			if errors.As(stepErr, &ut) {
				ec := p.unexpectedTokenError(ut)
				if stop, err := p.handleError(ec, ut.Token.Position, src); stop {
					return false, err
				}
				continue
			}
			return false, p.reportFatal(perror.StateMachineError, tok.Position, stepErr.Error())
		}

		if tr.HasAction {
			if fn, ok := p.actions[tr.Action]; ok {
				if err := fn(p.ctx, tok); err != nil {
					return false, p.reportFatal(perror.InternalError, tok.Position, err.Error())
				}
			}
		}
		if next, ok := p.ctx.takePendingState(); ok {
			p.state = next
		} else {
			p.state = tr.NextState
		}
	}
}

// handleError applies the current mode's policy to a just-reported
// error, returning stop=true if the caller must return immediately
// (strict, or normal past its error budget, or fatal severity).
func (p *Parser) handleError(ec perror.ErrorContext, pos token.Position, src tokenSource) (stop bool, err error) {
	if err := p.dispatchEvent(event.Event{
		Kind: event.Error, Position: pos, Code: ec.Code, Message: ec.Message,
	}); err != nil {
		p.stopped = true
		return true, err
	}
	p.agg.Report(ec)
	if p.telemetryOn {
		p.telemetry.ErrorCount++
	}

	if ec.Severity == perror.Fatal {
		p.stopped = true
		return true, ec
	}

	switch p.mode {
	case fsm.Strict:
		p.stopped = true
		if endErr := p.dispatchEvent(event.Event{Kind: event.EndDocument, Position: pos}); endErr != nil {
			return true, endErr
		}
		p.finished = true
		return true, ec
	case fsm.Normal:
		if p.agg.ErrorCount() >= p.maxErrors {
			p.stopped = true
			if endErr := p.dispatchEvent(event.Event{Kind: event.EndDocument, Position: pos}); endErr != nil {
				return true, endErr
			}
			p.finished = true
			return true, ec
		}
		p.synchronize(src)
		return false, nil
	case fsm.Lenient, fsm.Validation:
		p.synchronize(src)
		return false, nil
	default:
		return true, ec
	}
}

// synchronize implements synchronize-recovery: discard tokens until
// one configured as a sync landmark appears (or end-of-input), then
// force the FSM to the configured resync state. Recovery never invokes
// an action, so validation mode's actions never mutate context during
// recovery even though it always attempts one.
func (p *Parser) synchronize(src tokenSource) {
	for {
		tok, err := src.Next()
		if err != nil {
			return
		}
		if tok.IsEOF() {
			p.state = p.recovery.ResyncState
			return
		}
		if p.recovery.IsSyncToken(uint32(tok.Kind)) {
			p.state = p.recovery.ResyncState
			return
		}
	}
}

func (p *Parser) unexpectedTokenError(ut *fsm.UnexpectedToken) perror.ErrorContext {
	ec := perror.New(perror.UnexpectedToken, toPos(ut.Token.Position), "unexpected token").
		WithTokenText(ut.Token.Text).
		WithExpected(ut.Expected).
		WithState(ut.State.ID)
	if hint := fsm.RecoveryHint(ut.Token.Text, p.tokenNames); hint != "" {
		ec = ec.WithHint(hint)
	}
	return ec
}

func (p *Parser) reportFatal(code perror.Code, pos token.Position, msg string) error {
	ec := perror.New(code, toPos(pos), msg)
	p.stopped = true
	_ = p.dispatchEvent(event.Event{Kind: event.Error, Position: pos, Code: ec.Code, Message: msg})
	p.agg.Report(ec)
	return ec
}

func (p *Parser) dispatchEvent(ev event.Event) error {
	if p.telemetryOn {
		p.telemetry.EventCount++
	}
	if p.handler == nil {
		return nil
	}
	if err := p.handler(ev, p.handlerUser); err != nil {
		return err
	}
	return nil
}

func toPos(p token.Position) perror.Position {
	return perror.Position{Offset: p.Offset, Line: p.Line, Column: p.Column}
}

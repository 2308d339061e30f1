package parserx

import (
	"github.com/dgellow/zig-stream-parse-sub001/event"
)

// Context is the value stack and attribute map mutated only from
// within action callbacks while a token is being processed. It is
// created with the Parser and lives for the Parser's lifetime; Reset
// clears it for reuse across parses.
type Context struct {
	stack [][]byte
	attrs map[string]string
	emit  func(event.Event) error

	pendingState    uint32
	hasPendingState bool
}

func newContext() *Context {
	return &Context{attrs: make(map[string]string)}
}

// Push copies v onto the value stack (an owned copy, since v usually
// borrows from a token that will not outlive this call).
func (c *Context) Push(v []byte) {
	cp := make([]byte, len(v))
	copy(cp, v)
	c.stack = append(c.stack, cp)
}

// Pop removes and returns the top of the value stack.
func (c *Context) Pop() ([]byte, bool) {
	if len(c.stack) == 0 {
		return nil, false
	}
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v, true
}

// Peek returns the top of the value stack without removing it.
func (c *Context) Peek() ([]byte, bool) {
	if len(c.stack) == 0 {
		return nil, false
	}
	return c.stack[len(c.stack)-1], true
}

// Depth returns the number of values currently on the stack.
func (c *Context) Depth() int { return len(c.stack) }

// SetAttr sets a key/value pair in the attribute map.
func (c *Context) SetAttr(key, value string) { c.attrs[key] = value }

// Attr returns the value for key, if set.
func (c *Context) Attr(key string) (string, bool) {
	v, ok := c.attrs[key]
	return v, ok
}

// Emit dispatches ev through the parser's bound event handler. An
// action calls this to cause events to be emitted via the
// context-bound emitter.
func (c *Context) Emit(ev event.Event) error {
	if c.emit == nil {
		return nil
	}
	return c.emit(ev)
}

// SetNextState overrides the FSM's statically-computed next state for
// the transition currently being processed. Grammars whose nesting is
// not regular (balanced brackets, the way JSON container grammars
// are) cannot express "return to whichever state opened this
// container" as a single static Transition.NextState, because that
// target depends on runtime nesting depth, not just the current state
// and token. An action that maintains its own container stack (e.g.
// examples/jsonlex) calls SetNextState once it has resolved that
// target; the table's static NextState is used otherwise. This is a
// pushdown-automaton extension left to individual grammars — the FSM
// driver itself (fsm.Step) remains a pure, context-free table lookup.
func (c *Context) SetNextState(id uint32) {
	c.pendingState = id
	c.hasPendingState = true
}

// takePendingState returns the state set by SetNextState since the
// last call, if any, clearing it.
func (c *Context) takePendingState() (uint32, bool) {
	if !c.hasPendingState {
		return 0, false
	}
	c.hasPendingState = false
	return c.pendingState, true
}

// reset clears the context for reuse by a new parse.
func (c *Context) reset() {
	c.stack = c.stack[:0]
	for k := range c.attrs {
		delete(c.attrs, k)
	}
	c.hasPendingState = false
}

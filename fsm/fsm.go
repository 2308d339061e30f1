// Package fsm implements a table-driven state-machine driver: a pure
// Step function over a flat array of States keyed by id, each holding
// a small list of Transitions keyed by token kind, with an ERROR
// fallback transition and a four-mode recovery policy
// (strict/normal/lenient/validation) built on synchronize-recovery.
//
// Recovery configuration is a plain struct (sync token ids plus a
// resync state) rather than a generic interface, matching the rest of
// this codebase's preference for a concrete type over an abstraction
// with one implementation. The "did you mean" recovery hint reuses
// fuzzysearch.RankFindFold to suggest the nearest expected-token name
// when a token is unexpected.
package fsm

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/dgellow/zig-stream-parse-sub001/internal/invariant"
	"github.com/dgellow/zig-stream-parse-sub001/token"
)

// ERROR is the reserved token id meaning "an unrecognized token was
// seen"; a State may or may not provide a transition for it.
const ERROR = ^uint32(0)

// Transition is the outcome of a successful Step: the state to move to
// and the optional semantic action to invoke.
type Transition struct {
	TokenID   uint32
	NextState uint32
	Action    uint32
	HasAction bool
}

// State is one node of the table: a small slice of Transitions, scanned
// linearly for an exact token id first and then for ERROR.
type State struct {
	ID          uint32
	Name        string
	Transitions []Transition
}

func (s State) find(tokenID uint32) (Transition, bool) {
	for _, t := range s.Transitions {
		if t.TokenID == tokenID {
			return t, true
		}
	}
	for _, t := range s.Transitions {
		if t.TokenID == ERROR {
			return t, true
		}
	}
	return Transition{}, false
}

func (s State) expectedIDs() []uint32 {
	ids := make([]uint32, 0, len(s.Transitions))
	for _, t := range s.Transitions {
		if t.TokenID != ERROR {
			ids = append(ids, t.TokenID)
		}
	}
	return ids
}

// Table is the compiled grammar: states indexed by id (states[i].ID
// must equal i — Step uses direct array indexing, not a map, for O(1)
// lookup).
type Table struct {
	States []State
}

// NewTable builds a Table and validates that each state's ID matches
// its index, the invariant Step's O(1) lookup depends on.
func NewTable(states []State) Table {
	for i, s := range states {
		invariant.Precondition(int(s.ID) == i, "fsm: state %q has ID %d but occupies index %d", s.Name, s.ID, i)
	}
	return Table{States: states}
}

// UnexpectedToken is returned by Step when neither the token's own
// kind nor ERROR has a transition in the current state.
type UnexpectedToken struct {
	State   State
	Token   token.Token
	Expected []uint32
}

func (u *UnexpectedToken) Error() string {
	return fmt.Sprintf("unexpected token %v in state %q", u.Token, u.State.Name)
}

// Step looks up currentState by id (O(1) array index) and returns the
// Transition matching tok.Kind, falling back to ERROR if none does. It
// is a pure function: it does not own tok or any context, and is safe
// to call re-entrantly over fresh state.
func (t Table) Step(currentState uint32, tok token.Token) (Transition, error) {
	invariant.Precondition(int(currentState) < len(t.States), "fsm: current state %d out of range (table has %d states)", currentState, len(t.States))
	s := t.States[currentState]
	if tr, ok := s.find(uint32(tok.Kind)); ok {
		return tr, nil
	}
	return Transition{}, &UnexpectedToken{
		State:    s,
		Token:    tok,
		Expected: s.expectedIDs(),
	}
}

// RecoveryHint returns a "did you mean ..." suggestion for an
// UnexpectedToken by fuzzy-ranking the offending token's text against
// names, or "" if names is empty or nothing ranks.
func RecoveryHint(offending []byte, names []string) string {
	if len(names) == 0 || len(offending) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(string(offending), names)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return fmt.Sprintf("did you mean %q?", best.Target)
}

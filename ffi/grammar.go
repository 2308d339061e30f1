package ffi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgellow/zig-stream-parse-sub001/fsm"
	"github.com/dgellow/zig-stream-parse-sub001/internal/charclass"
	"github.com/dgellow/zig-stream-parse-sub001/internal/invariant"
	"github.com/dgellow/zig-stream-parse-sub001/internal/pattern"
	"github.com/dgellow/zig-stream-parse-sub001/memstream"
	"github.com/dgellow/zig-stream-parse-sub001/token"
)

// grammarSchemaJSON describes the grammar_blob format create_parser
// accepts: a flat rule list (each a byte-class or literal run, with an
// optional repetition and skip flag) plus an FSM table. This is a
// deliberately small subset of what internal/pattern can express —
// enough to drive the core end-to-end from an external caller, not a
// general grammar DSL.
const grammarSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rules", "states"],
  "properties": {
    "initial_state": {"type": "integer", "minimum": 0},
    "resync_state": {"type": "integer", "minimum": 0},
    "sync_token_ids": {"type": "array", "items": {"type": "integer"}},
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "kind"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "kind": {"type": "integer", "minimum": 16},
          "literal": {"type": "string"},
          "class": {"type": "string", "enum": ["whitespace", "newline", "digit", "alpha", "alpha_lower", "alpha_upper", "punct", "control"]},
          "any_of": {"type": "string"},
          "rep": {"type": "string", "enum": ["one", "zero_or_more", "one_or_more", "optional"]},
          "skip": {"type": "boolean"}
        }
      }
    },
    "states": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "transitions"],
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "name": {"type": "string"},
          "transitions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["token_id", "next_state"],
              "properties": {
                "token_id": {"type": "integer"},
                "next_state": {"type": "integer", "minimum": 0},
                "action": {"type": "integer"}
              }
            }
          }
        }
      }
    }
  }
}`

var grammarSchema = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	err := compiler.AddResource("schema://grammar.json", strings.NewReader(grammarSchemaJSON))
	invariant.ExpectNoError(err, "registering the built-in grammar schema resource")
	s, err := compiler.Compile("schema://grammar.json")
	invariant.ExpectNoError(err, "compiling the built-in grammar schema")
	return s
}()

type grammarRule struct {
	Name    string `json:"name"`
	Kind    uint32 `json:"kind"`
	Literal string `json:"literal"`
	Class   string `json:"class"`
	AnyOf   string `json:"any_of"`
	Rep     string `json:"rep"`
	Skip    bool   `json:"skip"`
}

type grammarTransition struct {
	TokenID   int64 `json:"token_id"`
	NextState uint32 `json:"next_state"`
	Action    int64 `json:"action"`
}

type grammarState struct {
	ID          uint32              `json:"id"`
	Name        string              `json:"name"`
	Transitions []grammarTransition `json:"transitions"`
}

type grammarDoc struct {
	InitialState uint32        `json:"initial_state"`
	ResyncState  uint32        `json:"resync_state"`
	SyncTokenIDs []uint32      `json:"sync_token_ids"`
	Rules        []grammarRule `json:"rules"`
	States       []grammarState `json:"states"`
}

// compileGrammar validates grammarBlob against grammarSchema, then
// compiles it into a PatternSet ready for parserx.New plus an
// fsm.Table, initial state, recovery config, and the rule names used
// as the fuzzy-hint candidate list.
func compileGrammar(grammarBlob []byte) (*memstream.PatternSet, fsm.Table, uint32, fsm.Recovery, []string, error) {
	var raw interface{}
	if err := json.Unmarshal(grammarBlob, &raw); err != nil {
		return nil, fsm.Table{}, 0, fsm.Recovery{}, nil, fmt.Errorf("ffi: grammar_blob is not valid JSON: %w", err)
	}
	if err := grammarSchema.Validate(raw); err != nil {
		return nil, fsm.Table{}, 0, fsm.Recovery{}, nil, fmt.Errorf("ffi: grammar_blob failed schema validation: %w", err)
	}

	var doc grammarDoc
	if err := json.Unmarshal(grammarBlob, &doc); err != nil {
		return nil, fsm.Table{}, 0, fsm.Recovery{}, nil, fmt.Errorf("ffi: grammar_blob decode: %w", err)
	}

	var skip pattern.Pattern
	var rules []memstream.Rule
	var names []string
	for _, r := range doc.Rules {
		p, err := compileRulePattern(r)
		if err != nil {
			return nil, fsm.Table{}, 0, fsm.Recovery{}, nil, err
		}
		names = append(names, r.Name)
		if r.Skip {
			skip = p
			continue
		}
		rules = append(rules, memstream.Rule{Kind: token.Kind(r.Kind), Pattern: p})
	}
	if len(rules) == 0 {
		return nil, fsm.Table{}, 0, fsm.Recovery{}, nil, fmt.Errorf("ffi: grammar_blob defines no non-skip rules")
	}
	set := memstream.NewPatternSet(skip, rules...)

	states := make([]fsm.State, len(doc.States))
	for i, s := range doc.States {
		trs := make([]fsm.Transition, len(s.Transitions))
		for j, t := range s.Transitions {
			trs[j] = fsm.Transition{
				TokenID:   transitionTokenID(t.TokenID),
				NextState: t.NextState,
				Action:    uint32(t.Action),
				HasAction: t.Action != 0,
			}
		}
		states[i] = fsm.State{ID: s.ID, Name: s.Name, Transitions: trs}
	}
	table := fsm.NewTable(states)

	recovery := fsm.Recovery{SyncTokenIDs: doc.SyncTokenIDs, ResyncState: doc.ResyncState}
	return set, table, doc.InitialState, recovery, names, nil
}

// transitionTokenID maps a grammar_blob token_id to fsm's internal
// representation, treating -1 as the reserved fsm.ERROR sentinel so
// JSON (which cannot spell ^uint32(0)) can still express an
// error-transition.
func transitionTokenID(raw int64) uint32 {
	if raw < 0 {
		return fsm.ERROR
	}
	return uint32(raw)
}

func compileRulePattern(r grammarRule) (pattern.Pattern, error) {
	var base pattern.Pattern
	switch {
	case r.Literal != "":
		base = pattern.Literal(r.Literal)
	case r.Class != "":
		c, err := classFromName(r.Class)
		if err != nil {
			return nil, err
		}
		base = pattern.Class(c)
	case r.AnyOf != "":
		base = pattern.AnyOf(r.AnyOf)
	default:
		return nil, fmt.Errorf("ffi: rule %q specifies neither literal, class, nor any_of", r.Name)
	}

	switch r.Rep {
	case "", "one":
		return base, nil
	case "zero_or_more":
		return pattern.ZeroOrMore(base), nil
	case "one_or_more":
		return pattern.OneOrMore(base), nil
	case "optional":
		return pattern.Optional(base), nil
	default:
		return nil, fmt.Errorf("ffi: rule %q has unknown rep %q", r.Name, r.Rep)
	}
}

func classFromName(name string) (charclass.Class, error) {
	switch name {
	case "whitespace":
		return charclass.Whitespace, nil
	case "newline":
		return charclass.Newline, nil
	case "digit":
		return charclass.Digit, nil
	case "alpha":
		return pattern.AlphaClass, nil
	case "alpha_lower":
		return charclass.AlphaLower, nil
	case "alpha_upper":
		return charclass.AlphaUpper, nil
	case "punct":
		return charclass.Punct, nil
	case "control":
		return charclass.Control, nil
	default:
		return 0, fmt.Errorf("ffi: unknown class %q", name)
	}
}

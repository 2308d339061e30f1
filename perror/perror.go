// Package perror defines the structured error model every other
// component reports through: a typed Code (lexical/syntax/semantic/io/
// internal, grouped by the hundreds digit), a Severity, and the
// immutable ErrorContext value that carries position and message plus
// optional diagnostic extras.
//
// Code is a closed numeric taxonomy rather than a variant type so that
// codes can be grouped by integer division (Category) instead of a
// type switch, and so a new code can be added without touching every
// switch over the old variant set.
package perror

import "fmt"

// Code is a closed numeric error identifier. Category is Code/100:
// 100s lexical, 200s syntax, 300s semantic, 400s io, 900s internal.
type Code uint32

const (
	// Lexical errors (100s).
	UnknownCharacter     Code = 100
	InvalidEscapeSequence Code = 101
	UnterminatedString   Code = 102
	InvalidNumberFormat  Code = 103
	UnterminatedComment  Code = 104

	// Syntax errors (200s).
	UnexpectedToken      Code = 200
	UnexpectedEndOfInput Code = 201
	MissingToken         Code = 202
	UnbalancedDelimiter  Code = 203

	// Semantic errors (300s).
	DuplicateIdentifier  Code = 300
	UndeclaredIdentifier Code = 301
	TypeMismatch         Code = 302

	// IO errors (400s).
	ReadFailure    Code = 400
	BufferOverflow Code = 401

	// Internal errors (900s).
	InternalError      Code = 900
	StateMachineError  Code = 901
	MemoryError        Code = 902
)

// Category returns c's hundreds-digit category, e.g. 200 for any
// syntax code.
func (c Code) Category() int { return int(c) / 100 * 100 }

// String names the code using its canonical snake_case identifier.
func (c Code) String() string {
	switch c {
	case UnknownCharacter:
		return "unknown_character"
	case InvalidEscapeSequence:
		return "invalid_escape_sequence"
	case UnterminatedString:
		return "unterminated_string"
	case InvalidNumberFormat:
		return "invalid_number_format"
	case UnterminatedComment:
		return "unterminated_comment"
	case UnexpectedToken:
		return "unexpected_token"
	case UnexpectedEndOfInput:
		return "unexpected_end_of_input"
	case MissingToken:
		return "missing_token"
	case UnbalancedDelimiter:
		return "unbalanced_delimiter"
	case DuplicateIdentifier:
		return "duplicate_identifier"
	case UndeclaredIdentifier:
		return "undeclared_identifier"
	case TypeMismatch:
		return "type_mismatch"
	case ReadFailure:
		return "read_failure"
	case BufferOverflow:
		return "buffer_overflow"
	case InternalError:
		return "internal_error"
	case StateMachineError:
		return "state_machine_error"
	case MemoryError:
		return "memory_error"
	default:
		return fmt.Sprintf("code(%d)", uint32(c))
	}
}

// Severity classifies how a reported error should affect parsing.
type Severity int

const (
	Warning Severity = iota
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// DefaultSeverity applies the default severity rule: io and internal
// codes are always fatal, regardless of parser mode; every other code
// defaults to Error. Nothing here is ever reported as a warning by
// default — callers that want warnings construct an ErrorContext with
// Severity: Warning explicitly.
func DefaultSeverity(c Code) Severity {
	switch c.Category() {
	case 400, 900:
		return Fatal
	default:
		return Error
	}
}

// Position mirrors token.Position without importing it, keeping
// perror free of a dependency on the tokenizer packages; parserx
// converts token.Position to perror.Position at the call boundary.
type Position struct {
	Offset uint64
	Line   uint32
	Column uint32
}

// ErrorContext is an immutable, fully-formed error report. Once
// constructed it is never mutated — aggregator.Group copies it by
// value into Primary/Related slices.
type ErrorContext struct {
	Code     Code
	Severity Severity
	Position Position
	Message  string

	// Optional diagnostic extras; zero values mean "not applicable".
	TokenText     []byte
	ExpectedIDs   []uint32
	StateID       uint32
	HasStateID    bool
	RecoveryHint  string
}

// New builds an ErrorContext with Severity defaulted via
// DefaultSeverity(code). Use the With* methods to attach optional
// extras before reporting.
func New(code Code, pos Position, message string) ErrorContext {
	return ErrorContext{
		Code:     code,
		Severity: DefaultSeverity(code),
		Position: pos,
		Message:  message,
	}
}

// WithSeverity overrides the default severity (e.g. to report a
// warning).
func (e ErrorContext) WithSeverity(s Severity) ErrorContext {
	e.Severity = s
	return e
}

// WithTokenText attaches a copy of the offending token's bytes.
func (e ErrorContext) WithTokenText(text []byte) ErrorContext {
	cp := make([]byte, len(text))
	copy(cp, text)
	e.TokenText = cp
	return e
}

// WithExpected attaches the set of token ids that would have been
// accepted instead.
func (e ErrorContext) WithExpected(ids []uint32) ErrorContext {
	e.ExpectedIDs = append([]uint32(nil), ids...)
	return e
}

// WithState attaches the FSM state id active when the error occurred.
func (e ErrorContext) WithState(id uint32) ErrorContext {
	e.StateID = id
	e.HasStateID = true
	return e
}

// WithHint attaches a human-readable recovery suggestion.
func (e ErrorContext) WithHint(hint string) ErrorContext {
	e.RecoveryHint = hint
	return e
}

// Error implements the error interface so an ErrorContext can be
// returned/wrapped anywhere idiomatic Go expects one.
func (e ErrorContext) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Code, e.Position.Line, e.Position.Column, e.Message)
}

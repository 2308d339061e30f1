// Package invariant provides the contract checks the buffer, FSM, and
// tokenizer packages guard themselves with: small panic-on-violation
// assertions that stop a broken invariant (a buffer that stopped
// growing, a loop that stopped advancing, a nil Source) at the point it
// first goes wrong instead of several calls later.
//
// A violation is a bug in this codebase, never bad input — bad input
// flows through the normal error path as a perror.ErrorContext. The
// panic value is a *Violation, an error carrying the failed stage
// (precondition, postcondition, invariant), the formatted message, and
// the call site, so a recover or a test can assert on the pieces
// instead of substring-matching a rendered dump.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Violation is the panic value raised by every check in this package.
type Violation struct {
	Stage   string // "precondition", "postcondition", or "invariant"
	Message string
	File    string
	Line    int
}

func (v *Violation) Error() string {
	return fmt.Sprintf("invariant: %s violated: %s (%s:%d)", v.Stage, v.Message, v.File, v.Line)
}

// violate panics with a *Violation whose call site is the caller of
// the exported check that failed.
func violate(stage, format string, args ...interface{}) {
	v := &Violation{Stage: stage, Message: fmt.Sprintf(format, args...)}
	if _, file, line, ok := runtime.Caller(2); ok {
		v.File = file
		v.Line = line
	}
	panic(v)
}

// Precondition checks a contract the caller must satisfy on entry,
// e.g. buffer.ConsumeN's 0 <= n <= Live().
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		violate("precondition", format, args...)
	}
}

// Postcondition checks a promise a function makes about its own
// result before returning it.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		violate("postcondition", format, args...)
	}
}

// Invariant checks a consistency condition partway through a loop or
// state-machine step, e.g. buffer.grow's capacity-must-increase check.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		violate("invariant", format, args...)
	}
}

// NotNil rejects a nil value argument, including a typed nil inside a
// non-nil interface ((*T)(nil), a nil func, a nil map).
func NotNil(value interface{}, name string) {
	if value == nil {
		violate("precondition", "%s must not be nil", name)
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		if v.IsNil() {
			violate("precondition", "%s must not be nil", name)
		}
	}
}

// InRange rejects a numeric argument outside [lo, hi].
func InRange(value, lo, hi int, name string) {
	if value < lo || value > hi {
		violate("precondition", "%s = %d, want %d..%d", name, value, lo, hi)
	}
}

// Positive rejects a computed count or capacity that is not > 0.
func Positive(value int, name string) {
	if value <= 0 {
		violate("postcondition", "%s = %d, want > 0", name, value)
	}
}

// ExpectNoError rejects a non-nil error from an operation that must
// not fail, e.g. compiling the built-in grammar schema.
func ExpectNoError(err error, what string) {
	if err != nil {
		violate("postcondition", "%s: %v", what, err)
	}
}

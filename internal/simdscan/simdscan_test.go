package simdscan_test

import (
	"math/rand"
	"testing"

	"github.com/dgellow/zig-stream-parse-sub001/internal/charclass"
	"github.com/dgellow/zig-stream-parse-sub001/internal/simdscan"
	"github.com/stretchr/testify/assert"
)

// scalarSkipWhitespace is the naive reference implementation that the
// word-at-a-time scan must agree with on every input, byte for byte.
func scalarSkipWhitespace(input []byte, offset int) int {
	pos := offset
	for pos < len(input) {
		c := charclass.Of(input[pos])
		if c != charclass.Whitespace && c != charclass.Newline {
			break
		}
		pos++
	}
	return pos
}

func scalarEndOfAlphaRun(input []byte, offset int) int {
	pos := offset
	for pos < len(input) && charclass.IsAlpha(charclass.Of(input[pos])) {
		pos++
	}
	return pos
}

func scalarEndOfDigitRun(input []byte, offset int) int {
	pos := offset
	for pos < len(input) && charclass.Of(input[pos]) == charclass.Digit {
		pos++
	}
	return pos
}

func scalarFindAnyOf(input []byte, offset int, set [256]bool) int {
	pos := offset
	for pos < len(input) && !set[input[pos]] {
		pos++
	}
	return pos
}

func TestSkipWhitespaceMatchesScalar(t *testing.T) {
	for _, input := range adversarialInputs(' ', 'x') {
		got := simdscan.SkipWhitespace(input, 0)
		want := scalarSkipWhitespace(input, 0)
		assert.Equal(t, want, got, "input=%q", input)
	}
}

func TestEndOfAlphaRunMatchesScalar(t *testing.T) {
	for _, input := range adversarialInputs('a', '5') {
		got := simdscan.EndOfAlphaRun(input, 0)
		want := scalarEndOfAlphaRun(input, 0)
		assert.Equal(t, want, got, "input=%q", input)
	}
}

func TestEndOfDigitRunMatchesScalar(t *testing.T) {
	for _, input := range adversarialInputs('7', 'z') {
		got := simdscan.EndOfDigitRun(input, 0)
		want := scalarEndOfDigitRun(input, 0)
		assert.Equal(t, want, got, "input=%q", input)
	}
}

func TestFindAnyOfMatchesScalar(t *testing.T) {
	set := simdscan.BuildSet(",;")
	for _, input := range adversarialInputs('x', ',') {
		got := simdscan.FindAnyOf(input, 0, set)
		want := scalarFindAnyOf(input, 0, set)
		assert.Equal(t, want, got, "input=%q", input)
	}
}

func TestScansAreTotalOverOffsetPastEnd(t *testing.T) {
	input := []byte("abc")
	assert.Equal(t, len(input), simdscan.SkipWhitespace(input, 50))
	assert.Equal(t, len(input), simdscan.EndOfAlphaRun(input, 50))
	assert.Equal(t, len(input), simdscan.EndOfDigitRun(input, 50))
	assert.Equal(t, len(input), simdscan.FindAnyOf(input, 50, simdscan.BuildSet("x")))
}

func TestRandomizedBoundaryStraddlingMatchesScalar(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	alphabet := []byte(" \tabc5\n,;z")
	for trial := 0; trial < 200; trial++ {
		n := r.Intn(40)
		input := make([]byte, n)
		for i := range input {
			input[i] = alphabet[r.Intn(len(alphabet))]
		}
		set := simdscan.BuildSet(",;")
		assert.Equal(t, scalarSkipWhitespace(input, 0), simdscan.SkipWhitespace(input, 0))
		assert.Equal(t, scalarEndOfAlphaRun(input, 0), simdscan.EndOfAlphaRun(input, 0))
		assert.Equal(t, scalarEndOfDigitRun(input, 0), simdscan.EndOfDigitRun(input, 0))
		assert.Equal(t, scalarFindAnyOf(input, 0, set), simdscan.FindAnyOf(input, 0, set))
	}
}

// adversarialInputs builds all-match, no-match, and word-boundary
// straddling cases around the 8-byte scan word size for both the
// matching byte m and a non-matching byte other.
func adversarialInputs(m, other byte) [][]byte {
	var inputs [][]byte
	inputs = append(inputs, nil)
	inputs = append(inputs, []byte{})
	for _, n := range []int{1, 7, 8, 9, 15, 16, 17, 23, 24, 25} {
		allMatch := make([]byte, n)
		for i := range allMatch {
			allMatch[i] = m
		}
		inputs = append(inputs, allMatch)

		noMatch := make([]byte, n)
		for i := range noMatch {
			noMatch[i] = other
		}
		inputs = append(inputs, noMatch)

		for boundary := 0; boundary <= n; boundary++ {
			straddling := make([]byte, n)
			for i := range straddling {
				if i < boundary {
					straddling[i] = m
				} else {
					straddling[i] = other
				}
			}
			inputs = append(inputs, straddling)
		}
	}
	return inputs
}

// Package simdscan implements the bulk byte-predicate scans: skipping
// whitespace runs, finding the end of an alpha or digit run, and
// locating the next byte from a delimiter set. Each scan walks the
// input in machine-word (8-byte) steps, testing the bytes of each step
// with the same per-byte predicate, and finishes with a scalar loop
// over the remaining tail bytes. No word-wide bitwise (SWAR) test is
// used.
//
// Every function here returns a bit-identical result to the scalar
// reference loop on every input — see simdscan_test.go.
package simdscan

import "github.com/dgellow/zig-stream-parse-sub001/internal/charclass"

const wordBytes = 8

// SkipWhitespace returns the offset of the first non-whitespace byte at
// or after offset (whitespace per charclass, including newline), or
// len(input) if none remains.
func SkipWhitespace(input []byte, offset int) int {
	return scanWhile(input, offset, isWhitespaceOrNewline)
}

// EndOfAlphaRun returns the offset just past the last contiguous
// alpha byte (either case) starting at offset.
func EndOfAlphaRun(input []byte, offset int) int {
	return scanWhile(input, offset, isAlpha)
}

// EndOfDigitRun returns the offset just past the last contiguous digit
// byte starting at offset.
func EndOfDigitRun(input []byte, offset int) int {
	return scanWhile(input, offset, isDigit)
}

// FindAnyOf returns the offset of the first byte at or after offset
// that is a member of set, or len(input) if none is found.
func FindAnyOf(input []byte, offset int, set [256]bool) int {
	if offset < 0 {
		offset = 0
	}
	pos := offset
	n := len(input)

	// Word-at-a-time pass: cheap reject when none of the 8 bytes are in
	// the set is not generally expressible as a single SWAR test for an
	// arbitrary set, so this operation scans a word at a time only to
	// keep the loop structure and bounds-check pattern identical to the
	// others; the per-byte test itself is a table lookup.
	for pos+wordBytes <= n {
		found := false
		for i := 0; i < wordBytes; i++ {
			if set[input[pos+i]] {
				found = true
				break
			}
		}
		if found {
			break
		}
		pos += wordBytes
	}
	for pos < n && !set[input[pos]] {
		pos++
	}
	if pos > n {
		pos = n
	}
	return pos
}

func isWhitespaceOrNewline(b byte) bool {
	c := charclass.Of(b)
	return c == charclass.Whitespace || c == charclass.Newline
}

func isAlpha(b byte) bool {
	return charclass.IsAlpha(charclass.Of(b))
}

func isDigit(b byte) bool {
	return charclass.Of(b) == charclass.Digit
}

// scanWhile advances offset while pred holds, processing a word at a
// time: if every byte in the next word satisfies pred the whole word is
// skipped in one test pass, otherwise control falls through to a
// scalar loop that finds the exact boundary (including the tail).
func scanWhile(input []byte, offset int, pred func(byte) bool) int {
	if offset < 0 {
		offset = 0
	}
	pos := offset
	n := len(input)
	if pos > n {
		return n
	}

	for pos+wordBytes <= n {
		allMatch := true
		for i := 0; i < wordBytes; i++ {
			if !pred(input[pos+i]) {
				allMatch = false
				break
			}
		}
		if !allMatch {
			break
		}
		pos += wordBytes
	}
	for pos < n && pred(input[pos]) {
		pos++
	}
	return pos
}

// BuildSet compiles a byte-set string into the 256-bit membership table
// FindAnyOf expects.
func BuildSet(bytes string) [256]bool {
	var set [256]bool
	for i := 0; i < len(bytes); i++ {
		set[bytes[i]] = true
	}
	return set
}

package visualizer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgellow/zig-stream-parse-sub001/perror"
	"github.com/dgellow/zig-stream-parse-sub001/visualizer"
)

func TestRenderIncludesHeaderAndCaretAtColumn(t *testing.T) {
	source := []byte("line one\nline two has an error\nline three\n")
	ec := perror.New(perror.UnexpectedToken, perror.Position{Line: 2, Column: 10}, "unexpected token").
		WithHint(`did you mean "foo"?`)

	var buf bytes.Buffer
	require.NoError(t, visualizer.Render(&buf, source, ec, visualizer.DefaultConfig()))
	out := buf.String()

	assert.Contains(t, out, "line 2, column 10")
	assert.Contains(t, out, "unexpected_token")
	assert.Contains(t, out, "unexpected token")
	assert.Contains(t, out, "line one")
	assert.Contains(t, out, "line three")
	assert.Contains(t, out, `Hint: did you mean "foo"?`)

	lines := strings.Split(out, "\n")
	var caretLine string
	for i, l := range lines {
		if strings.Contains(l, "line two has an error") {
			caretLine = lines[i+1]
			break
		}
	}
	require.NotEmpty(t, caretLine)
	assert.Equal(t, '^', rune(caretLine[len(caretLine)-1]))
}

func TestRenderOmitsHintWhenAbsent(t *testing.T) {
	source := []byte("abc\n")
	ec := perror.New(perror.UnknownCharacter, perror.Position{Line: 1, Column: 1}, "bad byte")

	var buf bytes.Buffer
	require.NoError(t, visualizer.Render(&buf, source, ec, visualizer.DefaultConfig()))
	assert.NotContains(t, buf.String(), "Hint:")
}

func TestRenderRespectsContextLines(t *testing.T) {
	source := []byte("a\nb\nc\nd\ne\n")
	ec := perror.New(perror.UnknownCharacter, perror.Position{Line: 3, Column: 1}, "x")

	var buf bytes.Buffer
	require.NoError(t, visualizer.Render(&buf, source, ec, visualizer.Config{ContextLines: 1, MarkerChar: '^'}))
	out := buf.String()

	assert.Contains(t, out, "b")
	assert.Contains(t, out, "c")
	assert.Contains(t, out, "d")
	assert.NotContains(t, out, "\n    1 | a\n")
	assert.NotContains(t, out, "\n    5 | e\n")
}

func TestRenderTruncatesLongLinesButStillCarets(t *testing.T) {
	source := []byte(strings.Repeat("x", 50) + "\n")
	ec := perror.New(perror.UnknownCharacter, perror.Position{Line: 1, Column: 40}, "x")

	var buf bytes.Buffer
	cfg := visualizer.Config{ContextLines: 0, MaxLineLength: 10, MarkerChar: '^'}
	require.NoError(t, visualizer.Render(&buf, source, ec, cfg))
	out := buf.String()

	assert.Contains(t, out, "...")
	assert.Contains(t, out, "^")
}

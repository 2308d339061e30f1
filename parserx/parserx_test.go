package parserx_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgellow/zig-stream-parse-sub001/event"
	"github.com/dgellow/zig-stream-parse-sub001/fsm"
	"github.com/dgellow/zig-stream-parse-sub001/internal/pattern"
	"github.com/dgellow/zig-stream-parse-sub001/memstream"
	"github.com/dgellow/zig-stream-parse-sub001/parserx"
	"github.com/dgellow/zig-stream-parse-sub001/token"
)

const (
	kindWord token.Kind = token.KindUserBase + iota
	kindComma
)

const (
	stateStart uint32 = iota
	stateAfterWord
)

const actionCollect uint32 = 1

func wordListSet() *memstream.PatternSet {
	ws := pattern.OneOrMore(pattern.Class(pattern.SpaceClass))
	return memstream.NewPatternSet(ws,
		memstream.Rule{Kind: kindComma, Pattern: pattern.Literal(",")},
		memstream.Rule{Kind: kindWord, Pattern: pattern.OneOrMore(pattern.Class(pattern.AlphaClass))},
	)
}

func wordListTable() fsm.Table {
	return fsm.NewTable([]fsm.State{
		{ID: stateStart, Name: "start", Transitions: []fsm.Transition{
			{TokenID: uint32(kindWord), NextState: stateAfterWord, Action: actionCollect, HasAction: true},
		}},
		{ID: stateAfterWord, Name: "after_word", Transitions: []fsm.Transition{
			{TokenID: uint32(kindComma), NextState: stateStart},
		}},
	})
}

func collectAction(ctx *parserx.Context, tok token.Token) error {
	return ctx.Emit(event.Event{Kind: event.Value, Position: tok.Position, Text: tok.Text})
}

func newWordListParser(opts ...parserx.Option) *parserx.Parser {
	base := []parserx.Option{parserx.WithAction(actionCollect, collectAction)}
	return parserx.New(wordListSet(), wordListTable(), append(base, opts...)...)
}

func TestParseStringEmitsStartEndAndValueEvents(t *testing.T) {
	var kinds []event.Kind
	var values []string
	p := newWordListParser(parserx.WithEventFunc(func(ev event.Event) error {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == event.Value {
			values = append(values, string(ev.Text))
		}
		return nil
	}))

	require.NoError(t, p.ParseString([]byte("alpha, beta, gamma")))

	assert.Equal(t, event.StartDocument, kinds[0])
	assert.Equal(t, event.EndDocument, kinds[len(kinds)-1])
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, values)
	assert.Empty(t, p.Errors())
}

func TestStrictModeStopsOnFirstUnexpectedToken(t *testing.T) {
	p := newWordListParser(parserx.WithMode(fsm.Strict))

	err := p.ParseString([]byte("alpha,,"))
	require.Error(t, err)
	require.Len(t, p.Errors(), 1)
}

func TestNormalModeRecoversUsingSyncTokenAndContinues(t *testing.T) {
	var values []string
	p := newWordListParser(
		parserx.WithMode(fsm.Normal),
		parserx.WithRecovery(fsm.Recovery{SyncTokenIDs: []uint32{uint32(kindComma)}, ResyncState: stateStart}),
		parserx.WithEventFunc(func(ev event.Event) error {
			if ev.Kind == event.Value {
				values = append(values, string(ev.Text))
			}
			return nil
		}),
	)

	// The second comma is unexpected at stateStart; recovery discards
	// tokens until the third comma (its own sync landmark) lands, then
	// resumes at stateStart so "beta" is processed normally.
	err := p.ParseString([]byte("alpha,,,beta"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, values)
	require.Len(t, p.Errors(), 1)
}

func TestNormalModeStopsAfterMaxErrors(t *testing.T) {
	p := newWordListParser(
		parserx.WithMode(fsm.Normal),
		parserx.WithMaxErrors(1),
		parserx.WithRecovery(fsm.Recovery{SyncTokenIDs: []uint32{uint32(kindComma)}, ResyncState: stateStart}),
	)

	err := p.ParseString([]byte("alpha,,,beta,,,gamma"))
	require.Error(t, err)
	assert.Len(t, p.Errors(), 1)
}

func TestProcessChunkSuspendsAtBoundaryThenFinishCompletes(t *testing.T) {
	var values []string
	p := newWordListParser(parserx.WithEventFunc(func(ev event.Event) error {
		if ev.Kind == event.Value {
			values = append(values, string(ev.Text))
		}
		return nil
	}))

	require.NoError(t, p.ProcessChunk([]byte("alpha, be")))
	require.NoError(t, p.ProcessChunk([]byte("ta, gamma")))
	require.NoError(t, p.Finish())

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, values)
}

func TestResetAllowsReuseOfParser(t *testing.T) {
	p := newWordListParser()
	require.NoError(t, p.ParseString([]byte("alpha")))
	require.NoError(t, p.ParseString([]byte("beta, gamma")))
	assert.Empty(t, p.Errors())
}

func TestVisualizeRendersAgainstLastSource(t *testing.T) {
	p := newWordListParser(parserx.WithMode(fsm.Strict))
	_ = p.ParseString([]byte("alpha,,"))
	require.Len(t, p.Errors(), 1)

	var buf strings.Builder
	require.NoError(t, p.Visualize(&buf, p.Errors()[0].Primary))
	assert.Contains(t, buf.String(), "unexpected_token")
}

func TestTelemetryCountsTokensAndEvents(t *testing.T) {
	p := newWordListParser(parserx.WithTelemetry(false))
	require.NoError(t, p.ParseString([]byte("alpha, beta")))

	tel := p.Telemetry()
	assert.Greater(t, tel.TokenCount, 0)
	assert.Greater(t, tel.EventCount, 0)
}

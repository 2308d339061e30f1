package aggregator_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgellow/zig-stream-parse-sub001/aggregator"
	"github.com/dgellow/zig-stream-parse-sub001/perror"
)

func at(line, col uint32) perror.Position { return perror.Position{Line: line, Column: col} }

func TestReportRoutesWarningsSeparately(t *testing.T) {
	a := aggregator.New()
	a.Report(perror.New(perror.UnexpectedToken, at(1, 1), "x").WithSeverity(perror.Warning))

	assert.Len(t, a.Warnings(), 1)
	assert.Empty(t, a.Groups())
	assert.Equal(t, 0, a.ErrorCount())
}

func TestSameCategoryWithinDistanceGroupsTogether(t *testing.T) {
	a := aggregator.New()
	a.Report(perror.New(perror.UnexpectedToken, at(1, 1), "first"))
	a.Report(perror.New(perror.MissingToken, at(3, 1), "second"))

	require.Len(t, a.Groups(), 1)
	assert.Len(t, a.Groups()[0].Related, 1)
	assert.Equal(t, 2, a.ErrorCount())
}

func TestAdjacentLineAlwaysGroupsRegardlessOfCategory(t *testing.T) {
	a := aggregator.New()
	a.Report(perror.New(perror.UnterminatedString, at(5, 1), "first"))
	a.Report(perror.New(perror.DuplicateIdentifier, at(6, 1), "unrelated category, adjacent line"))

	require.Len(t, a.Groups(), 1)
	assert.Len(t, a.Groups()[0].Related, 1)
}

func TestKnownCascadeGroupsAcrossCategoryAndDistance(t *testing.T) {
	a := aggregator.New()
	a.Report(perror.New(perror.UnterminatedString, at(1, 1), "unterminated string"))
	a.Report(perror.New(perror.UnexpectedToken, at(4, 1), "cascaded"))

	require.Len(t, a.Groups(), 1)
	assert.Len(t, a.Groups()[0].Related, 1)
}

func TestUnrelatedErrorStartsNewGroup(t *testing.T) {
	a := aggregator.New()
	a.Report(perror.New(perror.UnexpectedToken, at(1, 1), "first"))
	a.Report(perror.New(perror.DuplicateIdentifier, at(50, 1), "far away, different category"))

	assert.Len(t, a.Groups(), 2)
	assert.Equal(t, 2, a.ErrorCount())
}

func TestMaxLineDistanceCapsGroupingRegardlessOfCascade(t *testing.T) {
	a := aggregator.New(aggregator.WithMaxLineDistance(1))
	a.Report(perror.New(perror.UnbalancedDelimiter, at(1, 1), "first"))
	a.Report(perror.New(perror.UnexpectedToken, at(4, 1), "too far even though it would cascade"))

	assert.Len(t, a.Groups(), 2)
}

func TestReportIsDeterministicAcrossReplays(t *testing.T) {
	errs := []perror.ErrorContext{
		perror.New(perror.UnexpectedToken, at(1, 1), "a"),
		perror.New(perror.MissingToken, at(2, 1), "b"),
		perror.New(perror.DuplicateIdentifier, at(20, 1), "c"),
	}

	first := aggregator.New()
	for _, e := range errs {
		first.Report(e)
	}
	second := aggregator.New()
	for _, e := range errs {
		second.Report(e)
	}

	assert.Equal(t, first.Groups(), second.Groups())
}

func TestResetClearsWarningsAndGroups(t *testing.T) {
	a := aggregator.New()
	a.Report(perror.New(perror.UnexpectedToken, at(1, 1), "x").WithSeverity(perror.Warning))
	a.Report(perror.New(perror.UnexpectedToken, at(2, 1), "y"))
	a.Reset()

	assert.Empty(t, a.Warnings())
	assert.Empty(t, a.Groups())
	assert.Equal(t, 0, a.ErrorCount())
}

func TestEncodeGroupsIsCanonicalAndDeterministic(t *testing.T) {
	a := aggregator.New()
	a.Report(perror.New(perror.UnexpectedToken, at(1, 1), "first"))
	a.Report(perror.New(perror.MissingToken, at(2, 1), "second"))

	enc1, err := a.EncodeGroups()
	require.NoError(t, err)
	enc2, err := a.EncodeGroups()
	require.NoError(t, err)
	assert.Equal(t, enc1, enc2)

	var decoded []aggregator.Group
	require.NoError(t, cbor.Unmarshal(enc1, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, perror.UnexpectedToken, decoded[0].Primary.Code)
	require.Len(t, decoded[0].Related, 1)
	assert.Equal(t, perror.MissingToken, decoded[0].Related[0].Code)
}

package buffer_test

import (
	"testing"

	"github.com/dgellow/zig-stream-parse-sub001/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendThenConsumeRoundTrips(t *testing.T) {
	b := buffer.New(8)
	assert.Equal(t, buffer.ErrNone, b.Append([]byte("hello")))
	assert.Equal(t, 5, b.Live())

	for _, want := range []byte("hello") {
		got, ok := b.Consume()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := b.Consume()
	assert.False(t, ok)
}

func TestPeekDoesNotConsume(t *testing.T) {
	b := buffer.New(8)
	b.Append([]byte("ab"))
	first, ok := b.Peek()
	require.True(t, ok)
	assert.Equal(t, byte('a'), first)
	// Peek again: unchanged.
	second, ok := b.Peek()
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestPeekAtBeyondLiveReturnsFalse(t *testing.T) {
	b := buffer.New(8)
	b.Append([]byte("ab"))
	_, ok := b.PeekAt(5)
	assert.False(t, ok)
}

func TestCompactPreservesLiveContentByteForByte(t *testing.T) {
	b := buffer.New(8)
	b.Append([]byte("abcdef"))
	b.ConsumeN(3)
	before := append([]byte(nil), b.PeekWindow()...)

	b.Compact()

	assert.Equal(t, before, b.PeekWindow())
	assert.Equal(t, "def", string(b.PeekWindow()))
}

func TestGrowthPreservesLiveRegionAndExceedsRequest(t *testing.T) {
	b := buffer.New(4)
	err := b.Append([]byte("abcdefgh"))
	require.Equal(t, buffer.ErrNone, err)
	assert.Equal(t, "abcdefgh", string(b.PeekWindow()))
	assert.GreaterOrEqual(t, b.Capacity(), 8)

	stats := b.Stats()
	assert.GreaterOrEqual(t, stats.Growths, uint64(1))
}

func TestAppendBeyondMaxCapacityOverflows(t *testing.T) {
	b := buffer.New(4, buffer.WithMaxCapacity(6))
	err := b.Append([]byte("abcdefgh"))
	assert.Equal(t, buffer.ErrBufferOverflow, err)
}

func TestOpportunisticCompactionTriggersOnThreshold(t *testing.T) {
	b := buffer.New(8, buffer.WithCompactThreshold(0.25))
	b.Append([]byte("abcdefgh"))
	b.ConsumeN(3) // start/capacity = 3/8 >= 0.25
	b.Append([]byte("X"))

	stats := b.Stats()
	assert.GreaterOrEqual(t, stats.Compactions, uint64(1))
}

func TestStatsTracksConsumedTotalAndPeakCapacity(t *testing.T) {
	b := buffer.New(4)
	b.Append([]byte("abcdefgh"))
	b.ConsumeN(4)

	stats := b.Stats()
	assert.Equal(t, uint64(4), stats.ConsumedTotal)
	assert.GreaterOrEqual(t, stats.PeakCapacity, 8)
}

func TestResetOnlyLegalForMemoryBackedBuffer(t *testing.T) {
	b := buffer.New(8)
	b.Append([]byte("abc"))
	assert.Panics(t, func() { b.Reset() })

	mb := buffer.NewFromSource([]byte("abc"))
	mb.ConsumeN(3)
	assert.True(t, mb.IsAtEnd())
	mb.Reset()
	assert.Equal(t, 3, mb.Live())
	assert.Equal(t, "abc", string(mb.PeekWindow()))
}

func TestAppendNotValidOnMemoryBackedBuffer(t *testing.T) {
	mb := buffer.NewFromSource([]byte("abc"))
	assert.Panics(t, func() { mb.Append([]byte("x")) })
}

func TestIsAtEndReflectsLiveRegion(t *testing.T) {
	b := buffer.New(4)
	assert.True(t, b.IsAtEnd())
	b.Append([]byte("x"))
	assert.False(t, b.IsAtEnd())
	b.ConsumeN(1)
	assert.True(t, b.IsAtEnd())
}

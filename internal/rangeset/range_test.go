package rangeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTwoAdjacentSpecs(t *testing.T) {
	spans, err := Parse("bytes=500-600,601-999", 1000)
	require.NoError(t, err)
	assert.Equal(t, []Span{{500, 101}, {601, 399}}, spans)
}

func TestParseWithWhitespace(t *testing.T) {
	spans, err := Parse("bytes=0-2, 5-10", 10)
	require.NoError(t, err)
	assert.Equal(t, []Span{{0, 3}, {5, 5}}, spans)
}

func TestParseSuffix(t *testing.T) {
	spans, err := Parse("bytes=-500", 1000)
	require.NoError(t, err)
	assert.Equal(t, []Span{{500, 500}}, spans)
}

func TestParseSuffixClampedToSize(t *testing.T) {
	spans, err := Parse("bytes=-5000", 1000)
	require.NoError(t, err)
	assert.Equal(t, []Span{{0, 1000}}, spans)
}

func TestParseSuffixZeroIsNonOverlapping(t *testing.T) {
	_, err := Parse("bytes=-0", 1000)
	assert.ErrorIs(t, err, ErrNoOverlap)
}

func TestParseClampEndToFileSize(t *testing.T) {
	spans, err := Parse("bytes=0-99999", 1000)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, uint64(1000), spans[0].Length)
}

func TestParseOpenEnded(t *testing.T) {
	spans, err := Parse("bytes=900-", 1000)
	require.NoError(t, err)
	assert.Equal(t, []Span{{900, 100}}, spans)
}

func TestParseNoOverlap(t *testing.T) {
	_, err := Parse("bytes=5000-6000", 1000)
	assert.ErrorIs(t, err, ErrNoOverlap)
}

func TestParseInvalidDoubleDash(t *testing.T) {
	_, err := Parse("bytes=--5", 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseInvalidEmptyHeader(t *testing.T) {
	_, err := Parse("", 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseInvalidBadPrefix(t *testing.T) {
	_, err := Parse("byte=0-1", 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseInvalidNonDigit(t *testing.T) {
	_, err := Parse("bytes=abc-5", 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseInvalidContradictoryEndpoints(t *testing.T) {
	_, err := Parse("bytes=500-100", 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseInvalidOverflow(t *testing.T) {
	_, err := Parse("bytes=99999999999999999999-", 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseMultipartTwoRanges(t *testing.T) {
	spans, err := Parse("bytes=0-0,500-500", 1000)
	require.NoError(t, err)
	assert.Equal(t, []Span{{0, 1}, {500, 1}}, spans)
}

func TestParseZeroSizeFile(t *testing.T) {
	_, err := Parse("bytes=0-", 0)
	assert.ErrorIs(t, err, ErrNoOverlap)
}

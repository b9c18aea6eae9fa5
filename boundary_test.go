package filesvr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBoundaryShapeAndAlphabet(t *testing.T) {
	b := newBoundary()
	assert.Len(t, b, boundaryTotalLen)
	assert.True(t, strings.HasPrefix(b, boundaryPrefix))
	for _, c := range b[len(boundaryPrefix):] {
		assert.Contains(t, boundaryAlphabet, string(c))
	}
}

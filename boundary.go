package filesvr

import (
	"strings"
	"time"
)

// boundaryAlphabet is the URL-safe base64 alphabet: 64 characters, all
// alphanumeric plus '-' and '_', so the token can never collide with the
// "--" delimiter syntax multipart parsing relies on.
const boundaryAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const boundaryPrefix = "blockless:"
const boundaryTotalLen = 35

// newBoundary generates a boundary token per spec.md §4.4: a fixed
// literal prefix followed by characters drawn from a 64-character
// alphabet, indexed by (seed+i) mod 64 where seed is the current
// seconds-since-epoch. Determinism across runs is not required or
// attempted — only uniqueness across concurrent responses within the
// same host, which holds probabilistically within a given second.
func newBoundary() string {
	seed := time.Now().Unix()
	var b strings.Builder
	b.WriteString(boundaryPrefix)
	need := boundaryTotalLen - len(boundaryPrefix)
	for i := 0; i < need; i++ {
		idx := (seed + int64(i)) % int64(len(boundaryAlphabet))
		b.WriteByte(boundaryAlphabet[idx])
	}
	return b.String()
}

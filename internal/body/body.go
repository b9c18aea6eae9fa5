// Package body implements the three lazy byte-chunk producers a response
// body can take: the full file, a single byte range, and a
// multipart/byteranges framing of several ranges. Each is a plain
// io.Reader backed by a small state machine; Go's blocking-read-on-a-
// goroutine model is what makes each Read a single suspension point, as
// called for by the component this package realizes.
package body

import "io"

// BufferSize bounds how many bytes a single underlying read may return;
// callers that buffer reads themselves should not exceed it either, to
// keep per-chunk memory bounded regardless of how many ranges are live.
const BufferSize = 10240

// Reader is the minimal capability the file handle must provide.
type Reader interface {
	io.Reader
	io.Seeker
}

// Full streams the first N bytes of reader, where N is either a fixed
// size or unbounded (size == Unbounded).
type Full struct {
	r         Reader
	remaining uint64
	unbounded bool
}

// Unbounded marks a Full stream that reads until EOF rather than a fixed
// byte count.
const Unbounded = ^uint64(0)

// NewFull returns a stream that emits exactly size bytes from r, or, if
// size == Unbounded, reads until EOF.
func NewFull(r Reader, size uint64) *Full {
	return &Full{r: r, remaining: size, unbounded: size == Unbounded}
}

func (f *Full) Read(p []byte) (int, error) {
	if !f.unbounded && f.remaining == 0 {
		return 0, io.EOF
	}
	if len(p) > BufferSize {
		p = p[:BufferSize]
	}
	if !f.unbounded && uint64(len(p)) > f.remaining {
		p = p[:f.remaining]
	}
	n, err := f.r.Read(p)
	if !f.unbounded {
		f.remaining -= uint64(n)
	}
	return n, err
}

// singleRangePhase tags where a SingleRange stream is in its lifecycle.
// Kept as an explicit enum rather than an interface hierarchy, per the
// "state machines as tagged variants" guidance: there is exactly one
// seek and then a plain read loop, nothing more to dispatch on.
type singleRangePhase int

const (
	phaseInitial singleRangePhase = iota
	phaseSeeking
	phaseReading
)

// SingleRange streams exactly Length bytes starting at Start within r,
// seeking there on the first Read call.
type SingleRange struct {
	r      Reader
	start  int64
	length uint64

	phase   singleRangePhase
	full    *Full
	seekErr error
}

// NewSingleRange returns a stream over [start, start+length) of r.
func NewSingleRange(r Reader, start int64, length uint64) *SingleRange {
	return &SingleRange{r: r, start: start, length: length}
}

func (s *SingleRange) Read(p []byte) (int, error) {
	switch s.phase {
	case phaseInitial:
		s.phase = phaseSeeking
		if _, err := s.r.Seek(s.start, io.SeekStart); err != nil {
			s.seekErr = err
			return 0, err
		}
		s.phase = phaseReading
		s.full = NewFull(s.r, s.length)
		return s.full.Read(p)

	case phaseSeeking:
		// A stream is single-shot per spec.md: once a seek has failed
		// there is nothing left to retry.
		if s.seekErr != nil {
			return 0, s.seekErr
		}
		return 0, io.ErrClosedPipe

	default: // phaseReading
		return s.full.Read(p)
	}
}

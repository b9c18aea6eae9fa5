package body

import (
	"fmt"
	"io"
)

// Range is a single byte range to be framed into a multipart/byteranges
// part.
type Range struct {
	Start  uint64
	Length uint64
}

// multipartPhase tags what a MultiRange stream is currently emitting.
type multipartPhase int

const (
	mpHeader multipartPhase = iota
	mpBody
	mpClosing
	mpDone
)

// MultiRange streams a multipart/byteranges body: for each range, a
// boundary header chunk, then its bytes, then (folded into the next
// header) a separating "\r\n"; after the last range, a closing boundary.
type MultiRange struct {
	r           Reader
	ranges      []Range
	boundary    string
	fileSize    uint64
	contentType string

	idx     int
	phase   multipartPhase
	pending []byte // a synthesized header/closing chunk not yet fully drained
	cur     *SingleRange
}

// NewMultiRange returns a stream framing ranges (in order) from r as
// multipart/byteranges. contentType may be empty, in which case the
// per-part Content-Type header line is omitted, matching spec.md.
func NewMultiRange(r Reader, ranges []Range, boundary string, fileSize uint64, contentType string) *MultiRange {
	return &MultiRange{r: r, ranges: ranges, boundary: boundary, fileSize: fileSize, contentType: contentType}
}

func rangeHeader(boundary string, r Range, fileSize uint64, contentType string, isFirst bool) []byte {
	var b []byte
	if !isFirst {
		b = append(b, "\r\n"...)
	}
	b = append(b, "--"...)
	b = append(b, boundary...)
	b = append(b, "\r\n"...)
	b = append(b, fmt.Sprintf("Content-Range: bytes %d-%d/%d\r\n", r.Start, r.Length, fileSize)...)
	if contentType != "" {
		b = append(b, "Content-Type: "+contentType+"\r\n"...)
	}
	b = append(b, "\r\n"...)
	return b
}

func closingBoundary(boundary string) []byte {
	return []byte("\r\n--" + boundary + "--\r\n")
}

// ComputeBodyLen returns the exact number of bytes a MultiRange stream
// built from the same arguments will emit. It must stay in lockstep with
// Read below: every byte Read produces is accounted for here, and vice
// versa.
func ComputeBodyLen(ranges []Range, boundary string, fileSize uint64, contentType string) uint64 {
	var total uint64
	for i, r := range ranges {
		h := rangeHeader(boundary, r, fileSize, contentType, i == 0)
		total += uint64(len(h)) + r.Length
	}
	total += uint64(len(closingBoundary(boundary)))
	return total
}

func (m *MultiRange) Read(p []byte) (int, error) {
	for {
		if len(m.pending) > 0 {
			n := copy(p, m.pending)
			m.pending = m.pending[n:]
			return n, nil
		}

		switch m.phase {
		case mpDone:
			return 0, io.EOF

		case mpHeader:
			if m.idx >= len(m.ranges) {
				m.pending = closingBoundary(m.boundary)
				m.phase = mpClosing
				continue
			}
			m.pending = rangeHeader(m.boundary, m.ranges[m.idx], m.fileSize, m.contentType, m.idx == 0)
			m.cur = NewSingleRange(m.r, int64(m.ranges[m.idx].Start), m.ranges[m.idx].Length)
			m.phase = mpBody
			continue

		case mpBody:
			n, err := m.cur.Read(p)
			if err == io.EOF {
				m.idx++
				m.phase = mpHeader
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err

		case mpClosing:
			// pending has just been fully drained above.
			m.phase = mpDone
			continue
		}
	}
}

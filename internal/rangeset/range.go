// Package rangeset parses the HTTP Range request header into a list of
// byte ranges, clamped and validated against a known resource size.
package rangeset

import "errors"

// ErrInvalidRange is returned for any malformed Range header: bad prefix,
// non-digit bounds, integer overflow, or contradictory endpoints.
var ErrInvalidRange = errors.New("rangeset: invalid range")

// ErrNoOverlap is returned when every spec in an otherwise well-formed
// header falls entirely outside the resource, leaving nothing to serve.
var ErrNoOverlap = errors.New("rangeset: no overlapping range")

const prefix = "bytes="

// Span is a single resolved byte range: Start is the first byte offset,
// Length is the number of bytes, both already clamped to the file size.
type Span struct {
	Start  uint64
	Length uint64
}

// Parse interprets header (the raw value of a Range header, e.g.
// "bytes=0-499,-500") against a resource of the given size. It returns the
// ordered list of satisfiable spans, preserving input order.
//
// An empty header is ErrInvalidRange. A header that names only specs
// lying entirely outside the resource is ErrNoOverlap.
func Parse(header string, size uint64) ([]Span, error) {
	if header == "" {
		return nil, ErrInvalidRange
	}
	if len(header) < len(prefix) || header[:len(prefix)] != prefix {
		return nil, ErrInvalidRange
	}
	rest := header[len(prefix):]

	var specs []string
	start := 0
	for i := 0; i <= len(rest); i++ {
		if i == len(rest) || rest[i] == ',' {
			specs = append(specs, rest[start:i])
			start = i + 1
		}
	}

	var spans []Span
	sawSpec := false
	for _, raw := range specs {
		spec := trim(raw)
		if spec == "" {
			continue
		}
		sawSpec = true

		span, overlaps, err := parseOne(spec, size)
		if err != nil {
			return nil, err
		}
		if overlaps {
			spans = append(spans, span)
		}
	}

	if !sawSpec {
		return nil, ErrInvalidRange
	}
	if len(spans) == 0 {
		return nil, ErrNoOverlap
	}
	return spans, nil
}

// parseOne parses a single "A-B" spec. overlaps is false for a
// non-overlapping spec (start beyond size, or a zero-length suffix); such
// specs contribute no span but are not themselves errors.
func parseOne(spec string, size uint64) (span Span, overlaps bool, err error) {
	dash := indexByte(spec, '-')
	if dash < 0 {
		return Span{}, false, ErrInvalidRange
	}
	aStr := trim(spec[:dash])
	bStr := trim(spec[dash+1:])

	switch {
	case aStr == "" && bStr == "":
		return Span{}, false, ErrInvalidRange

	case aStr == "":
		// suffix range: "-B"
		if hasDash(bStr) {
			return Span{}, false, ErrInvalidRange
		}
		b, ok := parseUint(bStr)
		if !ok {
			return Span{}, false, ErrInvalidRange
		}
		if b == 0 {
			return Span{}, false, nil
		}
		length := b
		if length > size {
			length = size
		}
		if length == 0 {
			return Span{}, false, nil
		}
		return Span{Start: size - length, Length: length}, true, nil

	default:
		if hasDash(aStr) {
			return Span{}, false, ErrInvalidRange
		}
		a, ok := parseUint(aStr)
		if !ok {
			return Span{}, false, ErrInvalidRange
		}
		if a > size {
			return Span{}, false, nil
		}
		if bStr == "" {
			length := size - a
			if length == 0 {
				return Span{}, false, nil
			}
			return Span{Start: a, Length: length}, true, nil
		}

		if hasDash(bStr) {
			return Span{}, false, ErrInvalidRange
		}
		b, ok := parseUint(bStr)
		if !ok {
			return Span{}, false, ErrInvalidRange
		}
		if a > b {
			return Span{}, false, ErrInvalidRange
		}
		if b >= size {
			if size == 0 {
				return Span{}, false, nil
			}
			b = size - 1
		}
		length := b - a + 1
		if length == 0 {
			return Span{}, false, nil
		}
		return Span{Start: a, Length: length}, true, nil
	}
}

func hasDash(s string) bool {
	return indexByte(s, '-') >= 0
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func trim(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// parseUint parses a non-empty run of ASCII decimal digits into a uint64,
// rejecting any non-digit byte and any value overflowing 64 bits.
func parseUint(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if v > (1<<64-1-d)/10 {
			return 0, false
		}
		v = v*10 + d
	}
	return v, true
}

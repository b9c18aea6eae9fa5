package filesvr

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/coreserve/filesvr/internal/fsopen"
	"github.com/coreserve/filesvr/internal/handling"
)

// ResolutionKind tags the outcome of resolving a request to a filesystem
// entity.
type ResolutionKind int

const (
	ResolutionNotFound ResolutionKind = iota
	ResolutionPermissionDenied
	ResolutionIsDirectory
	ResolutionMethodNotMatched
	ResolutionFound
)

// Resolution is the tagged outcome of Resolver.Resolve. Entry is only
// valid when Kind == ResolutionFound, and the caller then owns it
// exclusively (it must be closed, directly or by moving it into a body
// stream).
type Resolution struct {
	Kind  ResolutionKind
	Entry *fsopen.FileEntry
}

// Resolver maps a request method and URI path to a Resolution. It is a
// single-shot operation per call: Resolve does not retain state between
// calls beyond the Opener and Policy it was built with.
type Resolver struct {
	opener fsopen.Opener
	policy *handling.Policy // nil disables hide rules
}

// NewResolver builds a Resolver over opener. policy may be nil.
func NewResolver(opener fsopen.Opener, policy *handling.Policy) *Resolver {
	return &Resolver{opener: opener, policy: policy}
}

// Resolve runs the algorithm from spec.md §4.3: method gate, path
// stripping and lossy percent-decoding, root-escape check, hide-rule
// check, open, directory check.
func (res *Resolver) Resolve(ctx context.Context, method, uriPath string) (Resolution, error) {
	switch method {
	case http.MethodGet, http.MethodHead:
		// OK, continue.
	default:
		return Resolution{Kind: ResolutionMethodNotMatched}, nil
	}

	subpath := strings.TrimPrefix(uriPath, "/")
	subpath = percentDecodeLossy(subpath)

	// A subpath whose cleaned form climbs above the root never reaches
	// the opener.
	if cleaned := path.Clean(subpath); cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return Resolution{Kind: ResolutionNotFound}, nil
	}

	if res.policy != nil && res.policy.Hidden(subpath) {
		return Resolution{Kind: ResolutionNotFound}, nil
	}

	entry, err := res.opener.Open(ctx, subpath)
	if err != nil {
		notFound, permissionDenied, ok := fsopen.ClassifyOpenError(err)
		if !ok {
			return Resolution{}, err
		}
		if notFound {
			return Resolution{Kind: ResolutionNotFound}, nil
		}
		return Resolution{Kind: ResolutionPermissionDenied}, nil
	}

	if entry.IsDir {
		entry.Close()
		return Resolution{Kind: ResolutionIsDirectory}, nil
	}

	return Resolution{Kind: ResolutionFound, Entry: entry}, nil
}

// percentDecodeLossy decodes %XX escapes in s, then coerces the result to
// valid UTF-8, replacing any ill-formed sequence with U+FFFD. A malformed
// escape (bad hex, or a trailing '%') is passed through literally rather
// than rejected outright — spec.md only requires decoding to be lossy,
// not that malformed input be an error.
func percentDecodeLossy(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) {
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if ok1 && ok2 {
				buf = append(buf, hi<<4|lo)
				i += 2
				continue
			}
		}
		buf = append(buf, c)
	}
	return strings.ToValidUTF8(string(buf), "�")
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

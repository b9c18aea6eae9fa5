package filesvr

import (
	"net/http"
	"time"
)

// RequestMeta captures exactly the request fields the response builder
// needs, so the builder never has to hold a live *http.Request (and so
// tests can construct scenarios without one).
type RequestMeta struct {
	// Range is the raw Range header value, or "" if absent.
	Range string

	// IfModifiedSince is the parsed If-Modified-Since header, or nil if
	// absent or unparsable.
	IfModifiedSince *time.Time

	// IfRange is the raw If-Range header value. Captured but not yet
	// consulted by the decision logic — reserved for a future strong/
	// weak validator check.
	IfRange string

	IsHead bool
}

// CaptureRequestMeta extracts the fields ResponseBuilder needs from an
// *http.Request, leaving the request itself untouched (body not
// consumed).
func CaptureRequestMeta(r *http.Request) RequestMeta {
	meta := RequestMeta{
		Range:   r.Header.Get("Range"),
		IfRange: r.Header.Get("If-Range"),
		IsHead:  r.Method == http.MethodHead,
	}
	if v := r.Header.Get("If-Modified-Since"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			meta.IfModifiedSince = &t
		}
	}
	return meta
}

package filesvr

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/coreserve/filesvr/internal/fsopen"
	"github.com/coreserve/filesvr/internal/handling"
	"github.com/sirupsen/logrus"
)

// Handler implements http.Handler over a filesystem root, wiring the
// resolver and response builder together and translating a Resolution
// and Response into wire bytes. Standard security headers are set on
// every response, success or otherwise.
type Handler struct {
	resolver *Resolver
	policy   *handling.Policy
	headers  map[string]string
	log      logrus.FieldLogger
}

// NewHandler builds a Handler serving files via opener, subject to
// policy (which may be nil). log, if nil, discards output. It is
// equivalent to wiring a Factory's Service directly into an HTTP
// transport, except that it additionally resolves a gzip-aliased
// sibling before falling back to the original path.
func NewHandler(opener fsopen.Opener, policy *handling.Policy, log logrus.FieldLogger) *Handler {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	h := &Handler{
		resolver: NewResolver(opener, policy),
		policy:   policy,
		headers:  make(map[string]string),
		log:      log,
	}

	// https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/X-Frame-Options
	h.SetHeader("X-Frame-Options", "sameorigin")

	// https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/X-Content-Type-Options
	h.SetHeader("X-Content-Type-Options", "nosniff")

	return h
}

// SetHeader registers a header always emitted by ServeHTTP, on both
// success and error responses. Passing an empty value removes a
// previously set header.
func (h *Handler) SetHeader(key, value string) {
	if value == "" {
		delete(h.headers, key)
	} else {
		h.headers[key] = value
	}
}

// ServeHTTP resolves req against the filesystem root and writes the
// resulting status, headers and body. GET and HEAD are supported;
// anything else resolves as ResolutionMethodNotMatched, a 400 with an
// empty body.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	for k, v := range h.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Vary", "Accept-Encoding")

	uriPath := req.URL.Path
	servedEncoding := ""
	if h.policy != nil && acceptsGzip(req) {
		subpath := strings.TrimPrefix(uriPath, "/")
		if alias, ok := h.policy.GzipAlias(subpath); ok {
			if aliasRes, err := h.resolver.Resolve(req.Context(), req.Method, "/"+alias); err == nil && aliasRes.Kind == ResolutionFound {
				h.serveResolved(w, req, aliasRes, "/"+alias, "gzip")
				return
			}
		}
	}

	res, err := h.resolver.Resolve(req.Context(), req.Method, uriPath)
	if err != nil {
		h.log.WithError(err).WithField("path", req.URL.Path).Error("resolve failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.serveResolved(w, req, res, uriPath, servedEncoding)
}

func (h *Handler) serveResolved(w http.ResponseWriter, req *http.Request, res Resolution, uriPath, servedEncoding string) {
	switch res.Kind {
	case ResolutionMethodNotMatched:
		w.WriteHeader(http.StatusBadRequest)
		return
	case ResolutionNotFound:
		http.NotFound(w, req)
		return
	case ResolutionIsDirectory:
		http.Error(w, "is a directory", http.StatusForbidden)
		return
	case ResolutionPermissionDenied:
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	entry := res.Entry
	if ct := mime.TypeByExtension(filepath.Ext(req.URL.Path)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if servedEncoding != "" {
		w.Header().Set("Content-Encoding", servedEncoding)
	}

	resp := NewResponseBuilder(CaptureRequestMeta(req)).Build(entry)
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.Status)

	if resp.Body == nil {
		return
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.log.WithError(err).WithField("path", req.URL.Path).Warn("short write serving body")
	}
}

// acceptsGzip reports whether the client's Accept-Encoding header
// includes gzip. Retained for callers that want to prefer a
// policy-aliased pre-compressed sibling before resolving the original.
func acceptsGzip(req *http.Request) bool {
	for _, enc := range strings.Split(req.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(enc) == "gzip" {
			return true
		}
	}
	return false
}

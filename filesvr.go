package filesvr

import (
	"context"
	"net/http"

	"github.com/coreserve/filesvr/internal/fsopen"
	"github.com/coreserve/filesvr/internal/handling"
)

// Factory holds the configuration a Service is built from — the opener
// reaching into a filesystem root and the handling policy governing it
// — so that a process serving multiple roots can keep one Factory per
// root and hand out a cheap Service per request pipeline (HTTP handler,
// test harness, or otherwise) without re-parsing configuration.
type Factory struct {
	opener fsopen.Opener
	policy *handling.Policy
}

// NewFactory builds a Factory. policy may be nil.
func NewFactory(opener fsopen.Opener, policy *handling.Policy) *Factory {
	return &Factory{opener: opener, policy: policy}
}

// NewService returns a Service wired to this Factory's opener and
// policy.
func (f *Factory) NewService() *Service {
	return &Service{resolver: NewResolver(f.opener, f.policy)}
}

// Service is the callable core of the package: given a request's
// method, path and captured headers, it resolves and builds a Response.
// A Service carries no per-call state and is safe for concurrent use.
type Service struct {
	resolver *Resolver
}

// futureResult is the payload delivered on a Future's channel.
type futureResult struct {
	resp *Response
	err  error
}

// Future yields the single result of one Submit call. It may be awaited
// at most meaningfully once: after the first successful Await, the
// channel is drained and further Awaits block until ctx is done.
type Future struct {
	ch chan futureResult
}

// Await blocks until the result is ready or ctx is done, whichever
// comes first.
func (fu *Future) Await(ctx context.Context) (*Response, error) {
	select {
	case r := <-fu.ch:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit resolves and builds the response for one request asynchronously,
// returning a Future the caller polls via Await. Resolution and body
// construction both may block on filesystem I/O, so the work runs on its
// own goroutine rather than on the caller's.
func (s *Service) Submit(ctx context.Context, method, uriPath string, meta RequestMeta) *Future {
	fu := &Future{ch: make(chan futureResult, 1)}
	go func() {
		fu.ch <- s.serve(ctx, method, uriPath, meta)
	}()
	return fu
}

// Serve is the synchronous equivalent of Submit followed by an
// unconditional Await; most callers (including the HTTP handler, which
// already runs on its own per-request goroutine) want this directly.
func (s *Service) Serve(ctx context.Context, method, uriPath string, meta RequestMeta) (*Response, error) {
	r := s.serve(ctx, method, uriPath, meta)
	return r.resp, r.err
}

func (s *Service) serve(ctx context.Context, method, uriPath string, meta RequestMeta) futureResult {
	res, err := s.resolver.Resolve(ctx, method, uriPath)
	if err != nil {
		return futureResult{err: newServiceError("resolve", err)}
	}

	switch res.Kind {
	case ResolutionMethodNotMatched:
		return futureResult{resp: &Response{Status: http.StatusBadRequest, Header: http.Header{}}}
	case ResolutionNotFound:
		return futureResult{resp: &Response{Status: http.StatusNotFound, Header: http.Header{}}}
	case ResolutionIsDirectory:
		return futureResult{resp: &Response{Status: http.StatusForbidden, Header: http.Header{}}}
	case ResolutionPermissionDenied:
		return futureResult{resp: &Response{Status: http.StatusForbidden, Header: http.Header{}}}
	}

	resp := NewResponseBuilder(meta).Build(res.Entry)
	return futureResult{resp: resp}
}

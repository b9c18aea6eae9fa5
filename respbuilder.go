package filesvr

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/coreserve/filesvr/internal/body"
	"github.com/coreserve/filesvr/internal/fsopen"
	"github.com/coreserve/filesvr/internal/rangeset"
)

// minValidModSeconds filters out zero/epoch modtime sentinels, per
// spec.md §4.4 step 1.
const minValidModSeconds = 2

// Response is the status/headers/body the builder produces. Body is nil
// for every empty-body branch (304, HEAD, the classified-resolution
// trivial responses, and 416); otherwise it is the entry's handle wrapped
// so that closing the response body releases the underlying file.
type Response struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// ResponseBuilder turns a captured RequestMeta plus a resolved FileEntry
// into a Response, deciding status, headers and body shape per spec.md
// §4.4.
type ResponseBuilder struct {
	meta RequestMeta
}

// NewResponseBuilder captures meta for use across exactly one Build call.
func NewResponseBuilder(meta RequestMeta) *ResponseBuilder {
	return &ResponseBuilder{meta: meta}
}

// Build consumes entry exactly once: on every branch either entry is
// closed directly (no body emitted) or moved into the returned
// Response.Body.
func (b *ResponseBuilder) Build(entry *fsopen.FileEntry) *Response {
	modified, validMod := validModTime(entry.Modified)

	if validMod && b.meta.IfModifiedSince != nil {
		if modified.Unix() <= b.meta.IfModifiedSince.Unix() {
			entry.Close()
			return &Response{Status: http.StatusNotModified, Header: http.Header{}}
		}
	}

	header := http.Header{}
	if validMod {
		header.Set("Last-Modified", modified.UTC().Format(http.TimeFormat))
		header.Set("Accept-Ranges", "bytes")
	}

	if b.meta.IsHead {
		entry.Close()
		header.Set("Content-Length", strconv.FormatUint(entry.Size, 10))
		return &Response{Status: http.StatusOK, Header: header}
	}

	if b.meta.Range != "" {
		return b.buildRange(entry, header)
	}

	header.Set("Content-Length", strconv.FormatUint(entry.Size, 10))
	reader := body.NewFull(entry.Handle, entry.Size)
	return &Response{
		Status: http.StatusOK,
		Header: header,
		Body:   closeWith(reader, entry),
	}
}

func (b *ResponseBuilder) buildRange(entry *fsopen.FileEntry, header http.Header) *Response {
	spans, err := rangeset.Parse(b.meta.Range, entry.Size)
	if err != nil {
		entry.Close()
		return &Response{Status: http.StatusRequestedRangeNotSatisfiable, Header: header}
	}

	if len(spans) == 1 {
		sp := spans[0]
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", sp.Start, sp.Length, entry.Size))
		header.Set("Content-Length", strconv.FormatUint(entry.Size, 10))
		reader := body.NewSingleRange(entry.Handle, int64(sp.Start), sp.Length)
		return &Response{
			Status: http.StatusPartialContent,
			Header: header,
			Body:   closeWith(reader, entry),
		}
	}

	boundary := newBoundary()
	ranges := make([]body.Range, len(spans))
	for i, sp := range spans {
		ranges[i] = body.Range{Start: sp.Start, Length: sp.Length}
	}
	bodyLen := body.ComputeBodyLen(ranges, boundary, entry.Size, "")
	header.Set("Content-Type", "multipart/byteranges; boundary="+boundary)
	header.Set("Content-Length", strconv.FormatUint(bodyLen, 10))
	reader := body.NewMultiRange(entry.Handle, ranges, boundary, entry.Size, "")
	return &Response{
		Status: http.StatusPartialContent,
		Header: header,
		Body:   closeWith(reader, entry),
	}
}

func validModTime(t time.Time) (time.Time, bool) {
	if t.IsZero() {
		return time.Time{}, false
	}
	if t.Unix() < minValidModSeconds {
		return time.Time{}, false
	}
	return t, true
}

// entryCloser wraps a body reader so that closing the HTTP response body
// releases the FileEntry's handle exactly once, whether the body was
// fully drained or the connection was torn down early.
type entryCloser struct {
	io.Reader
	entry *fsopen.FileEntry
}

func (c *entryCloser) Close() error {
	return c.entry.Close()
}

func closeWith(r io.Reader, entry *fsopen.FileEntry) io.ReadCloser {
	return &entryCloser{Reader: r, entry: entry}
}

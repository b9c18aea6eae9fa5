package filesvr

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/coreserve/filesvr/internal/fsopen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T, data string, modified time.Time) *fsopen.FileEntry {
	t.Helper()
	opener := fsopen.NewMemOpener(map[string]fsopen.MemFile{
		"f": {Data: []byte(data), Modified: modified},
	})
	entry, err := opener.Open(context.Background(), "f")
	require.NoError(t, err)
	return entry
}

func TestBuildFullBody(t *testing.T) {
	entry := openFixture(t, "hello world", time.Unix(1700000000, 0))
	resp := NewResponseBuilder(RequestMeta{}).Build(entry)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "11", resp.Header.Get("Content-Length"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
	require.NoError(t, resp.Body.Close())
}

func TestBuildHeadHasNoBody(t *testing.T) {
	entry := openFixture(t, "hello world", time.Unix(1700000000, 0))
	resp := NewResponseBuilder(RequestMeta{IsHead: true}).Build(entry)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "11", resp.Header.Get("Content-Length"))
	assert.Nil(t, resp.Body)
}

func TestBuildNotModified(t *testing.T) {
	modified := time.Unix(1700000000, 0)
	entry := openFixture(t, "hello world", modified)
	since := modified.Add(time.Second)
	resp := NewResponseBuilder(RequestMeta{IfModifiedSince: &since}).Build(entry)
	assert.Equal(t, http.StatusNotModified, resp.Status)
	assert.Nil(t, resp.Body)
}

func TestBuildModifiedSinceStaleSentinelIgnored(t *testing.T) {
	// A zero/epoch modtime is not a valid Last-Modified basis.
	entry := openFixture(t, "hello world", time.Time{})
	since := time.Unix(1700000000, 0)
	resp := NewResponseBuilder(RequestMeta{IfModifiedSince: &since}).Build(entry)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Header.Get("Last-Modified"))
}

func TestBuildSingleRange(t *testing.T) {
	entry := openFixture(t, "0123456789", time.Unix(1700000000, 0))
	resp := NewResponseBuilder(RequestMeta{Range: "bytes=2-4"}).Build(entry)
	require.Equal(t, http.StatusPartialContent, resp.Status)
	assert.Equal(t, "bytes 2-3/10", resp.Header.Get("Content-Range"))
	assert.Equal(t, "10", resp.Header.Get("Content-Length"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "234", string(body))
}

func TestBuildMultiRange(t *testing.T) {
	entry := openFixture(t, "0123456789", time.Unix(1700000000, 0))
	resp := NewResponseBuilder(RequestMeta{Range: "bytes=0-1,5-6"}).Build(entry)
	require.Equal(t, http.StatusPartialContent, resp.Status)
	assert.Contains(t, resp.Header.Get("Content-Type"), "multipart/byteranges; boundary=")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, resp.Header.Get("Content-Length"), strconv.Itoa(len(body)))
}

func TestBuildInvalidRangeIs416(t *testing.T) {
	entry := openFixture(t, "0123456789", time.Unix(1700000000, 0))
	resp := NewResponseBuilder(RequestMeta{Range: "bytes=abc"}).Build(entry)
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.Status)
}

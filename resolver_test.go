package filesvr

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/coreserve/filesvr/internal/fsopen"
	"github.com/coreserve/filesvr/internal/handling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpener() *fsopen.MemOpener {
	return fsopen.NewMemOpener(map[string]fsopen.MemFile{
		"index.html": {Data: []byte("<html>hi</html>"), Modified: time.Unix(1700000000, 0)},
		"assets": {IsDir: true},
		"secret.txt": {Data: []byte("shh")},
	})
}

func TestResolveFound(t *testing.T) {
	res := NewResolver(newTestOpener(), nil)
	out, err := res.Resolve(context.Background(), http.MethodGet, "/index.html")
	require.NoError(t, err)
	require.Equal(t, ResolutionFound, out.Kind)
	defer out.Entry.Close()
	assert.EqualValues(t, len("<html>hi</html>"), out.Entry.Size)
}

func TestResolveNotFound(t *testing.T) {
	res := NewResolver(newTestOpener(), nil)
	out, err := res.Resolve(context.Background(), http.MethodGet, "/missing.txt")
	require.NoError(t, err)
	assert.Equal(t, ResolutionNotFound, out.Kind)
}

func TestResolveDirectory(t *testing.T) {
	res := NewResolver(newTestOpener(), nil)
	out, err := res.Resolve(context.Background(), http.MethodGet, "/assets")
	require.NoError(t, err)
	assert.Equal(t, ResolutionIsDirectory, out.Kind)
}

func TestResolveMethodNotMatched(t *testing.T) {
	res := NewResolver(newTestOpener(), nil)
	out, err := res.Resolve(context.Background(), http.MethodPost, "/index.html")
	require.NoError(t, err)
	assert.Equal(t, ResolutionMethodNotMatched, out.Kind)
}

func TestResolveHiddenByPolicy(t *testing.T) {
	policy, err := handling.Parse([]byte("rules:\n  - match: 'secret'\n    hide: true\n"))
	require.NoError(t, err)

	opener := newTestOpener()
	res := NewResolver(opener, policy)
	out, err := res.Resolve(context.Background(), http.MethodGet, "/secret.txt")
	require.NoError(t, err)
	assert.Equal(t, ResolutionNotFound, out.Kind)
	assert.Empty(t, opener.Opened, "a hidden path must never reach the opener")
}

func TestResolveTraversalNeverReachesOpener(t *testing.T) {
	opener := newTestOpener()
	res := NewResolver(opener, nil)
	out, err := res.Resolve(context.Background(), http.MethodGet, "/../secret.txt")
	require.NoError(t, err)
	// The cleaned subpath climbs above the root, so the resolver answers
	// NotFound itself; the DirOpener's own containment check is covered
	// by fsopen.TestDirOpenerRejectsTraversal.
	assert.Equal(t, ResolutionNotFound, out.Kind)
	assert.Empty(t, opener.Opened, "a path escaping the root must never reach the opener")
}

func TestResolvePercentDecodesPath(t *testing.T) {
	opener := fsopen.NewMemOpener(map[string]fsopen.MemFile{
		"a b.txt": {Data: []byte("x")},
	})
	res := NewResolver(opener, nil)
	out, err := res.Resolve(context.Background(), http.MethodGet, "/a%20b.txt")
	require.NoError(t, err)
	require.Equal(t, ResolutionFound, out.Kind)
	out.Entry.Close()
}

func TestPercentDecodeLossyToleratesMalformedEscapes(t *testing.T) {
	assert.Equal(t, "100%", percentDecodeLossy("100%"))
	assert.Equal(t, "a%zzb", percentDecodeLossy("a%zzb"))
	assert.Equal(t, "a b", percentDecodeLossy("a%20b"))
}

package statcache

import (
	"context"

	"github.com/coreserve/filesvr/internal/fsopen"
	"github.com/sirupsen/logrus"
)

// CachingOpener wraps an fsopen.Opener, recording device/inode/mtime
// metadata for every successfully opened file and logging whether a
// prior observation agreed. It never substitutes for, short-circuits,
// or alters the inner Open call: every response byte still flows
// through a freshly opened file handle, so disabling the cache cannot
// change what a client sees, only the diagnostics emitted alongside it.
type CachingOpener struct {
	inner fsopen.Opener
	cache *Cache
	log   logrus.FieldLogger
}

// Wrap builds a CachingOpener over inner. log may be nil.
func Wrap(inner fsopen.Opener, cache *Cache, log logrus.FieldLogger) *CachingOpener {
	if log == nil {
		log = logrus.New()
	}
	return &CachingOpener{inner: inner, cache: cache, log: log}
}

func (c *CachingOpener) Open(ctx context.Context, subpath string) (*fsopen.FileEntry, error) {
	entry, err := c.inner.Open(ctx, subpath)
	if err != nil {
		return nil, err
	}

	raw, ok := entry.Raw()
	if !ok || entry.IsDir {
		return entry, nil
	}

	if prev, hit := c.cache.Get(subpath); hit {
		if prev.Matches(raw.Dev, raw.Ino, entry.Modified.Unix()) {
			c.log.WithField("path", subpath).Debug("stat cache hit")
		} else {
			c.log.WithField("path", subpath).Debug("stat cache stale, refreshing")
		}
	}

	c.cache.Put(subpath, Entry{
		Size:         entry.Size,
		ModifiedUnix: entry.Modified.Unix(),
		Dev:          raw.Dev,
		Ino:          raw.Ino,
	})

	return entry, nil
}

var _ fsopen.Opener = (*CachingOpener)(nil)

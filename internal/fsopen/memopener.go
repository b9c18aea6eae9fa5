package fsopen

import (
	"bytes"
	"context"
	"os"
	"time"
)

// memReader adapts a bytes.Reader into the ReadSeekCloser FileEntry.Handle
// expects, since in-memory test data has nothing to close.
type memReader struct {
	*bytes.Reader
}

func (memReader) Close() error { return nil }

// MemFile is a single entry in a MemOpener's fixed tree.
type MemFile struct {
	Data     []byte
	IsDir    bool
	Modified time.Time
}

// MemOpener is an in-memory Opener for tests: it never touches disk, and
// records every subpath it was asked to open so a test can assert the
// resolver never invoked it for a path that should have been rejected
// earlier (e.g. by a hide rule or a containment check).
type MemOpener struct {
	files   map[string]MemFile
	Opened  []string
	OpenErr map[string]error
}

// NewMemOpener builds a MemOpener from a fixed set of paths. Keys must be
// slash-separated subpaths as the resolver would present them, e.g.
// "a.txt" or "subdir/b.txt".
func NewMemOpener(files map[string]MemFile) *MemOpener {
	return &MemOpener{files: files, OpenErr: map[string]error{}}
}

func (m *MemOpener) Open(ctx context.Context, subpath string) (*FileEntry, error) {
	m.Opened = append(m.Opened, subpath)

	if err, ok := m.OpenErr[subpath]; ok {
		return nil, err
	}

	f, ok := m.files[subpath]
	if !ok {
		return nil, os.ErrNotExist
	}

	if f.IsDir {
		return &FileEntry{IsDir: true, Modified: f.Modified}, nil
	}

	return &FileEntry{
		Handle:      memReader{bytes.NewReader(f.Data)},
		Size:        uint64(len(f.Data)),
		IsDir:       false,
		Modified:    f.Modified,
		Permissions: 0o644,
	}, nil
}

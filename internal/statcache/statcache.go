// Package statcache persists a small memo of previously observed file
// metadata to disk, so a long-running server can tell whether a file it
// served before has changed since. It never replaces the real open and
// stat of a file; it only records and compares what those observed, so
// disabling it does not change a response.
package statcache

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/gogo/protobuf/proto"
	"github.com/lwithers/pkg/writefile"
)

// Entry is one cached observation, keyed by the resolved subpath it was
// recorded against.
type Entry struct {
	Size         uint64
	ModifiedUnix int64
	Dev          uint64
	Ino          uint64
}

// Matches reports whether a freshly observed device/inode/mtime triple
// still agrees with this cache entry.
func (e Entry) Matches(dev, ino uint64, modifiedUnix int64) bool {
	return e.Dev == dev && e.Ino == ino && e.ModifiedUnix == modifiedUnix
}

// record is the on-the-wire protobuf message for a single cache entry.
// It is marshaled via gogo/protobuf's reflection-based encoder rather
// than generated code, since the schema is small and stable enough not
// to need protoc in the build.
type record struct {
	Path         string `protobuf:"bytes,1,opt,name=path,proto3"`
	Size         uint64 `protobuf:"varint,2,opt,name=size,proto3"`
	ModifiedUnix int64  `protobuf:"varint,3,opt,name=modified_unix,json=modifiedUnix,proto3"`
	Dev          uint64 `protobuf:"varint,4,opt,name=dev,proto3"`
	Ino          uint64 `protobuf:"varint,5,opt,name=ino,proto3"`
}

func (m *record) Reset()         { *m = record{} }
func (m *record) String() string { return proto.CompactTextString(m) }
func (*record) ProtoMessage()    {}

// Cache is an in-memory map of Entry backed by an optional on-disk file.
// All methods are safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
}

// Open loads an existing cache file, if present, or starts empty. path
// may be "", in which case the cache behaves purely in-memory and Flush
// is a no-op.
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, entries: map[string]Entry{}}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	if err := c.decode(data); err != nil {
		// A corrupt cache file is not fatal: start empty rather than
		// refusing to serve.
		c.entries = map[string]Entry{}
	}
	return c, nil
}

// Get returns the cached entry for subpath, if any.
func (c *Cache) Get(subpath string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[subpath]
	return e, ok
}

// Put records or replaces the entry for subpath.
func (c *Cache) Put(subpath string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[subpath] = e
}

// Flush writes the current contents to disk atomically. A no-op if the
// cache was opened with path == "".
func (c *Cache) Flush() error {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	data, err := c.encode()
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	return writefile.WriteFile(c.path, bytes.NewReader(data))
}

func (c *Cache) encode() ([]byte, error) {
	var buf bytes.Buffer
	for path, e := range c.entries {
		rec := &record{Path: path, Size: e.Size, ModifiedUnix: e.ModifiedUnix, Dev: e.Dev, Ino: e.Ino}
		raw, err := proto.Marshal(rec)
		if err != nil {
			return nil, err
		}
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(raw)))
		buf.Write(lenBuf[:])
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

func (c *Cache) decode(data []byte) error {
	r := bytes.NewReader(data)
	entries := map[string]Entry{}
	for {
		var lenBuf [4]byte
		_, err := io.ReadFull(r, lenBuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		raw := make([]byte, n)
		if _, err := io.ReadFull(r, raw); err != nil {
			return err
		}
		var rec record
		if err := proto.Unmarshal(raw, &rec); err != nil {
			return err
		}
		entries[rec.Path] = Entry{
			Size:         rec.Size,
			ModifiedUnix: rec.ModifiedUnix,
			Dev:          rec.Dev,
			Ino:          rec.Ino,
		}
	}
	c.entries = entries
	return nil
}

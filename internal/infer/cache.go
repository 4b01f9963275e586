package infer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Increment when the payload format changes.
const cacheSchemaVersion uint16 = 1

// Digest identifies one workspace build configuration.
type Digest [sha256.Size]byte

// Cache persists inferred classpaths under the user cache directory,
// keyed by workspace digest. It holds only the inference result, which
// is expensive to recompute for large trees.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache initializes and returns a disk cache at the standard
// location.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "classpath", hexKey+".mp")
}

type cachePayload struct {
	Schema  uint16
	Entries []string
}

// Put serializes and writes a classpath to the disk cache. The write is
// a temp-file-and-rename so readers never observe a partial payload.
func (c *Cache) Put(key Digest, entries []string) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&cachePayload{Schema: cacheSchemaVersion, Entries: entries}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a cached classpath. hit is false on a miss or a schema
// mismatch.
func (c *Cache) Get(key Digest) (entries []string, hit bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return payload.Entries, true, nil
}

// digestWorkspace hashes the inputs that determine a scanned classpath:
// the root path, the build-configuration files' contents, and the
// modification times of the scanned directories.
func digestWorkspace(root string) Digest {
	h := sha256.New()
	io.WriteString(h, root)
	for _, name := range buildFiles {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		io.WriteString(h, name)
		h.Write(data)
	}
	for _, dir := range append(append([]string(nil), jarDirs...), classDirs...) {
		path := filepath.Join(root, dir)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "%s:%d", dir, info.ModTime().UnixNano())
	}
	var key Digest
	h.Sum(key[:0])
	return key
}

package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when CachePayload format changes
const resultCacheSchemaVersion uint16 = 1

// ResultCache хранит исходы по хешу содержимого файла на диске.
// Только `unchanged`-результаты: неизменившийся файл при том же конфиге
// снова даст ноль правок, так что скан можно пропустить.
// Thread-safe for concurrent access.
type ResultCache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload stores a cached per-file outcome.
type CachePayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path      string
	Outcome   string
	Fallbacks int
}

// OpenResultCache initializes and returns a cache at the standard location.
func OpenResultCache(app string) (*ResultCache, error) {
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
	return &ResultCache{dir: dir}, nil
}

// Key derives the cache key from file content hash, engine mode, and the
// configuration fingerprint: any of the three changing invalidates the entry.
func Key(contentHash [32]byte, mode string, fingerprint string) [32]byte {
	h := sha256.New()
	h.Write(contentHash[:])
	h.Write([]byte{0})
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (c *ResultCache) pathFor(key [32]byte) string {
	hexKey := hex.EncodeToString(key[:])
	// подкаталог для удобства очистки
	return filepath.Join(c.dir, "runs", hexKey+".mp")
}

// Put serializes and writes a payload to the cache.
func (c *ResultCache) Put(key [32]byte, payload *CachePayload) error {
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
	defer func() {
		if removeErr := os.Remove(f.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "failed to remove temp file: %v\n", removeErr)
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the cache. A schema mismatch is
// treated as a miss.
func (c *ResultCache) Get(key [32]byte, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != resultCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *ResultCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	runs := filepath.Join(c.dir, "runs")
	if err := os.RemoveAll(runs); err != nil {
		return err
	}
	return nil
}

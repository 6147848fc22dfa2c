package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sjsage522/carsales/logger"
)

const expirySuffix = ".expires"

// FileCache implements CacheService on a directory, one file per key.
// Entries written with a zero expiration never expire.
type FileCache struct {
	dir string
}

// NewFileCache creates the directory if needed and returns a cache rooted at it
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

// Path returns the file backing key
func (c *FileCache) Path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") || strings.HasSuffix(key, expirySuffix) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(c.dir, key), nil
}

// Get reads the file for key
func (c *FileCache) Get(key string) ([]byte, error) {
	path, err := c.Path(key)
	if err != nil {
		return nil, err
	}
	if expired, err := c.expired(path); err != nil {
		return nil, err
	} else if expired {
		if err := c.Delete(key); err != nil {
			logger.ForCache().Warn().Err(err).Str("key", key).Msg("Failed to delete expired entry")
		}
		return nil, ErrCacheMiss
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set writes value atomically through a temporary file
func (c *FileCache) Set(key string, value []byte, expiration time.Duration) error {
	path, err := c.Path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-"+key+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	if expiration <= 0 {
		err := os.Remove(path + expirySuffix)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	expiresAt := time.Now().Add(expiration).UTC().Format(time.RFC3339Nano)
	return os.WriteFile(path+expirySuffix, []byte(expiresAt), 0o644)
}

// Delete removes key and its expiry marker
func (c *FileCache) Delete(key string) error {
	path, err := c.Path(key)
	if err != nil {
		return err
	}
	for _, p := range []string{path, path + expirySuffix} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (c *FileCache) expired(path string) (bool, error) {
	raw, err := os.ReadFile(path + expirySuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(raw)))
	if err != nil {
		return true, nil
	}
	return time.Now().After(expiresAt), nil
}

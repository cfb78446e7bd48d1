// ABOUTME: File-backed persistence for the MSAL token cache
// ABOUTME: The serialized cache is too large for some keychains, so it lives in a 0600 file
package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
)

// DefaultCacheFile is the token cache file name inside the config directory
const DefaultCacheFile = "msal_cache.json"

// FileCache implements cache.ExportReplace on a single file
type FileCache struct {
	path string
}

// NewFileCache returns a cache persisted at path
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the cache file location
func (c *FileCache) Path() string {
	return c.path
}

// Replace loads the persisted cache into MSAL
func (c *FileCache) Replace(ctx context.Context, u cache.Unmarshaler, _ cache.ReplaceHints) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read token cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	return u.Unmarshal(data)
}

// Export persists the MSAL cache after it changed
func (c *FileCache) Export(ctx context.Context, m cache.Marshaler, _ cache.ExportHints) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize token cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Clear removes the cache file
func (c *FileCache) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}
	return nil
}

// Package imagecache implements the on-disk artwork cache and the lazy
// download-and-resize path behind the image endpoints.
package imagecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Key addresses one cached variant. Width == 0 means the unprocessed
// original.
type Key struct {
	ProductID string
	Language  string
	Purpose   string
	Width     int
	Height    int
}

func (k Key) filename() string {
	if k.Width <= 0 {
		return k.Purpose + "-original.jpg"
	}
	return fmt.Sprintf("%s-%dx%d.jpg", k.Purpose, k.Width, k.Height)
}

// Cache is a best-effort disk store laid out as
// <root>/<productId>/<language>/<purpose>-<width>x<height>.jpg.
// Read and write failures degrade to cache misses; callers never see
// filesystem errors.
type Cache struct {
	root string
}

// NewCache creates the cache root if necessary.
func NewCache(root string) (*Cache, error) {
	if root == "" {
		return nil, fmt.Errorf("image cache root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create image cache root: %w", err)
	}
	return &Cache{root: root}, nil
}

func (c *Cache) dir(productID, language string) string {
	return filepath.Join(c.root, productID, language)
}

func (c *Cache) path(k Key) string {
	return filepath.Join(c.dir(k.ProductID, k.Language), k.filename())
}

// Get returns the cached bytes for an exact key, or false on any miss
// or read error.
func (c *Cache) Get(k Key) ([]byte, bool) {
	data, err := os.ReadFile(c.path(k))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores one variant. Failures are silently dropped; the next
// request re-downloads.
func (c *Cache) Set(k Key, data []byte) {
	if err := os.MkdirAll(c.dir(k.ProductID, k.Language), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(c.path(k), data, 0o644)
}

// FindHeight recovers the height component of a cached variant's key.
// The exact key of a width-only request is unknowable up front (the
// height depends on the source aspect ratio), so it scans the
// product/language subdirectory for "<purpose>-<width>x*.jpg" and
// parses the height out of the filename.
func (c *Cache) FindHeight(productID, language, purpose string, width int) (int, bool) {
	entries, err := os.ReadDir(c.dir(productID, language))
	if err != nil {
		return 0, false
	}
	prefix := fmt.Sprintf("%s-%dx", purpose, width)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jpg") || !strings.HasPrefix(name, prefix) {
			continue
		}
		height, err := strconv.Atoi(strings.TrimSuffix(name[len(prefix):], ".jpg"))
		if err != nil {
			continue
		}
		return height, true
	}
	return 0, false
}

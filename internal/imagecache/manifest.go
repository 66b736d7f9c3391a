package imagecache

import (
	"crypto/md5"
	"encoding/hex"
)

// Manifest reports a content checksum per product for the cached
// variant matching (language, purpose, width). Products without a
// matching cached file map to nil. The lookup is read-only: it never
// downloads or resizes, so clients can poll it cheaply to validate
// their own caches.
func (c *Cache) Manifest(productIDs []string, language, purpose string, width int) map[string]*string {
	checksums := make(map[string]*string, len(productIDs))
	for _, productID := range productIDs {
		checksums[productID] = nil
		height, ok := c.FindHeight(productID, language, purpose, width)
		if !ok {
			continue
		}
		data, ok := c.Get(Key{
			ProductID: productID,
			Language:  language,
			Purpose:   purpose,
			Width:     width,
			Height:    height,
		})
		if !ok {
			continue
		}
		sum := md5.Sum(data)
		checksum := hex.EncodeToString(sum[:])
		checksums[productID] = &checksum
	}
	return checksums
}

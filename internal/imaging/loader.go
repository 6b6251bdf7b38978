package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// LoadFrame decodes a single frame from disk.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP.
func LoadFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return DecodeFrame(f)
}

// DecodeFrame decodes a single frame from r, such as an uploaded file.
func DecodeFrame(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// FrameCache provides thread-safe caching of decoded frames to avoid redundant disk reads.
//
// Frames are keyed by path. Camera tools commonly overwrite the same file with
// each capture, so an entry is reused only while the file's size and modification
// time are unchanged.
//
// FrameCache is safe for concurrent use by multiple goroutines.
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]cachedFrame
}

type cachedFrame struct {
	img     image.Image
	modTime time.Time
	size    int64
}

// NewFrameCache creates and initializes a new empty frame cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]cachedFrame),
	}
}

// Load retrieves a frame from the cache or decodes it from disk if the cached copy
// is missing or stale.
func (c *FrameCache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	cached, ok := c.frames[path]
	c.mu.RUnlock()
	if ok && cached.modTime.Equal(stat.ModTime()) && cached.size == stat.Size() {
		return cached.img, nil
	}

	img, err := LoadFrame(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.frames[path] = cachedFrame{img: img, modTime: stat.ModTime(), size: stat.Size()}
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Evict removes a specific frame from the cache by its path.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

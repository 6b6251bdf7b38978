package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ironsheep/box-measure/internal/imaging"
)

// ErrNoFrames is returned by NewDirCamera when the directory has no images.
var ErrNoFrames = errors.New("no image files")

// DefaultWindow is the Window of a new DirCamera.
const DefaultWindow = 8

// Camera produces frames on demand.
type Camera interface {
	Capture(ctx context.Context) (image.Image, error)
}

// CameraFunc adapts a function to the Camera interface.
type CameraFunc func(ctx context.Context) (image.Image, error)

// Capture calls f(ctx).
func (f CameraFunc) Capture(ctx context.Context) (image.Image, error) {
	return f(ctx)
}

// imageExts are the extensions DirCamera replays.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DirCamera replays the image files of a directory in name order, wrapping around
// at the end. It stands in for a device when frames are recorded to disk.
//
// Decoded frames stay in the cache while they are among the last Window frames
// replayed, so short loops decode each file once and long recordings stay bounded.
//
// DirCamera is safe for concurrent use.
type DirCamera struct {
	dir   string
	cache *imaging.FrameCache

	// Window is the number of recently replayed frames kept decoded.
	Window int

	mu    sync.Mutex
	files []string
	next  int
}

// NewDirCamera lists the image files in dir. cache may be shared between cameras;
// nil creates a private one.
func NewDirCamera(dir string, cache *imaging.FrameCache) (*DirCamera, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFrames)
	}
	sort.Strings(files)

	if cache == nil {
		cache = imaging.NewFrameCache()
	}
	return &DirCamera{dir: dir, cache: cache, Window: DefaultWindow, files: files}, nil
}

// Capture decodes the next file in the sequence.
func (c *DirCamera) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	n := len(c.files)
	path := c.files[c.next]
	if c.Window < n {
		// The frame replayed Window steps ago leaves the cache.
		c.cache.Evict(c.files[(c.next-c.Window+n)%n])
	}
	c.next = (c.next + 1) % n
	c.mu.Unlock()

	return c.cache.Load(path)
}

// Len returns the number of files being replayed.
func (c *DirCamera) Len() int {
	return len(c.files)
}

package cache

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
)

// disk is the PNG file tier. One file per key lives in dir.
type disk struct {
	dir     string
	fs      ports.FileSystem
	codec   ports.Renderer
	target  preview.Dimensions
	density float64
	logger  ports.Logger

	discarded atomic.Int64
}

func (d *disk) path(key preview.Key) string {
	return filepath.Join(d.dir, key.FileName())
}

// load reads the file of key. A file that does not decode, decodes empty,
// or has the wrong dimensions is deleted and reported as a miss.
func (d *disk) load(key preview.Key) (preview.Bitmap, bool, error) {
	path := d.path(key)
	ok, err := d.fs.Exists(path)
	if err != nil || !ok {
		return preview.Bitmap{}, false, err
	}

	data, err := d.fs.ReadFile(path)
	if err != nil {
		return preview.Bitmap{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	img, err := d.codec.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		d.discard(path, fmt.Sprintf("decode: %v", err))
		return preview.Bitmap{}, false, nil
	}
	bmp := preview.NewBitmap(img, d.density)
	if bmp.IsZero() || bmp.Size() != d.target {
		d.discard(path, fmt.Sprintf("size %dx%d, want %dx%d", bmp.Width(), bmp.Height(), d.target.Width, d.target.Height))
		return preview.Bitmap{}, false, nil
	}
	return bmp, true, nil
}

func (d *disk) store(key preview.Key, bmp preview.Bitmap) error {
	if err := d.fs.MkdirAll(d.dir); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrWrite, d.dir, err)
	}
	data, err := d.codec.EncodeImage(bmp.Image, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrWrite, key, err)
	}
	if err := d.fs.WriteFileAtomic(d.path(key), data); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func (d *disk) discard(path, reason string) {
	d.discarded.Add(1)
	d.logger.Warn("Discarding cached preview %s: %s", filepath.Base(path), reason)
	if err := d.fs.Remove(path); err != nil {
		d.logger.Warn("Failed to remove %s: %v", path, err)
	}
}

// removeWhere deletes the files in dir whose name matches and returns how
// many were deleted.
func (d *disk) removeWhere(match func(name string) bool) (int, error) {
	names, err := d.fs.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", d.dir, err)
	}
	removed := 0
	var firstErr error
	for _, name := range names {
		if !match(name) {
			continue
		}
		if err := d.fs.Remove(filepath.Join(d.dir, name)); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove %s: %w", name, err)
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

func (d *disk) clear() (int, error) {
	return d.removeWhere(func(string) bool { return true })
}

// prune deletes files written by other versions.
func (d *disk) prune(version string) (int, error) {
	prefix := preview.VersionPrefix(version)
	return d.removeWhere(func(name string) bool {
		return !strings.HasPrefix(name, prefix)
	})
}

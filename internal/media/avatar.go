package media

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"tgmirror/internal/retry"
)

// DownloadAvatar fetches the channel photo, replacing the stored copy only
// when the bytes actually changed so the output tree stays quiet between
// runs. Returns the store-relative avatar path ("" when the channel has no
// photo) and whether the file changed. Failures are recoverable: they are
// logged and reported as "no avatar".
func (f *Fetcher) DownloadAvatar(ctx context.Context) (string, bool) {
	avatarPath := f.store.AvatarPath()
	if err := os.MkdirAll(filepath.Dir(avatarPath), 0o755); err != nil {
		f.logger.Warn("cannot create avatar directory", "error", err)
		return "", false
	}

	tmpPath := avatarPath + ".tmp"
	defer os.Remove(tmpPath)

	opts := retry.Options{Retries: 2, Backoff: 1500 * time.Millisecond}
	ok, err := retry.Do(ctx, f.logger, opts, func() (bool, error) {
		return f.source.DownloadAvatar(ctx, tmpPath)
	})
	if err != nil {
		f.logger.Warn("could not download avatar", "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}

	downloaded, err := os.ReadFile(tmpPath)
	if err != nil {
		f.logger.Warn("could not read downloaded avatar", "error", err)
		return "", false
	}

	rel, err := f.store.RelPath(avatarPath)
	if err != nil {
		return "", false
	}

	if current, err := os.ReadFile(avatarPath); err == nil && bytes.Equal(current, downloaded) {
		return rel, false
	}

	if err := os.Rename(tmpPath, avatarPath); err != nil {
		f.logger.Warn("could not replace avatar", "error", err)
		return "", false
	}
	if err := f.generateFavicons(avatarPath); err != nil {
		f.logger.Warn("could not generate favicons", "error", err)
	}
	return rel, true
}

// generateFavicons derives square favicon assets from the avatar.
func (f *Fetcher) generateFavicons(avatarPath string) error {
	img, err := imaging.Open(avatarPath)
	if err != nil {
		return err
	}
	base := squareCrop(img)

	favicon := imaging.Resize(base, 32, 32, imaging.Lanczos)
	if err := imaging.Save(favicon, filepath.Join(f.store.Root(), "favicon-32.png")); err != nil {
		return err
	}
	appleIcon := imaging.Resize(base, 180, 180, imaging.Lanczos)
	return imaging.Save(appleIcon, filepath.Join(f.store.Root(), "apple-touch-icon.png"))
}

func squareCrop(img image.Image) image.Image {
	bounds := img.Bounds()
	side := min(bounds.Dx(), bounds.Dy())
	return imaging.CropCenter(img, side, side)
}

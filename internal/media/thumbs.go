package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// thumbnailEdge is the longest edge of generated thumbnails.
const thumbnailEdge = 480

// jpegQuality keeps thumbnails lossy but web-friendly.
const jpegQuality = 80

// generateThumbnail derives a fixed-size thumbnail next to the asset tree
// and returns its store-relative path.
func (f *Fetcher) generateThumbnail(imagePath string) (string, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	if err := os.MkdirAll(f.store.ThumbsDir(), 0o755); err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	thumbPath := filepath.Join(f.store.ThumbsDir(), stem+"_480.jpg")

	thumb := imaging.Fit(img, thumbnailEdge, thumbnailEdge, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}

	return f.store.RelPath(thumbPath)
}

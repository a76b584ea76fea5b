package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"tgmirror/internal/models"
	"tgmirror/internal/posts"
	"tgmirror/internal/retry"
	"tgmirror/internal/storage"
)

// Source is the slice of the remote contract the fetcher needs: re-fetching
// a single message (media descriptors are not retained in the lightweight
// post records) and downloading payloads to local paths.
type Source interface {
	// Message fetches a single message by id, returning nil when the
	// message no longer exists.
	Message(ctx context.Context, id int64) (*models.RawMessage, error)
	// DownloadMedia downloads the media payload of the given message to dest.
	DownloadMedia(ctx context.Context, id int64, dest string) error
	// DownloadAvatar downloads the channel photo to dest, reporting false
	// when the channel has none.
	DownloadAvatar(ctx context.Context, dest string) (bool, error)
}

// candidateTypes lists the post types whose classification suggests an
// attachment worth a backfill attempt.
var candidateTypes = map[string]bool{
	models.TypePhoto:    true,
	models.TypeVideo:    true,
	models.TypeAudio:    true,
	models.TypeDocument: true,
	models.TypeImage:    true,
	models.TypeSticker:  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SafeFilename replaces filesystem-hostile characters and bounds the length.
func SafeFilename(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// Fetcher downloads message media into the store's asset tree and derives
// thumbnails for images. All downloads are sequential; per-item failures are
// recorded as a status on the post and never abort the run.
type Fetcher struct {
	source    Source
	store     *storage.Store
	maxBytes  int64
	retryOpts retry.Options
	logger    *slog.Logger
}

// NewFetcher creates a fetcher. maxBytes bounds the size of any single
// download; larger files are tagged skipped_too_large and never retried.
func NewFetcher(source Source, store *storage.Store, maxBytes int64, retryOpts retry.Options, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		source:    source,
		store:     store,
		maxBytes:  maxBytes,
		retryOpts: retryOpts,
		logger:    logger.With("component", "media"),
	}
}

// Backfill attempts media downloads for up to scope candidate posts, newest
// first. A candidate is a post without media whose type suggests an
// attachment and which is not already known to be oversized. Returns the
// number of media items downloaded; postsByID is updated in place.
func (f *Fetcher) Backfill(ctx context.Context, postsByID map[int64]models.Post, scope int) int {
	if scope <= 0 {
		return 0
	}

	ids := make([]int64, 0, len(postsByID))
	for id := range postsByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	checked := 0
	downloaded := 0
	for _, id := range ids {
		if checked >= scope {
			break
		}
		post := postsByID[id]
		if len(post.Media) > 0 {
			continue
		}
		if post.MediaStatus == models.MediaStatusSkippedTooLarge {
			continue
		}
		if !candidateTypes[post.Type] {
			continue
		}
		checked++

		raw, err := retry.Do(ctx, f.logger, f.retryOpts, func() (*models.RawMessage, error) {
			return f.source.Message(ctx, id)
		})
		if err != nil {
			if ctx.Err() != nil {
				return downloaded
			}
			f.logger.Warn("media download failed", "post_id", id, "error", err)
			continue
		}
		if raw == nil {
			continue
		}

		items, status := f.fetchMedia(ctx, *raw)
		post.MediaStatus = status
		if len(items) > 0 {
			post.Media = items
			downloaded += len(items)
		}
		postsByID[id] = post
	}
	return downloaded
}

// fetchMedia downloads the payload of one message and returns the resulting
// media list plus the status tag to record on the post.
func (f *Fetcher) fetchMedia(ctx context.Context, raw models.RawMessage) ([]models.MediaItem, string) {
	m := raw.Media
	if m == nil {
		return nil, models.MediaStatusNoMedia
	}
	if !m.HasFile {
		return nil, models.MediaStatusMissingFile
	}
	if m.Size != nil && *m.Size > f.maxBytes {
		f.logger.Info("skipping oversized media", "post_id", raw.ID, "size", *m.Size)
		return nil, models.MediaStatusSkippedTooLarge
	}

	outPath := f.mediaPath(raw.ID, m)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		f.logger.Warn("cannot create media directory", "error", err)
		return nil, models.MediaStatusDownloadFailed
	}

	// An existing file means a previous run already fetched it; re-runs
	// must not transfer it again.
	if _, err := os.Stat(outPath); os.IsNotExist(err) {
		_, err := retry.Do(ctx, f.logger, f.retryOpts, func() (struct{}, error) {
			return struct{}{}, f.source.DownloadMedia(ctx, raw.ID, outPath)
		})
		if err != nil {
			f.logger.Warn("media download failed", "post_id", raw.ID, "error", err)
			return nil, models.MediaStatusDownloadFailed
		}
	}
	if _, err := os.Stat(outPath); err != nil {
		return nil, models.MediaStatusDownloadFailed
	}

	rel, err := f.store.RelPath(outPath)
	if err != nil {
		return nil, models.MediaStatusDownloadFailed
	}

	kind := posts.Classify(raw)
	item := models.MediaItem{
		Kind: storedKind(kind),
		Path: rel,
		Size: m.Size,
		MIME: m.MIME,
		Name: SafeFilename(m.Name),
	}

	if isImage(kind, m.MIME, outPath) {
		if thumb, err := f.generateThumbnail(outPath); err != nil {
			f.logger.Warn("thumbnail generation failed", "path", outPath, "error", err)
		} else {
			item.Thumb = thumb
		}
	}

	return []models.MediaItem{item}, models.MediaStatusDownloaded
}

// mediaPath derives the deterministic download path for a message:
// "<id>_<sanitized name><ext>" with the pieces that exist.
func (f *Fetcher) mediaPath(id int64, m *models.MediaDescriptor) string {
	ext := m.Ext
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := SafeFilename(m.Name)

	base := fmt.Sprintf("%d", id)
	var filename string
	switch {
	case name != "" && ext != "":
		filename = base + "_" + name
		if !strings.HasSuffix(filename, ext) {
			filename += ext
		}
	case ext != "":
		filename = base + ext
	default:
		filename = base
	}
	return filepath.Join(f.store.AssetsDir(), filename)
}

// storedKind collapses the classification into the media kinds kept on
// records.
func storedKind(kind string) string {
	switch kind {
	case models.TypePhoto, models.TypeVideo, models.TypeAudio:
		return kind
	default:
		return models.TypeDocument
	}
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

func isImage(kind, mime, path string) bool {
	if kind == models.TypePhoto || kind == models.TypeImage {
		return true
	}
	if strings.HasPrefix(strings.ToLower(mime), "image/") {
		return true
	}
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

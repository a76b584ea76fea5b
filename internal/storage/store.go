package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"tgmirror/internal/models"
)

// Store owns the on-disk record tree under the docs directory. All writes go
// through a write-to-temp-then-rename path and are skipped entirely when the
// serialized content is byte-identical to what is already on disk, so a
// version-controlled output tree only changes when the data does.
//
// The store assumes a single writer process; concurrent runs are out of
// scope.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates a store rooted at the given docs directory.
func New(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, logger: logger.With("component", "storage")}
}

// Root returns the docs directory the store is rooted at.
func (s *Store) Root() string { return s.root }

// DataDir returns the directory holding posts.json, meta.json and friends.
func (s *Store) DataDir() string { return filepath.Join(s.root, "data") }

// PostsPath returns the location of the post records file.
func (s *Store) PostsPath() string { return filepath.Join(s.DataDir(), "posts.json") }

// MetaPath returns the location of the meta record file.
func (s *Store) MetaPath() string { return filepath.Join(s.DataDir(), "meta.json") }

// ConfigPath returns the location of the frontend runtime config.
func (s *Store) ConfigPath() string { return filepath.Join(s.DataDir(), "config.json") }

// PagesDir returns the directory holding paginated JSON chunks.
func (s *Store) PagesDir() string { return filepath.Join(s.DataDir(), "pages") }

// AssetsDir returns the media download directory.
func (s *Store) AssetsDir() string { return filepath.Join(s.root, "assets", "media") }

// ThumbsDir returns the thumbnail directory.
func (s *Store) ThumbsDir() string { return filepath.Join(s.AssetsDir(), "thumbs") }

// AvatarPath returns the location of the channel avatar.
func (s *Store) AvatarPath() string {
	return filepath.Join(s.root, "assets", "channel_avatar.jpg")
}

// RelPath converts an absolute path inside the store into the
// slash-separated form persisted in records.
func (s *Store) RelPath(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// LoadPosts reads the full post map. A missing or malformed file degrades to
// an empty map: the pipeline favors availability over strict corruption
// detection, and every entry that fails validation is dropped individually.
func (s *Store) LoadPosts() map[int64]models.Post {
	data, err := os.ReadFile(s.PostsPath())
	if err != nil {
		return map[int64]models.Post{}
	}
	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		s.logger.Warn("posts file is malformed, starting from an empty store", "error", err)
		return map[int64]models.Post{}
	}
	out := make(map[int64]models.Post, len(posts))
	for _, p := range posts {
		if p.ID == 0 {
			continue
		}
		out[p.ID] = p
	}
	return out
}

// WritePosts persists the post map sorted by ascending id, so new posts
// append to the end of the file. It reports whether the file changed.
func (s *Store) WritePosts(posts map[int64]models.Post) (bool, error) {
	sorted := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	payload, err := marshalJSON(sorted)
	if err != nil {
		return false, fmt.Errorf("encode posts: %w", err)
	}
	return s.writeIfChanged(s.PostsPath(), payload)
}

// LoadMeta reads the meta record, degrading to the zero value when the file
// is absent or malformed.
func (s *Store) LoadMeta() models.Meta {
	data, err := os.ReadFile(s.MetaPath())
	if err != nil {
		return models.Meta{}
	}
	var meta models.Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Warn("meta file is malformed, starting from an empty record", "error", err)
		return models.Meta{}
	}
	return meta
}

// WriteMeta persists the meta record, stamping schema versions when unset.
func (s *Store) WriteMeta(meta models.Meta) (bool, error) {
	if meta.MetaSchemaVersion == "" {
		meta.MetaSchemaVersion = models.MetaSchemaVersion
	}
	if meta.PostsSchemaVersion == "" {
		meta.PostsSchemaVersion = models.PostsSchemaVersion
	}
	payload, err := marshalJSON(meta)
	if err != nil {
		return false, fmt.Errorf("encode meta: %w", err)
	}
	return s.writeIfChanged(s.MetaPath(), payload)
}

// WriteSiteConfig persists the frontend runtime configuration.
func (s *Store) WriteSiteConfig(cfg any) (bool, error) {
	payload, err := marshalJSON(cfg)
	if err != nil {
		return false, fmt.Errorf("encode site config: %w", err)
	}
	return s.writeIfChanged(s.ConfigPath(), payload)
}

// WritePostPages chunks the newest-first post list into fixed-size JSON
// pages and removes stale pages beyond the new page count.
func (s *Store) WritePostPages(postsDesc []models.Post, pageSize int) (bool, error) {
	if pageSize <= 0 {
		return false, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if err := os.MkdirAll(s.PagesDir(), 0o755); err != nil {
		return false, err
	}

	totalPages := 0
	if len(postsDesc) > 0 {
		totalPages = (len(postsDesc) + pageSize - 1) / pageSize
	}

	changed := false
	for page := 1; page <= totalPages; page++ {
		start := (page - 1) * pageSize
		end := min(start+pageSize, len(postsDesc))
		payload, err := marshalJSON(postsDesc[start:end])
		if err != nil {
			return changed, fmt.Errorf("encode page %d: %w", page, err)
		}
		pageChanged, err := s.writeIfChanged(filepath.Join(s.PagesDir(), fmt.Sprintf("page-%d.json", page)), payload)
		if err != nil {
			return changed, err
		}
		changed = changed || pageChanged
	}

	entries, err := os.ReadDir(s.PagesDir())
	if err != nil {
		return changed, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".json"))
		if err != nil {
			continue
		}
		if idx > totalPages {
			if err := os.Remove(filepath.Join(s.PagesDir(), name)); err == nil {
				changed = true
			}
		}
	}
	return changed, nil
}

// WriteDocFile writes an arbitrary file (feeds, sitemap, robots) relative to
// the docs root with the same change-detecting atomic semantics.
func (s *Store) WriteDocFile(rel string, data []byte) (bool, error) {
	return s.writeIfChanged(filepath.Join(s.root, filepath.FromSlash(rel)), data)
}

// writeIfChanged writes data to path via a temp file and atomic rename,
// reporting false without touching the file when the content is identical.
func (s *Store) writeIfChanged(path string, data []byte) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, nil
}

// marshalJSON renders records the way the site consumes them: two-space
// indent, no HTML escaping, trailing newline.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

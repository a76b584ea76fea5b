package models

import "time"

// Post classification values. Classification follows a fixed precedence:
// poll > photo > video > audio > document (reclassified by MIME when
// possible) > text > other.
const (
	TypePoll     = "poll"
	TypePhoto    = "photo"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeImage    = "image"
	TypeSticker  = "sticker"
	TypeDocument = "document"
	TypeText     = "text"
	TypeOther    = "other"
)

// Media fetch status values recorded on a post after a backfill attempt.
const (
	MediaStatusDownloaded      = "downloaded"
	MediaStatusSkippedTooLarge = "skipped_too_large"
	MediaStatusDownloadFailed  = "download_failed"
	MediaStatusNoMedia         = "no_media"
	MediaStatusMissingFile     = "missing_file"
)

// Schema versions written into meta.json.
const (
	MetaSchemaVersion  = "1.0.0"
	PostsSchemaVersion = "1.0.0"
)

// MediaItem describes one downloaded attachment of a post. Paths are
// relative to the site root so the records stay portable.
type MediaItem struct {
	Kind  string `json:"kind"` // photo|video|audio|document
	Path  string `json:"path"`
	Thumb string `json:"thumb,omitempty"`
	Size  *int64 `json:"size,omitempty"`
	MIME  string `json:"mime,omitempty"`
	Name  string `json:"name,omitempty"`
}

// ReactionCount is one emoji bucket of a post's reaction summary.
type ReactionCount struct {
	Count int    `json:"count"`
	Emoji string `json:"emoji,omitempty"`
}

// ReactionInfo summarizes the reactions attached to a post.
type ReactionInfo struct {
	Total   int             `json:"total"`
	Details []ReactionCount `json:"details,omitempty"`
}

// Post is the canonical on-disk record for one channel message (or one
// merged album). Dates are stored as RFC 3339 strings in UTC, matching the
// serialized store format consumed by the renderer.
type Post struct {
	ID          int64         `json:"id"`
	Date        string        `json:"date"`
	Edited      string        `json:"edited,omitempty"`
	Text        string        `json:"text"`
	HTML        string        `json:"html"`
	Link        string        `json:"link,omitempty"`
	Type        string        `json:"type"`
	Views       *int          `json:"views,omitempty"`
	Forwards    *int          `json:"forwards,omitempty"`
	GroupedID   int64         `json:"grouped_id,omitempty"`
	Media       []MediaItem   `json:"media"`
	Reactions   *ReactionInfo `json:"reactions,omitempty"`
	MediaStatus string        `json:"media_status,omitempty"`
}

// DateTime parses the post's creation timestamp. The zero time is returned
// for missing or malformed values so callers can sort without error paths.
func (p Post) DateTime() time.Time {
	t, err := time.Parse(time.RFC3339, p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LastModified is the edit timestamp when present, otherwise the creation
// timestamp.
func (p Post) LastModified() time.Time {
	if p.Edited != "" {
		if t, err := time.Parse(time.RFC3339, p.Edited); err == nil {
			return t
		}
	}
	return p.DateTime()
}

// Stats carries the per-run counters surfaced in meta.json.
type Stats struct {
	New             int `json:"new"`
	Updated         int `json:"updated"`
	MediaDownloaded int `json:"media_downloaded"`
}

// Meta is the single channel-level record rebuilt on every successful run.
// LastSeenMessageID is the resume watermark: it never regresses and is
// always >= the highest post id present in the store.
type Meta struct {
	Title              string `json:"title,omitempty"`
	Username           string `json:"username,omitempty"`
	Channel            string `json:"channel"`
	LastSyncUTC        string `json:"last_sync_utc,omitempty"`
	PostsCount         int    `json:"posts_count"`
	LastSeenMessageID  int64  `json:"last_seen_message_id"`
	Avatar             string `json:"avatar,omitempty"`
	Stats              Stats  `json:"stats"`
	MetaSchemaVersion  string `json:"meta_schema_version,omitempty"`
	PostsSchemaVersion string `json:"posts_schema_version,omitempty"`
}

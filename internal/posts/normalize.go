package posts

import (
	"fmt"
	"strings"
	"time"

	"tgmirror/internal/models"
)

// Classify assigns the post type for a raw message. Precedence is fixed:
// poll > photo > video > audio > document (reclassified by MIME when
// possible) > text > other.
func Classify(raw models.RawMessage) string {
	if raw.HasPoll {
		return models.TypePoll
	}
	if m := raw.Media; m != nil {
		switch {
		case m.Photo:
			return models.TypePhoto
		case m.Video:
			return models.TypeVideo
		case m.Audio:
			return models.TypeAudio
		case m.Document || m.Sticker:
			mime := strings.ToLower(m.MIME)
			switch {
			case strings.Contains(mime, "application/x-tgsticker"):
				return models.TypeSticker
			case strings.Contains(mime, "image/"):
				return models.TypeImage
			case strings.Contains(mime, "video/"):
				return models.TypeVideo
			case strings.Contains(mime, "audio/"):
				return models.TypeAudio
			}
			return models.TypeDocument
		}
	}
	if raw.Text != "" {
		return models.TypeText
	}
	return models.TypeOther
}

// FromRaw converts one raw remote message into its canonical post record.
// The media list starts empty; downloads are reconciled separately so an
// edited caption never erases previously fetched attachments.
func FromRaw(raw models.RawMessage, channelUsername string) models.Post {
	rendered, err := renderHTML(raw.Text, raw.Entities)
	if err != nil {
		// The UI falls back to the plain text body.
		rendered = ""
	}

	link := ""
	if channelUsername != "" {
		link = fmt.Sprintf("https://t.me/%s/%d", channelUsername, raw.ID)
	}

	edited := ""
	if !raw.EditDate.IsZero() {
		edited = raw.EditDate.UTC().Format(time.RFC3339)
	}

	date := raw.Date
	if date.IsZero() {
		date = time.Now()
	}

	return models.Post{
		ID:        raw.ID,
		Date:      date.UTC().Format(time.RFC3339),
		Edited:    edited,
		Text:      raw.Text,
		HTML:      rendered,
		Link:      link,
		Type:      Classify(raw),
		Views:     raw.Views,
		Forwards:  raw.Forwards,
		GroupedID: raw.GroupedID,
		Media:     []models.MediaItem{},
		Reactions: reactionInfo(raw.Reactions),
	}
}

func reactionInfo(counts []models.ReactionCount) *models.ReactionInfo {
	if len(counts) == 0 {
		return nil
	}
	info := &models.ReactionInfo{Details: counts}
	for _, c := range counts {
		info.Total += c.Count
	}
	return info
}

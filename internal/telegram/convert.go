package telegram

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"tgmirror/internal/models"
)

// convertMessage shapes one wire message into the source-neutral raw form
// the normalizer consumes.
func convertMessage(msg *tg.Message) models.RawMessage {
	raw := models.RawMessage{
		ID:   int64(msg.ID),
		Date: time.Unix(int64(msg.Date), 0).UTC(),
		Text: msg.Message,
	}
	if edit, ok := msg.GetEditDate(); ok {
		raw.EditDate = time.Unix(int64(edit), 0).UTC()
	}
	if views, ok := msg.GetViews(); ok {
		raw.Views = &views
	}
	if forwards, ok := msg.GetForwards(); ok {
		raw.Forwards = &forwards
	}
	if grouped, ok := msg.GetGroupedID(); ok {
		raw.GroupedID = grouped
	}
	if entities, ok := msg.GetEntities(); ok {
		raw.Entities = convertEntities(entities)
	}
	if reactions, ok := msg.GetReactions(); ok {
		raw.Reactions = convertReactions(reactions)
	}
	if media, ok := msg.GetMedia(); ok {
		if _, isPoll := media.(*tg.MessageMediaPoll); isPoll {
			raw.HasPoll = true
		} else {
			raw.Media = describeMedia(media)
		}
	}
	return raw
}

func convertEntities(list []tg.MessageEntityClass) []models.Entity {
	out := make([]models.Entity, 0, len(list))
	for _, e := range list {
		var ent models.Entity
		switch v := e.(type) {
		case *tg.MessageEntityBold:
			ent.Type = models.EntityBold
		case *tg.MessageEntityItalic:
			ent.Type = models.EntityItalic
		case *tg.MessageEntityUnderline:
			ent.Type = models.EntityUnderline
		case *tg.MessageEntityStrike:
			ent.Type = models.EntityStrike
		case *tg.MessageEntityCode:
			ent.Type = models.EntityCode
		case *tg.MessageEntityPre:
			ent.Type = models.EntityPre
			ent.Language = v.Language
		case *tg.MessageEntityTextURL:
			ent.Type = models.EntityTextURL
			ent.URL = v.URL
		case *tg.MessageEntityURL:
			ent.Type = models.EntityURL
		case *tg.MessageEntityEmail:
			ent.Type = models.EntityEmail
		case *tg.MessageEntityPhone:
			ent.Type = models.EntityPhone
		case *tg.MessageEntityMention:
			ent.Type = models.EntityMention
		case *tg.MessageEntityHashtag:
			ent.Type = models.EntityHashtag
		case *tg.MessageEntitySpoiler:
			ent.Type = models.EntitySpoiler
		case *tg.MessageEntityBlockquote:
			ent.Type = models.EntityBlockquote
		case *tg.MessageEntityCustomEmoji:
			ent.Type = models.EntityCustomEmoji
			ent.EmojiID = v.DocumentID
		default:
			continue
		}
		ent.Offset = e.GetOffset()
		ent.Length = e.GetLength()
		out = append(out, ent)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func convertReactions(r tg.MessageReactions) []models.ReactionCount {
	out := make([]models.ReactionCount, 0, len(r.Results))
	for _, rc := range r.Results {
		emoji := ""
		if e, ok := rc.Reaction.(*tg.ReactionEmoji); ok {
			emoji = e.Emoticon
		}
		out = append(out, models.ReactionCount{Count: rc.Count, Emoji: emoji})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func describeMedia(media tg.MessageMediaClass) *models.MediaDescriptor {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		d := &models.MediaDescriptor{Photo: true, MIME: "image/jpeg", Ext: ".jpg"}
		if photo, ok := photoOf(m); ok {
			d.HasFile = true
			if _, size := largestPhotoSize(photo.Sizes); size >= 0 {
				d.Size = &size
			}
		}
		return d
	case *tg.MessageMediaDocument:
		d := &models.MediaDescriptor{Document: true}
		doc, ok := documentOf(m)
		if !ok {
			return d
		}
		d.HasFile = true
		size := doc.Size
		d.Size = &size
		d.MIME = doc.MimeType
		for _, attr := range doc.Attributes {
			switch a := attr.(type) {
			case *tg.DocumentAttributeFilename:
				d.Name = a.FileName
			case *tg.DocumentAttributeVideo:
				d.Document, d.Video = false, true
			case *tg.DocumentAttributeAudio:
				d.Document, d.Audio = false, true
			case *tg.DocumentAttributeSticker:
				d.Document, d.Sticker = false, true
			}
		}
		d.Ext = extensionFor(d.Name, d.MIME)
		return d
	default:
		// Web previews, geo points, contacts: nothing downloadable.
		return nil
	}
}

func photoOf(m *tg.MessageMediaPhoto) (*tg.Photo, bool) {
	p, ok := m.GetPhoto()
	if !ok {
		return nil, false
	}
	photo, ok := p.(*tg.Photo)
	return photo, ok
}

func documentOf(m *tg.MessageMediaDocument) (*tg.Document, bool) {
	d, ok := m.GetDocument()
	if !ok {
		return nil, false
	}
	doc, ok := d.(*tg.Document)
	return doc, ok
}

// largestPhotoSize picks the size type with the most bytes. Size -1 means no
// measurable size was present.
func largestPhotoSize(sizes []tg.PhotoSizeClass) (string, int64) {
	typ := ""
	best := int64(-1)
	for _, s := range sizes {
		switch v := s.(type) {
		case *tg.PhotoSize:
			if int64(v.Size) > best {
				best, typ = int64(v.Size), v.Type
			}
		case *tg.PhotoSizeProgressive:
			biggest := 0
			for _, n := range v.Sizes {
				if n > biggest {
					biggest = n
				}
			}
			if int64(biggest) > best {
				best, typ = int64(biggest), v.Type
			}
		}
	}
	return typ, best
}

var mimeExt = map[string]string{
	"image/jpeg":              ".jpg",
	"image/png":               ".png",
	"image/webp":              ".webp",
	"image/gif":               ".gif",
	"video/mp4":               ".mp4",
	"video/webm":              ".webm",
	"audio/mpeg":              ".mp3",
	"audio/ogg":               ".ogg",
	"audio/mp4":               ".m4a",
	"application/pdf":         ".pdf",
	"application/x-tgsticker": ".tgs",
}

func extensionFor(name, mime string) string {
	if ext := filepath.Ext(name); ext != "" {
		return ext
	}
	return mimeExt[strings.ToLower(mime)]
}

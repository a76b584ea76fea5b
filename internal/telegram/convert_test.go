package telegram

import (
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgmirror/internal/models"
)

func TestConvertMessageBasicFields(t *testing.T) {
	msg := &tg.Message{
		ID:      42,
		Date:    1714564800, // 2024-05-01T12:00:00Z
		Message: "hello",
	}
	msg.SetEditDate(1714568400)
	msg.SetViews(100)
	msg.SetForwards(5)
	msg.SetGroupedID(77)

	raw := convertMessage(msg)
	assert.Equal(t, int64(42), raw.ID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), raw.Date)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), raw.EditDate)
	assert.Equal(t, "hello", raw.Text)
	require.NotNil(t, raw.Views)
	assert.Equal(t, 100, *raw.Views)
	require.NotNil(t, raw.Forwards)
	assert.Equal(t, 5, *raw.Forwards)
	assert.Equal(t, int64(77), raw.GroupedID)
	assert.Nil(t, raw.Media)
	assert.False(t, raw.HasPoll)
}

func TestConvertMessagePoll(t *testing.T) {
	msg := &tg.Message{ID: 1, Date: 1714564800}
	msg.SetMedia(&tg.MessageMediaPoll{})

	raw := convertMessage(msg)
	assert.True(t, raw.HasPoll)
	assert.Nil(t, raw.Media)
}

func TestConvertEntities(t *testing.T) {
	list := []tg.MessageEntityClass{
		&tg.MessageEntityBold{Offset: 0, Length: 4},
		&tg.MessageEntityTextURL{Offset: 5, Length: 3, URL: "https://example.com"},
		&tg.MessageEntityPre{Offset: 9, Length: 2, Language: "go"},
		&tg.MessageEntityCustomEmoji{Offset: 12, Length: 2, DocumentID: 999},
		&tg.MessageEntityBankCard{Offset: 15, Length: 4}, // unsupported, dropped
	}

	out := convertEntities(list)
	require.Len(t, out, 4)
	assert.Equal(t, models.EntityBold, out[0].Type)
	assert.Equal(t, 0, out[0].Offset)
	assert.Equal(t, 4, out[0].Length)
	assert.Equal(t, models.EntityTextURL, out[1].Type)
	assert.Equal(t, "https://example.com", out[1].URL)
	assert.Equal(t, models.EntityPre, out[2].Type)
	assert.Equal(t, "go", out[2].Language)
	assert.Equal(t, models.EntityCustomEmoji, out[3].Type)
	assert.Equal(t, int64(999), out[3].EmojiID)
}

func TestConvertReactions(t *testing.T) {
	r := tg.MessageReactions{
		Results: []tg.ReactionCount{
			{Reaction: &tg.ReactionEmoji{Emoticon: "👍"}, Count: 3},
			{Reaction: &tg.ReactionCustomEmoji{DocumentID: 1}, Count: 2},
		},
	}
	out := convertReactions(r)
	require.Len(t, out, 2)
	assert.Equal(t, "👍", out[0].Emoji)
	assert.Equal(t, 3, out[0].Count)
	assert.Empty(t, out[1].Emoji)
	assert.Equal(t, 2, out[1].Count)
}

func TestDescribeMediaPhoto(t *testing.T) {
	photo := &tg.Photo{
		ID: 1,
		Sizes: []tg.PhotoSizeClass{
			&tg.PhotoSize{Type: "m", Size: 100},
			&tg.PhotoSize{Type: "x", Size: 900},
		},
	}
	m := &tg.MessageMediaPhoto{}
	m.SetPhoto(photo)

	d := describeMedia(m)
	require.NotNil(t, d)
	assert.True(t, d.Photo)
	assert.True(t, d.HasFile)
	require.NotNil(t, d.Size)
	assert.Equal(t, int64(900), *d.Size)
	assert.Equal(t, ".jpg", d.Ext)
}

func TestDescribeMediaDocumentReclassifiesByAttributes(t *testing.T) {
	doc := &tg.Document{
		ID:       2,
		Size:     4096,
		MimeType: "video/mp4",
		Attributes: []tg.DocumentAttributeClass{
			&tg.DocumentAttributeFilename{FileName: "clip.mp4"},
			&tg.DocumentAttributeVideo{},
		},
	}
	m := &tg.MessageMediaDocument{}
	m.SetDocument(doc)

	d := describeMedia(m)
	require.NotNil(t, d)
	assert.True(t, d.Video)
	assert.False(t, d.Document)
	assert.Equal(t, "clip.mp4", d.Name)
	assert.Equal(t, ".mp4", d.Ext)
	require.NotNil(t, d.Size)
	assert.Equal(t, int64(4096), *d.Size)
}

func TestDescribeMediaWebPreviewHasNoFile(t *testing.T) {
	assert.Nil(t, describeMedia(&tg.MessageMediaWebPage{}))
}

func TestLargestPhotoSizeProgressive(t *testing.T) {
	typ, size := largestPhotoSize([]tg.PhotoSizeClass{
		&tg.PhotoSize{Type: "s", Size: 50},
		&tg.PhotoSizeProgressive{Type: "y", Sizes: []int{10, 2000, 500}},
	})
	assert.Equal(t, "y", typ)
	assert.Equal(t, int64(2000), size)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".pdf", extensionFor("report.pdf", "application/octet-stream"))
	assert.Equal(t, ".webp", extensionFor("", "image/webp"))
	assert.Empty(t, extensionFor("", "application/unknown"))
}

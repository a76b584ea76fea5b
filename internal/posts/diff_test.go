package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tgmirror/internal/models"
)

func basePost() models.Post {
	views := 10
	return models.Post{
		ID:    1,
		Date:  "2024-01-01T00:00:00Z",
		Text:  "text",
		HTML:  "<strong>text</strong>",
		Type:  models.TypeText,
		Views: &views,
		Media: []models.MediaItem{},
	}
}

func TestChangedIsReflexive(t *testing.T) {
	p := basePost()
	assert.False(t, Changed(p, p))
	assert.False(t, Changed(basePost(), basePost()))
}

func TestChangedDetectsEachWatchedField(t *testing.T) {
	mutations := map[string]func(*models.Post){
		"date":   func(p *models.Post) { p.Date = "2024-02-02T00:00:00Z" },
		"html":   func(p *models.Post) { p.HTML = "<em>text</em>" },
		"text":   func(p *models.Post) { p.Text = "edited" },
		"edited": func(p *models.Post) { p.Edited = "2024-01-02T00:00:00Z" },
		"views": func(p *models.Post) {
			v := 11
			p.Views = &v
		},
		"views cleared": func(p *models.Post) { p.Views = nil },
		"reactions": func(p *models.Post) {
			p.Reactions = &models.ReactionInfo{Total: 1, Details: []models.ReactionCount{{Count: 1, Emoji: "👍"}}}
		},
		"forwards": func(p *models.Post) {
			f := 5
			p.Forwards = &f
		},
		"type": func(p *models.Post) { p.Type = models.TypePhoto },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			old, updated := basePost(), basePost()
			mutate(&updated)
			assert.True(t, Changed(old, updated))
			// Symmetric.
			assert.True(t, Changed(updated, old))
		})
	}
}

func TestChangedIgnoresMediaAndGroupingKey(t *testing.T) {
	old, updated := basePost(), basePost()
	updated.Media = []models.MediaItem{{Kind: "photo", Path: "assets/media/1.jpg"}}
	updated.GroupedID = 99
	updated.MediaStatus = models.MediaStatusDownloaded
	assert.False(t, Changed(old, updated))
}

func TestChangedReactionDetailsCompared(t *testing.T) {
	old, updated := basePost(), basePost()
	old.Reactions = &models.ReactionInfo{Total: 2, Details: []models.ReactionCount{{Count: 2, Emoji: "👍"}}}
	updated.Reactions = &models.ReactionInfo{Total: 2, Details: []models.ReactionCount{{Count: 2, Emoji: "🔥"}}}
	assert.True(t, Changed(old, updated))

	updated.Reactions = &models.ReactionInfo{Total: 2, Details: []models.ReactionCount{{Count: 2, Emoji: "👍"}}}
	assert.False(t, Changed(old, updated))
}

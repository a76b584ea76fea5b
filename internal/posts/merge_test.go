package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgmirror/internal/models"
)

func TestMergeAlbumsCombinesGroupedMedia(t *testing.T) {
	postsByID := map[int64]models.Post{
		5: {ID: 5, GroupedID: 77, Media: []models.MediaItem{{Kind: "photo", Path: "assets/media/5.jpg"}}, Text: ""},
		6: {ID: 6, GroupedID: 77, Media: []models.MediaItem{{Kind: "photo", Path: "assets/media/6.jpg"}}, Text: "caption"},
		3: {ID: 3, Text: "solo", Media: []models.MediaItem{}},
	}

	merged := MergeAlbums(postsByID)

	require.Contains(t, merged, int64(5))
	assert.NotContains(t, merged, int64(6))

	album := merged[5]
	require.Len(t, album.Media, 2)
	assert.Equal(t, "assets/media/5.jpg", album.Media[0].Path)
	assert.Equal(t, "assets/media/6.jpg", album.Media[1].Path)
	assert.Equal(t, "caption", album.Text)
	assert.Equal(t, int64(77), album.GroupedID)

	assert.Equal(t, "solo", merged[3].Text)
}

func TestMergeAlbumsDeduplicatesMedia(t *testing.T) {
	item := models.MediaItem{Kind: "photo", Path: "assets/media/1.jpg", MIME: "image/jpeg"}
	postsByID := map[int64]models.Post{
		1: {ID: 1, GroupedID: 9, Media: []models.MediaItem{item}},
		2: {ID: 2, GroupedID: 9, Media: []models.MediaItem{item, {Kind: "video", Path: "assets/media/2.mp4", MIME: "video/mp4"}}},
	}

	merged := MergeAlbums(postsByID)
	require.Contains(t, merged, int64(1))
	assert.Len(t, merged[1].Media, 2)
}

func TestMergeAlbumsTextAndHTMLResolvedIndependently(t *testing.T) {
	postsByID := map[int64]models.Post{
		10: {ID: 10, GroupedID: 4, Text: "", HTML: "<em>base html</em>", Media: []models.MediaItem{}},
		11: {ID: 11, GroupedID: 4, Text: "later text", HTML: "", Media: []models.MediaItem{}},
	}

	merged := MergeAlbums(postsByID)
	album := merged[10]
	assert.Equal(t, "later text", album.Text)
	assert.Equal(t, "<em>base html</em>", album.HTML)
}

func TestMergeAlbumsOneSurvivorPerGroup(t *testing.T) {
	postsByID := map[int64]models.Post{
		1: {ID: 1, GroupedID: 7, Media: []models.MediaItem{}},
		2: {ID: 2, GroupedID: 7, Media: []models.MediaItem{}},
		3: {ID: 3, GroupedID: 7, Media: []models.MediaItem{}},
		4: {ID: 4, GroupedID: 8, Media: []models.MediaItem{}},
		5: {ID: 5, Media: []models.MediaItem{}},
	}

	merged := MergeAlbums(postsByID)
	seen := map[int64]int64{}
	for id, p := range merged {
		if p.GroupedID != 0 {
			_, dup := seen[p.GroupedID]
			assert.False(t, dup, "grouping key %d has more than one survivor", p.GroupedID)
			seen[p.GroupedID] = id
		}
	}
	assert.Len(t, merged, 3)
	assert.Equal(t, int64(1), seen[7])
	assert.Equal(t, int64(4), seen[8])
}

package posts

import (
	"sort"

	"tgmirror/internal/models"
)

type mediaKey struct {
	path string
	kind string
	mime string
}

// MergeAlbums coalesces messages that share a grouping key into one post per
// group. The member with the smallest id survives, carrying the deduplicated
// union of the group's media in ascending-id order; its text and rendered
// body fall back independently to the first non-empty value in the group.
// Every other member is dropped from the output.
func MergeAlbums(postsByID map[int64]models.Post) map[int64]models.Post {
	grouped := make(map[int64][]models.Post)
	merged := make(map[int64]models.Post, len(postsByID))

	for id, post := range postsByID {
		if post.GroupedID != 0 {
			grouped[post.GroupedID] = append(grouped[post.GroupedID], post)
			continue
		}
		merged[id] = post
	}

	for groupID, members := range grouped {
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		base := members[0]

		seen := make(map[mediaKey]bool)
		combined := make([]models.MediaItem, 0, len(members))
		for _, member := range members {
			for _, item := range member.Media {
				key := mediaKey{path: item.Path, kind: item.Kind, mime: item.MIME}
				if seen[key] {
					continue
				}
				seen[key] = true
				combined = append(combined, item)
			}
		}

		text, html := base.Text, base.HTML
		for _, member := range members {
			if text != "" && html != "" {
				break
			}
			if text == "" && member.Text != "" {
				text = member.Text
			}
			if html == "" && member.HTML != "" {
				html = member.HTML
			}
		}

		base.Media = combined
		base.Text = text
		base.HTML = html
		base.GroupedID = groupID
		merged[base.ID] = base
	}

	return merged
}

package posts

import "tgmirror/internal/models"

// Changed reports whether two records of the same post differ on the watched
// field set. Media and grouping key are deliberately excluded: media
// presence is reconciled separately, so re-fetching edited text never
// triggers media re-download bookkeeping.
func Changed(old, updated models.Post) bool {
	if old.Date != updated.Date ||
		old.HTML != updated.HTML ||
		old.Text != updated.Text ||
		old.Edited != updated.Edited ||
		old.Type != updated.Type {
		return true
	}
	if !intPtrEqual(old.Views, updated.Views) || !intPtrEqual(old.Forwards, updated.Forwards) {
		return true
	}
	return !reactionsEqual(old.Reactions, updated.Reactions)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func reactionsEqual(a, b *models.ReactionInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Total != b.Total || len(a.Details) != len(b.Details) {
		return false
	}
	for i := range a.Details {
		if a.Details[i] != b.Details[i] {
			return false
		}
	}
	return true
}

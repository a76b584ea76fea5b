package models

import "time"

// EntityType enumerates the formatting entity kinds the HTML renderer
// understands. Unknown kinds are rendered as plain text.
type EntityType string

const (
	EntityBold        EntityType = "bold"
	EntityItalic      EntityType = "italic"
	EntityUnderline   EntityType = "underline"
	EntityStrike      EntityType = "strikethrough"
	EntityCode        EntityType = "code"
	EntityPre         EntityType = "pre"
	EntityTextURL     EntityType = "text_url"
	EntityURL         EntityType = "url"
	EntityEmail       EntityType = "email"
	EntityPhone       EntityType = "phone"
	EntityMention     EntityType = "mention"
	EntityHashtag     EntityType = "hashtag"
	EntitySpoiler     EntityType = "spoiler"
	EntityBlockquote  EntityType = "blockquote"
	EntityCustomEmoji EntityType = "custom_emoji"
)

// Entity is one formatting span of a raw message. Offset and Length are in
// UTF-16 code units, as assigned by the remote source.
type Entity struct {
	Type     EntityType
	Offset   int
	Length   int
	URL      string // text_url only
	Language string // pre only
	EmojiID  int64  // custom_emoji only
}

// MediaDescriptor summarizes the downloadable payload attached to a raw
// message. HasFile is false when the message carries media without a
// retrievable file (polls, geo points, plain web previews).
type MediaDescriptor struct {
	Photo    bool
	Video    bool
	Audio    bool
	Document bool
	Sticker  bool
	HasFile  bool
	Size     *int64
	MIME     string
	Name     string // original filename, if any
	Ext      string // extension including the dot, if known
}

// RawMessage is the source-shaped view of one channel message, produced by
// the remote adapter and consumed by the normalizer. Zero values mean
// "absent" for EditDate and GroupedID.
type RawMessage struct {
	ID        int64
	Date      time.Time
	EditDate  time.Time
	Text      string
	Entities  []Entity
	GroupedID int64
	Views     *int
	Forwards  *int
	HasPoll   bool
	Media     *MediaDescriptor
	Reactions []ReactionCount
}

// ChannelInfo is the resolved identity of the mirrored channel.
type ChannelInfo struct {
	Title    string
	Username string
	HasPhoto bool
}

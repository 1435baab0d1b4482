package models

import "time"

// Post statuses. A post is retired to StatusManuallyRemoved when the
// reconciler finds one of its channel messages already deleted by someone
// else; it is never hard-deleted by the bot.
const (
	StatusActive          = "active"
	StatusManuallyRemoved = "manually_removed"
)

// Post represents a published book listing and its channel presence.
type Post struct {
	ID                int64      `db:"id"`
	UserID            int64      `db:"user_id"`             // submitter's Telegram user id
	MessageID         int        `db:"message_id"`          // original private-chat message id
	ChannelMessageIDs []int      `db:"channel_message_ids"` // last confirmed publish state, ordered
	TextContent       string     `db:"text_content"`        // raw caption as submitted
	FileIDs           []string   `db:"file_ids"`            // Telegram photo file ids, empty for imported rows
	CreatedAt         time.Time  `db:"created_at"`
	RepostCount       int        `db:"repost_count"`
	LastRepost        *time.Time `db:"last_repost"` // nil until first confirmed repost
	Status            string     `db:"status"`
}

// RepostClock returns the timestamp repost eligibility is measured against:
// the last confirmed repost if there is one, otherwise first publish.
func (p *Post) RepostClock() time.Time {
	if p.LastRepost != nil {
		return *p.LastRepost
	}
	return p.CreatedAt
}

// Listing holds the structured attributes parsed from a submission caption.
// Fields are immutable once the post is published.
type Listing struct {
	Title     string
	Author    string
	Pages     string
	Condition string
	Cover     string
	Year      string
	Notes     string
	Price     string
}

package model

import (
	"strings"
	"time"
)

// StatusWindow is how long a status post stays visible. Expiry is enforced
// by query filtering on CreatedAt; expired posts are simply never matched,
// not deleted.
const StatusWindow = 24 * time.Hour

// StatusPost is an ephemeral story-style update. UserName and UserAvatar
// are snapshots of the author at post time, same trade-off as Message.
type StatusPost struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	Text       string    `json:"text,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// StatusGroup is the derived per-author view of the feed: that author's
// live posts in ascending post order plus the most recent post time.
// Recomputed from each subscription snapshot, never persisted.
type StatusGroup struct {
	UserID     string
	UserName   string
	UserAvatar string
	Posts      []StatusPost
	LastUpdate time.Time
}

// ValidateStatus enforces that a post carries text or an image.
func ValidateStatus(text, imageURL string) error {
	if strings.TrimSpace(text) == "" && imageURL == "" {
		return &ValidationError{Field: "text", Reason: "status needs text or an image"}
	}
	return nil
}

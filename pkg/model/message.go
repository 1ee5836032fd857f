package model

import (
	"strings"
	"time"
)

// Message is a single chat message inside a room. ID is a snowflake
// assigned by the sync worker, so clustering by ID gives send-time order
// per room. UserName and UserAvatar are snapshots of the sender taken at
// send time; a later profile change must not rewrite past messages.
type Message struct {
	ID         int64     `json:"id"`
	RoomID     string    `json:"room_id"`
	Content    string    `json:"content"`
	SenderID   string    `json:"sender_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	FileURL    string    `json:"file_url,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	FileType   string    `json:"file_type,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// HasAttachment reports whether the message carries a resolved file.
func (m *Message) HasAttachment() bool {
	return m.FileURL != ""
}

// Attachment describes an uploaded file ready to be attached to a message:
// the durable download URL plus the name and mime type shown to readers.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ValidateMessage enforces the invariant that a message has text content
// or an attachment, never neither.
func ValidateMessage(content string, att *Attachment) error {
	if strings.TrimSpace(content) == "" && (att == nil || att.URL == "") {
		return &ValidationError{Field: "content", Reason: "message needs text or an attachment"}
	}
	return nil
}

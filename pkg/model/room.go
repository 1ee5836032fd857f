package model

import "strings"

type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatorID string `json:"creator_id"`
}

// ValidateRoomName rejects empty or whitespace-only names before any
// remote call is attempted.
func ValidateRoomName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "room name is required"}
	}
	return nil
}

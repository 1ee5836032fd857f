package model

// User is the identity record kept by the gateway. Name and AvatarURL may
// change after creation; everything else is immutable. Messages and status
// posts reference users by ID but snapshot Name/AvatarURL at write time.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

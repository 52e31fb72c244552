package model

import "time"

// Profile is the display identity of a user. Fields the owner hides (birth date,
// last seen) arrive as null.
type Profile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	FullName  string     `json:"full_name"`
	Bio       string     `json:"bio"`
	AvatarURL string     `json:"avatar_url"`
	BirthDate *time.Time `json:"birth_date"`
	LastSeen  *time.Time `json:"last_seen"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Settings *Settings `json:"Settings,omitempty"`
}

// Presence is the online state of one user.
type Presence struct {
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen"`
}

// Block is a directed edge from the local profile to a blocked profile.
type Block struct {
	ID               string    `json:"id"`
	ProfileID        string    `json:"profile_id"`
	BlockedProfileID string    `json:"blocked_profile_id"`
	CreatedAt        time.Time `json:"created_at"`

	BlockedProfile *Profile `json:"BlockedProfile,omitempty"`
}

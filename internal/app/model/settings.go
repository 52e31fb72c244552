package model

// BirthDateVisibility controls who sees the profile's birth date.
type BirthDateVisibility string

const (
	BirthDateAll    BirthDateVisibility = "all"
	BirthDateNobody BirthDateVisibility = "nobody"
)

// Settings is the single settings record of the session.
type Settings struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	ShowOnlineStatus bool                `json:"show_online_status"`
	ShowBirthDate    BirthDateVisibility `json:"show_birth_date"`
	DarkMode         bool                `json:"dark_mode"`
	Language         string              `json:"language"`
}

// SettingsUpdate is a partial update: nil fields are neither sent nor merged.
type SettingsUpdate struct {
	ShowOnlineStatus *bool                `json:"show_online_status,omitempty"`
	ShowBirthDate    *BirthDateVisibility `json:"show_birth_date,omitempty"`
	DarkMode         *bool                `json:"dark_mode,omitempty"`
	Language         *string              `json:"language,omitempty"`
}

// Empty reports whether the update carries no field.
func (u SettingsUpdate) Empty() bool {
	return u.ShowOnlineStatus == nil && u.ShowBirthDate == nil && u.DarkMode == nil && u.Language == nil
}

// Apply merges the set fields of u into s and returns the result.
func (u SettingsUpdate) Apply(s Settings) Settings {
	if u.ShowOnlineStatus != nil {
		s.ShowOnlineStatus = *u.ShowOnlineStatus
	}
	if u.ShowBirthDate != nil {
		s.ShowBirthDate = *u.ShowBirthDate
	}
	if u.DarkMode != nil {
		s.DarkMode = *u.DarkMode
	}
	if u.Language != nil {
		s.Language = *u.Language
	}
	return s
}

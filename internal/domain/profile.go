package domain

// Profile is the read-only identity reference owned by the session provider.
// The messaging core never mutates it.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"full_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

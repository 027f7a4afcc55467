package domain

import "time"

// Profile is an entry of the user directory. The realtime core never reads
// profiles; they back the matching query and the identity bootstrap.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	City         string    `json:"city"`
	Interests    []string  `json:"interests"`
	CreatedAt    time.Time `json:"created_at"`
}

package domain

import "time"

type User struct {
	ID           UserID
	Handle       UserHandle
	DisplayName  string
	PasswordHash string     // argon2 encoded
	MFAEnabled   *time.Time // Timestamp when MFA was enabled (nullable)
	MFASecret    *string    // TOTP secret (nullable, base32 encoded)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasMFA reports whether TOTP has been activated for the user.
func (u *User) HasMFA() bool {
	return u.MFAEnabled != nil && u.MFASecret != nil && *u.MFASecret != ""
}

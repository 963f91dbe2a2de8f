package accounts

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// TokenRecord is a single-use email verification token attached to a user.
// It is exclusively owned by the user document that contains it; the token
// value is unique across all users (backed by a unique sparse index).
type TokenRecord struct {
	// Token is the opaque secret proving possession of the emailed link.
	Token string `bson:"token"`

	// Address the token was issued for.
	Address string `bson:"address"`

	// When the token was issued.
	When time.Time `bson:"when"`
}

// ResetRecord is the outstanding password reset or enrollment token of a
// user. Unlike verification tokens there is at most one per user, a newly
// issued record replaces the previous one.
type ResetRecord struct {
	// Token is the opaque secret proving possession of the emailed link.
	Token string `bson:"token"`

	// Email the token was issued for.
	Email string `bson:"email"`

	// When the token was issued.
	When time.Time `bson:"when"`

	// Reason the token was issued, ReasonReset or ReasonEnroll.
	Reason string `bson:"reason"`
}

// Reasons a ResetRecord may be issued for.
const (
	ReasonReset  = "reset"
	ReasonEnroll = "enroll"
)

// generateToken returns a new cryptographically random token value.
// The result is URL-safe base64, roughly 4/3*numBytes characters long.
func generateToken(numBytes int) (string, error) {
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package accounts

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a user that owns email addresses and verification tokens.
// A user may have multiple emails, and emails may be changed later,
// the User (identified by its ID) will remain the same.
type User struct {
	// ID of the user.
	ID bson.ObjectID `bson:"_id"`

	// Emails attached to the user, in insertion order.
	// Addresses are case-sensitively unique within this list.
	Emails []EmailRecord `bson:"emails,omitempty"`

	// Profile holds optional display data used when rendering emails.
	Profile Profile `bson:"profile,omitempty"`

	// Services holds per-service state attached to the user.
	Services Services `bson:"services,omitempty"`

	// User creation timestamp.
	Created time.Time `bson:"createdAt"`
}

// Profile holds optional display data of a user.
type Profile struct {
	// Name of the user, used in email greetings if present.
	Name string `bson:"name,omitempty"`
}

// EmailRecord is one email address attached to a user.
type EmailRecord struct {
	// Address is the email address, in the casing it was added with.
	Address string `bson:"address"`

	// Verified tells if the address has been confirmed reachable.
	Verified bool `bson:"verified"`
}

// Services holds per-service state attached to a user.
type Services struct {
	Email    EmailService    `bson:"email,omitempty"`
	Password PasswordService `bson:"password,omitempty"`
}

// EmailService holds the outstanding email verification tokens of a user.
type EmailService struct {
	VerificationTokens []TokenRecord `bson:"verificationTokens,omitempty"`
}

// PasswordService holds the outstanding password reset token of a user.
// Only one reset token is outstanding at a time, a new one supersedes it.
type PasswordService struct {
	Reset *ResetRecord `bson:"reset,omitempty"`
}

// findEmail returns the email record with the exact given address, or nil.
func (u *User) findEmail(address string) *EmailRecord {
	for i := range u.Emails {
		if u.Emails[i].Address == address {
			return &u.Emails[i]
		}
	}
	return nil
}

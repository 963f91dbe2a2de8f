package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SendVerificationEmail mails the user a link that, when opened, marks
// address as verified. address must be attached to the user; if empty,
// the first unverified address is used.
//
// A new single-use token is persisted for the address. Outstanding tokens
// for the same or other addresses stay valid until one of them is
// consumed.
func (a *Accounts) SendVerificationEmail(ctx context.Context, userID bson.ObjectID, address string) error {
	if userID.IsZero() {
		return fmt.Errorf("%w: user id must not be empty", ErrInvalidArgument)
	}

	user, err := a.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if address == "" {
		for _, e := range user.Emails {
			if !e.Verified {
				address = e.Address
				break
			}
		}
	}
	if address == "" || user.findEmail(address) == nil {
		return ErrNoSuchAddress
	}

	token, err := generateToken(a.cfg.TokenBytes)
	if err != nil {
		return err
	}
	rec := TokenRecord{Token: token, Address: address, When: time.Now()}

	_, err = a.cu.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$push": bson.M{"services.email.verificationTokens": rec}})
	if err != nil {
		return err
	}

	// Mirror the new token into the loaded user so templates render
	// against the state just persisted.
	user.Services.Email.VerificationTokens = append(user.Services.Email.VerificationTokens, rec)

	msg := a.templates.message(&a.templates.VerifyEmail, user, address, a.cfg.VerifyEmailURL(token))
	return a.mailer.Send(ctx, msg)
}

// VerifyEmail consumes a token from a verification link: it marks the
// address the token was issued for as verified, removes every outstanding
// token for that address, and returns the owning user's id as the
// authenticated identity. Establishing a session for that id is up to the
// caller.
//
// On failure the returned id is zero, except when the token's owner could
// be determined (the token record or its address vanished between lookup
// and consumption, typically to a concurrent call): then the id is
// returned alongside the error so the caller can still decide which
// identity the attempt belonged to.
//
// Two calls racing for tokens of the same address are not idempotent: the
// loser observes ErrLinkExpired.
func (a *Accounts) VerifyEmail(ctx context.Context, token string) (bson.ObjectID, error) {
	if token == "" {
		return bson.ObjectID{}, ErrLinkExpired
	}

	// At most one user can match: token values are backed by a unique
	// sparse index.
	var user *User
	err := a.cu.FindOne(ctx, bson.M{"services.email.verificationTokens.token": token}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return bson.ObjectID{}, ErrLinkExpired
	}
	if err != nil {
		return bson.ObjectID{}, err
	}

	var rec *TokenRecord
	for i := range user.Services.Email.VerificationTokens {
		if user.Services.Email.VerificationTokens[i].Token == token {
			rec = &user.Services.Email.VerificationTokens[i]
			break
		}
	}
	if rec == nil {
		return user.ID, ErrLinkExpired
	}

	if user.findEmail(rec.Address) == nil {
		return user.ID, ErrUnknownAddress
	}

	// Including the address in the selector gives "emails.$" a reference
	// to the matched entry and makes the update conditional on the
	// address still being attached, so a concurrent consumption for a
	// different address on the same user cannot be clobbered.
	_, err = a.cu.UpdateOne(ctx,
		bson.M{"_id": user.ID, "emails.address": rec.Address},
		bson.M{
			"$set":  bson.M{"emails.$.verified": true},
			"$pull": bson.M{"services.email.verificationTokens": bson.M{"address": rec.Address}},
		})
	if err != nil {
		return bson.ObjectID{}, err
	}

	return user.ID, nil
}

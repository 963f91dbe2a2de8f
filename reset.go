package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SendResetPasswordEmail mails the user a password reset link for the
// given address. address must be attached to the user; if empty, the
// user's first address is used.
//
// Only one reset or enrollment token is outstanding per user: issuing a
// new one supersedes the previous record.
func (a *Accounts) SendResetPasswordEmail(ctx context.Context, userID bson.ObjectID, address string) error {
	return a.sendResetEmail(ctx, userID, address, ReasonReset)
}

// SendEnrollmentEmail mails the user a link to pick an initial password
// for a freshly created account. It behaves like SendResetPasswordEmail
// with a different mail template and token reason.
func (a *Accounts) SendEnrollmentEmail(ctx context.Context, userID bson.ObjectID, address string) error {
	return a.sendResetEmail(ctx, userID, address, ReasonEnroll)
}

func (a *Accounts) sendResetEmail(ctx context.Context, userID bson.ObjectID, address, reason string) error {
	if userID.IsZero() {
		return fmt.Errorf("%w: user id must not be empty", ErrInvalidArgument)
	}

	user, err := a.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if address == "" && len(user.Emails) > 0 {
		address = user.Emails[0].Address
	}
	if address == "" || user.findEmail(address) == nil {
		return ErrNoSuchAddress
	}

	token, err := generateToken(a.cfg.TokenBytes)
	if err != nil {
		return err
	}
	rec := &ResetRecord{Token: token, Email: address, When: time.Now(), Reason: reason}

	_, err = a.cu.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"services.password.reset": rec}})
	if err != nil {
		return err
	}
	user.Services.Password.Reset = rec

	templ, url := &a.templates.ResetPassword, a.cfg.ResetPasswordURL(token)
	if reason == ReasonEnroll {
		templ, url = &a.templates.EnrollAccount, a.cfg.EnrollAccountURL(token)
	}
	return a.mailer.Send(ctx, a.templates.message(templ, user, address, url))
}

// ConsumeResetToken consumes a token from a reset or enrollment link: it
// validates the token, clears it from the user, and returns the owning
// user's id and the address the token was issued for. Storing the new
// password is up to the caller.
//
// Fails with ErrLinkExpired if the token matches no user or is older than
// Config.ResetTokenExpiration, and with ErrUnknownAddress (tagged with
// the user id, like VerifyEmail) if the address has since been removed.
func (a *Accounts) ConsumeResetToken(ctx context.Context, token string) (bson.ObjectID, string, error) {
	if token == "" {
		return bson.ObjectID{}, "", ErrLinkExpired
	}

	var user *User
	err := a.cu.FindOne(ctx, bson.M{"services.password.reset.token": token}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return bson.ObjectID{}, "", ErrLinkExpired
	}
	if err != nil {
		return bson.ObjectID{}, "", err
	}

	rec := user.Services.Password.Reset
	if rec == nil || rec.Token != token {
		return user.ID, "", ErrLinkExpired
	}
	if time.Since(rec.When) > a.cfg.ResetTokenExpiration {
		return user.ID, "", ErrLinkExpired
	}
	if user.findEmail(rec.Email) == nil {
		return user.ID, "", ErrUnknownAddress
	}

	// Conditional on the token still being the outstanding one, so a
	// racing consumption or a superseding send cannot be clobbered.
	res, err := a.cu.UpdateOne(ctx,
		bson.M{"_id": user.ID, "services.password.reset.token": token},
		bson.M{"$unset": bson.M{"services.password.reset": ""}})
	if err != nil {
		return bson.ObjectID{}, "", err
	}
	if res.ModifiedCount == 0 {
		return user.ID, "", ErrLinkExpired
	}

	return user.ID, rec.Email, nil
}

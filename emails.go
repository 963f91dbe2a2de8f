package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CreateUser creates a new user with the given (unverified) email address
// and returns its id. Fails with a ConflictError if the address
// case-insensitively collides with an address of an existing user.
func (a *Accounts) CreateUser(ctx context.Context, email string) (bson.ObjectID, error) {
	if email == "" {
		return bson.ObjectID{}, fmt.Errorf("%w: email must not be empty", ErrInvalidArgument)
	}

	if err := a.checkDuplicates(ctx, "emails.address", "Email", email, bson.ObjectID{}); err != nil {
		return bson.ObjectID{}, err
	}

	user := &User{
		ID:      bson.NewObjectID(),
		Emails:  []EmailRecord{{Address: email}},
		Created: time.Now(),
	}
	if _, err := a.cu.InsertOne(ctx, user); err != nil {
		return bson.ObjectID{}, err
	}

	// Re-check in case a conflicting user was inserted concurrently.
	// See AddEmail about the compensation pattern.
	if err := a.checkDuplicates(ctx, "emails.address", "Email", email, user.ID); err != nil {
		if _, derr := a.cu.DeleteOne(ctx, bson.M{"_id": user.ID}); derr != nil {
			return bson.ObjectID{}, derr
		}
		return bson.ObjectID{}, err
	}

	return user.ID, nil
}

// AddEmail attaches an email address to the user. Use this instead of
// updating the users collection directly.
//
// If the user already holds an address differing from newEmail only in
// case, that entry is updated in place (casing and verified flag) and no
// cross-user duplicate check is needed: a conflict with another user
// would have existed before this call already.
//
// Otherwise the address must not case-insensitively collide with an
// address of a different user, or the call fails with a ConflictError.
// The check runs before and after the write; if a concurrent insert wins
// the race in between, the just-added entry is removed again and the
// ConflictError is returned. The two checks and the write are not one
// atomic step, so a narrow race window remains; on stores with
// conditional multi-document writes, replace this with an atomic
// insert-if-no-conflict.
func (a *Accounts) AddEmail(ctx context.Context, userID bson.ObjectID, newEmail string, verified bool) error {
	if userID.IsZero() {
		return fmt.Errorf("%w: user id must not be empty", ErrInvalidArgument)
	}
	if newEmail == "" {
		return fmt.Errorf("%w: email must not be empty", ErrInvalidArgument)
	}

	user, err := a.findUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, e := range user.Emails {
		if !strings.EqualFold(e.Address, newEmail) {
			continue
		}
		// Case-only change of the user's own address.
		_, err := a.cu.UpdateOne(ctx,
			bson.M{"_id": user.ID, "emails.address": e.Address},
			bson.M{"$set": bson.M{
				"emails.$.address":  newEmail,
				"emails.$.verified": verified,
			}})
		return err
	}

	if err := a.checkDuplicates(ctx, "emails.address", "Email", newEmail, user.ID); err != nil {
		return err
	}

	_, err = a.cu.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$addToSet": bson.M{"emails": EmailRecord{Address: newEmail, Verified: verified}}})
	if err != nil {
		return err
	}

	// Re-check in case a conflicting user was inserted in the meantime,
	// and undo the write if it was.
	if err := a.checkDuplicates(ctx, "emails.address", "Email", newEmail, user.ID); err != nil {
		_, perr := a.cu.UpdateOne(ctx,
			bson.M{"_id": user.ID},
			bson.M{"$pull": bson.M{"emails": bson.M{"address": newEmail}}})
		if perr != nil {
			return perr
		}
		return err
	}

	return nil
}

// RemoveEmail detaches an email address from the user. Use this instead
// of updating the users collection directly. Removing an address that is
// not attached is a no-op.
func (a *Accounts) RemoveEmail(ctx context.Context, userID bson.ObjectID, email string) error {
	if userID.IsZero() {
		return fmt.Errorf("%w: user id must not be empty", ErrInvalidArgument)
	}
	if email == "" {
		return fmt.Errorf("%w: email must not be empty", ErrInvalidArgument)
	}

	user, err := a.findUser(ctx, userID)
	if err != nil {
		return err
	}

	_, err = a.cu.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$pull": bson.M{"emails": bson.M{"address": email}}})
	return err
}

/*
Package accounts implements email address management and email-based
identity verification for a user database stored in MongoDB.

Each user document carries an ordered list of email addresses, each with a
verified flag, plus outstanding single-use verification tokens. The flow
is the following:

 1. An email address is attached to a user with Accounts.AddEmail().
    Addresses are unique across users when compared case-insensitively;
    a user may change the casing of his/her own address.
 2. A verification mail is sent with Accounts.SendVerificationEmail().
    It contains a link embedding an unguessable single-use token.
 3. Opening the link hands the token to Accounts.VerifyEmail(), which
    marks the address verified, retires every outstanding token for that
    address, and returns the user's id as the authenticated identity.
 4. Addresses can be detached again with Accounts.RemoveEmail().

Password-reset and account-enrollment mails work the same way through
Accounts.SendResetPasswordEmail(), Accounts.SendEnrollmentEmail() and
Accounts.ConsumeResetToken(), except that only one reset token is
outstanding per user at a time (a new mail supersedes the previous one).

Accounts uses MongoDB as the persistent store, accessed via the official
mongo-go driver, and relies solely on the store's per-document update
atomicity: all mutations are narrow conditional updates, there is no
in-process locking. Outbound mail is delivered through the Mailer
interface; SMTPMailer is a ready implementation, and tests may inject a
capturing double.
*/
package accounts

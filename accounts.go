package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// DefaultDBName is the default for Config.DBName.
	DefaultDBName = "accounts"

	// DefaultUsersCollectionName is the default for Config.UsersCollectionName.
	DefaultUsersCollectionName = "users"

	// DefaultTokenBytes is the default for Config.TokenBytes.
	DefaultTokenBytes = 24

	// DefaultResetTokenExpiration is the default for Config.ResetTokenExpiration.
	DefaultResetTokenExpiration = 3 * 24 * time.Hour

	// DefaultSiteURL is the default for Config.SiteURL.
	DefaultSiteURL = "http://localhost:3000"
)

// Config holds Accounts configuration.
// A zero value is a valid configuration, see constants for default values.
type Config struct {
	// DBName is the name of the database used by Accounts.
	DBName string

	// UsersCollectionName is the name of the collection holding user
	// documents.
	UsersCollectionName string

	// TokenBytes tells how many random bytes to use for token values.
	// The actual token string is base64, will be roughly 4/3 times longer.
	TokenBytes int

	// ResetTokenExpiration tells how long a password reset or enrollment
	// token remains consumable. Verification tokens do not expire, their
	// lifecycle ends when consumed or superseded.
	ResetTokenExpiration time.Duration

	// SiteURL is the base URL links in outgoing mail point at.
	SiteURL string

	// VerifyEmailURL builds the link embedded in verification mail.
	// If nil, SiteURL + "/#/verify-email/" + token is used.
	VerifyEmailURL func(token string) string

	// ResetPasswordURL builds the link embedded in password reset mail.
	// If nil, SiteURL + "/#/reset-password/" + token is used.
	ResetPasswordURL func(token string) string

	// EnrollAccountURL builds the link embedded in enrollment mail.
	// If nil, SiteURL + "/#/enroll-account/" + token is used.
	EnrollAccountURL func(token string) string

	// Templates configures outgoing mail rendering.
	// If nil, DefaultEmailTemplates() derived from SiteURL is used.
	Templates *EmailTemplates
}

// Accounts implements the email management and verification flows.
// It's safe to use it concurrently from multiple goroutines.
type Accounts struct {
	// mongoClient used for database operations.
	mongoClient *mongo.Client

	// mailer delivers outgoing mail.
	mailer Mailer

	// cfg to use
	cfg Config

	// templates resolved from cfg.
	templates EmailTemplates

	// cu is the users collection.
	cu *mongo.Collection

	// skipDuplicateCheck bypasses the cross-user duplicate check for
	// matching values. Only settable from package tests.
	skipDuplicateCheck func(value string) bool
}

// New creates a new Accounts.
// This function panics if mongoClient or mailer are nil.
func New(mongoClient *mongo.Client, mailer Mailer, cfg Config) *Accounts {
	if mongoClient == nil {
		panic("mongoClient must be provided")
	}
	if mailer == nil {
		panic("mailer must be provided")
	}

	if cfg.DBName == "" {
		cfg.DBName = DefaultDBName
	}
	if cfg.UsersCollectionName == "" {
		cfg.UsersCollectionName = DefaultUsersCollectionName
	}
	if cfg.TokenBytes == 0 {
		cfg.TokenBytes = DefaultTokenBytes
	}
	if cfg.ResetTokenExpiration == 0 {
		cfg.ResetTokenExpiration = DefaultResetTokenExpiration
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}
	if cfg.VerifyEmailURL == nil {
		cfg.VerifyEmailURL = defaultURL(cfg.SiteURL, "verify-email")
	}
	if cfg.ResetPasswordURL == nil {
		cfg.ResetPasswordURL = defaultURL(cfg.SiteURL, "reset-password")
	}
	if cfg.EnrollAccountURL == nil {
		cfg.EnrollAccountURL = defaultURL(cfg.SiteURL, "enroll-account")
	}

	templates := DefaultEmailTemplates(siteName(cfg.SiteURL))
	if cfg.Templates != nil {
		templates = *cfg.Templates
	}

	return &Accounts{
		mongoClient: mongoClient,
		mailer:      mailer,
		cfg:         cfg,
		templates:   templates,
		cu:          mongoClient.Database(cfg.DBName).Collection(cfg.UsersCollectionName),
	}
}

// defaultURL returns the default link builder for the given flow.
func defaultURL(siteURL, flow string) func(token string) string {
	base := strings.TrimSuffix(siteURL, "/")
	return func(token string) string {
		return fmt.Sprintf("%s/#/%s/%s", base, flow, token)
	}
}

// siteName derives a display name from the site URL: scheme and trailing
// slash stripped.
func siteName(siteURL string) string {
	name := siteURL
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	return strings.TrimSuffix(name, "/")
}

// EnsureIndexes creates the unique sparse indexes backing the
// process-wide uniqueness of token values. Call it once at startup.
func (a *Accounts) EnsureIndexes(ctx context.Context) error {
	for _, path := range []string{
		"services.email.verificationTokens.token",
		"services.password.reset.token",
	} {
		_, err := a.cu.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: path, Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		})
		if err != nil {
			return fmt.Errorf("creating index on %s: %w", path, err)
		}
	}
	return nil
}

// findUser loads the user with the given id.
func (a *Accounts) findUser(ctx context.Context, userID bson.ObjectID) (*User, error) {
	var user *User
	err := a.cu.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

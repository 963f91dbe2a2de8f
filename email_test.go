package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultEmailTemplates(t *testing.T) {
	templates := DefaultEmailTemplates("example.org")

	user := &User{}
	assert.Equal(t, "How to verify email address on example.org", templates.VerifyEmail.Subject(user))
	assert.Equal(t, "How to reset your password on example.org", templates.ResetPassword.Subject(user))
	assert.Equal(t, "An account has been created for you on example.org", templates.EnrollAccount.Subject(user))

	body := templates.VerifyEmail.Text(user, "https://example.org/#/verify-email/t0k3n")
	assert.Contains(t, body, "Hello,\n")
	assert.Contains(t, body, "https://example.org/#/verify-email/t0k3n")

	user.Profile.Name = "Ada"
	body = templates.VerifyEmail.Text(user, "u")
	assert.Contains(t, body, "Hello Ada,")

	assert.Nil(t, templates.VerifyEmail.HTML)
	assert.Nil(t, templates.VerifyEmail.From)
}

func TestMessageRendering(t *testing.T) {
	user := &User{Profile: Profile{Name: "Ada"}}

	templates := EmailTemplates{
		From:    "Site <no-reply@example.org>",
		Headers: map[string]string{"My-Custom-Header": "Cool"},
		VerifyEmail: EmailTemplate{
			Subject: func(user *User) string { return "subject for " + user.Profile.Name },
			Text:    func(user *User, url string) string { return "text " + url },
			HTML:    func(user *User, url string) string { return "<a href=\"" + url + "\">verify</a>" },
		},
	}

	msg := templates.message(&templates.VerifyEmail, user, "ada@example.org", "https://example.org/v/t")
	assert.Equal(t, "ada@example.org", msg.To)
	assert.Equal(t, "Site <no-reply@example.org>", msg.From)
	assert.Equal(t, "subject for Ada", msg.Subject)
	assert.Equal(t, "text https://example.org/v/t", msg.Text)
	assert.Equal(t, "<a href=\"https://example.org/v/t\">verify</a>", msg.HTML)
	assert.Equal(t, "Cool", msg.Headers["My-Custom-Header"])
}

func TestMessageFromResolution(t *testing.T) {
	subject := func(user *User) string { return "s" }

	// Template From overrides the shared sender.
	templates := EmailTemplates{
		From: "shared@example.org",
		VerifyEmail: EmailTemplate{
			From:    func(user *User) string { return "override@example.org" },
			Subject: subject,
		},
	}
	msg := templates.message(&templates.VerifyEmail, &User{}, "to@example.org", "u")
	assert.Equal(t, "override@example.org", msg.From)

	// Empty shared sender falls back to the package default.
	templates = EmailTemplates{
		VerifyEmail: EmailTemplate{Subject: subject},
	}
	msg = templates.message(&templates.VerifyEmail, &User{}, "to@example.org", "u")
	assert.Equal(t, DefaultFrom, msg.From)

	// Nil body renderers leave the bodies empty.
	assert.Empty(t, msg.Text)
	assert.Empty(t, msg.HTML)
}

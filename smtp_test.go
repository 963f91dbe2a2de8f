package accounts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailer(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.org", Port: 587})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestBuildMail(t *testing.T) {
	msg := &Message{
		To:      "ada@example.org",
		From:    "Site <no-reply@example.org>",
		Subject: "How to verify email address on example.org",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
		Headers: map[string]string{"My-Custom-Header": "Cool"},
	}

	mailMsg, err := buildMail(msg)
	require.NoError(t, err)

	var sb strings.Builder
	_, err = mailMsg.WriteTo(&sb)
	require.NoError(t, err)
	rendered := sb.String()

	assert.Contains(t, rendered, "To: <ada@example.org>")
	assert.Contains(t, rendered, "no-reply@example.org")
	assert.Contains(t, rendered, "Subject: How to verify email address on example.org")
	assert.Contains(t, rendered, "My-Custom-Header: Cool")
	assert.Contains(t, rendered, "plain body")
	assert.Contains(t, rendered, "html body")
	assert.Contains(t, rendered, "multipart/alternative")
}

func TestBuildMailSingleBody(t *testing.T) {
	mailMsg, err := buildMail(&Message{
		To:      "ada@example.org",
		From:    "no-reply@example.org",
		Subject: "s",
		HTML:    "<p>only html</p>",
	})
	require.NoError(t, err)

	var sb strings.Builder
	_, err = mailMsg.WriteTo(&sb)
	require.NoError(t, err)
	rendered := sb.String()

	assert.Contains(t, rendered, "only html")
	assert.NotContains(t, rendered, "multipart/alternative")
}

func TestBuildMailInvalidAddress(t *testing.T) {
	_, err := buildMail(&Message{To: "ada@example.org", From: "not an address"})
	assert.Error(t, err)

	_, err = buildMail(&Message{To: "not an address", From: "no-reply@example.org"})
	assert.Error(t, err)
}

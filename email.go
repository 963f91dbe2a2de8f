package accounts

import "context"

// Message is an outbound email handed to a Mailer.
type Message struct {
	To      string
	From    string
	Subject string

	// Text and HTML are the alternative bodies; either may be empty.
	Text string
	HTML string

	// Headers holds extra headers to set on the mail, may be nil.
	Headers map[string]string
}

// Mailer delivers outbound email. Delivery failures are reported to the
// caller of the operation that triggered the mail; nothing is retried.
// Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// RenderLine renders a single header line (sender or subject) from the
// addressed user.
type RenderLine func(user *User) string

// RenderBody renders an email body from the addressed user and the action
// URL embedding the token.
type RenderBody func(user *User, url string) string

// EmailTemplate describes one outgoing mail type. Subject is required,
// the remaining fields are optional and fall back to package-wide
// defaults (From) or are omitted from the mail (Text, HTML).
type EmailTemplate struct {
	// From overrides EmailTemplates.From for this mail type.
	From RenderLine

	// Subject renders the subject line.
	Subject RenderLine

	// Text renders the plain text body, omitted if nil.
	Text RenderBody

	// HTML renders the HTML body, omitted if nil.
	HTML RenderBody
}

// EmailTemplates holds the rendering configuration for all outgoing mail.
// A zero value is not usable; DefaultEmailTemplates() returns a complete
// working set that may be partially overridden.
type EmailTemplates struct {
	// From is the default sender for all mail types.
	From string

	// SiteName is interpolated into the default subjects.
	SiteName string

	// Headers holds extra headers added to every mail, may be nil.
	Headers map[string]string

	VerifyEmail   EmailTemplate
	ResetPassword EmailTemplate
	EnrollAccount EmailTemplate
}

// DefaultFrom is the sender used when EmailTemplates.From is left empty.
const DefaultFrom = "Accounts <no-reply@localhost>"

// DefaultEmailTemplates returns the stock templates: a short greeting
// (using the user's profile name when present), one line of instructions
// and the bare link.
func DefaultEmailTemplates(siteName string) EmailTemplates {
	return EmailTemplates{
		From:     DefaultFrom,
		SiteName: siteName,
		VerifyEmail: EmailTemplate{
			Subject: func(user *User) string {
				return "How to verify email address on " + siteName
			},
			Text: greet("To verify your account email"),
		},
		ResetPassword: EmailTemplate{
			Subject: func(user *User) string {
				return "How to reset your password on " + siteName
			},
			Text: greet("To reset your password"),
		},
		EnrollAccount: EmailTemplate{
			Subject: func(user *User) string {
				return "An account has been created for you on " + siteName
			},
			Text: greet("To start using the service"),
		},
	}
}

// greet builds a plain text body renderer around the given instruction.
func greet(instruction string) RenderBody {
	return func(user *User, url string) string {
		greeting := "Hello,"
		if user != nil && user.Profile.Name != "" {
			greeting = "Hello " + user.Profile.Name + ","
		}
		return greeting + "\n\n" +
			instruction + ", simply click the link below.\n\n" +
			url + "\n\n" +
			"Thanks.\n"
	}
}

// message assembles the outbound mail for templ addressed to the given
// address, resolving the optional renderer fields.
func (t *EmailTemplates) message(templ *EmailTemplate, user *User, to, url string) *Message {
	msg := &Message{
		To:      to,
		From:    t.From,
		Headers: t.Headers,
	}
	if msg.From == "" {
		msg.From = DefaultFrom
	}
	if templ.From != nil {
		msg.From = templ.From(user)
	}
	if templ.Subject != nil {
		msg.Subject = templ.Subject(user)
	}
	if templ.Text != nil {
		msg.Text = templ.Text(user, url)
	}
	if templ.HTML != nil {
		msg.HTML = templ.HTML(user, url)
	}
	return msg
}

package mailer

import (
	"bytes"
	"embed"
	"errors"
	htmltemplate "html/template"
	"text/template"
)

const (
	FromName               = "Portal"
	maxRetries             = 3
	UserInvitationTemplate = "user_invitation.tmpl"
)

//go:embed "templates"
var FS embed.FS

var ErrNotConfigured = errors.New("mailer: smtp not configured")

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}

// Message is a rendered template: subject, plain text and HTML parts.
type Message struct {
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Render executes the subject, plainBody and htmlBody blocks of an embedded
// template. htmlBody goes through html/template so values are escaped.
func Render(templateFile string, data any) (*Message, error) {
	path := "templates/" + templateFile

	text, err := template.ParseFS(FS, path)
	if err != nil {
		return nil, err
	}
	html, err := htmltemplate.ParseFS(FS, path)
	if err != nil {
		return nil, err
	}

	var msg Message
	for name, dst := range map[string]*string{
		"subject":   &msg.Subject,
		"plainBody": &msg.PlainBody,
	} {
		var buf bytes.Buffer
		if err := text.ExecuteTemplate(&buf, name, data); err != nil {
			return nil, err
		}
		*dst = buf.String()
	}

	var buf bytes.Buffer
	if err := html.ExecuteTemplate(&buf, "htmlBody", data); err != nil {
		return nil, err
	}
	msg.HTMLBody = buf.String()

	return &msg, nil
}

// Package mailer renders and delivers transactional e-mail over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/go-mail/mail/v2"
)

//go:embed "templates"
var templateFS embed.FS

// WelcomeTemplate is sent after a successful sign-up.
const WelcomeTemplate = "welcome.tmpl"

// Sender delivers a rendered template to a recipient.
type Sender interface {
	Send(recipient, templateFile string, data any) error
}

// Mailer sends mail through an SMTP dialer.
type Mailer struct {
	dialer *mail.Dialer
	sender string
}

// New creates a Mailer. sender is a full address such as "Reelist <no-reply@reelist.app>".
func New(host string, port int, username, password, sender string) *Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &Mailer{
		dialer: dialer,
		sender: sender,
	}
}

// Send renders templateFile with data and delivers it to recipient.
func (m *Mailer) Send(recipient, templateFile string, data any) error {
	msg, err := m.render(recipient, templateFile, data)
	if err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (m *Mailer) render(recipient, templateFile string, data any) (*mail.Message, error) {
	rendered, err := Render(templateFile, data)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", rendered.Subject)
	msg.SetBody("text/plain", rendered.PlainBody)
	// AddAlternative must follow SetBody.
	msg.AddAlternative("text/html", rendered.HTMLBody)
	return msg, nil
}

// Rendered holds the three parts of a templated message.
type Rendered struct {
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Render executes the subject, plainBody and htmlBody blocks of templateFile.
func Render(templateFile string, data any) (*Rendered, error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	parts := make(map[string]string, 3)
	for _, name := range []string{"subject", "plainBody", "htmlBody"} {
		buf := new(bytes.Buffer)
		if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
			return nil, fmt.Errorf("render %s of %s: %w", name, templateFile, err)
		}
		parts[name] = buf.String()
	}

	return &Rendered{
		Subject:   parts["subject"],
		PlainBody: parts["plainBody"],
		HTMLBody:  parts["htmlBody"],
	}, nil
}

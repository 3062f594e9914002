package utils

import (
	"coursehub/config"
	"coursehub/logger"
	"fmt"
	"net/http"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends a single HTML email.
type Mailer interface {
	Send(to, subject, plain, html string) error
}

// SendgridMailer delivers through the SendGrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendgridMailer(apiKey, fromEmail, fromName string) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (m *SendgridMailer) Send(to, subject, plain, html string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), plain, html)
	resp, err := m.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them. It is used when
// no SendGrid key is configured, and keeps the last message for tests.
type LogMailer struct {
	Log *logger.Logger

	mu   sync.Mutex
	last SentMail
}

type SentMail struct {
	To, Subject, Plain string
}

func (m *LogMailer) Send(to, subject, plain, _ string) error {
	m.mu.Lock()
	m.last = SentMail{To: to, Subject: subject, Plain: plain}
	m.mu.Unlock()
	m.Log.Info("email not sent, no provider configured", "to", to, "subject", subject, "body", plain)
	return nil
}

// Last returns the most recent message.
func (m *LogMailer) Last() SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Mail is the process-wide mailer, set by InitMailer.
var Mail Mailer

// InitMailer picks SendGrid when a key is configured.
func InitMailer(cfg *config.Config, log *logger.Logger) Mailer {
	if cfg.SendgridAPIKey != "" {
		Mail = NewSendgridMailer(cfg.SendgridAPIKey, cfg.EmailSender, cfg.EmailSenderName)
	} else {
		Mail = &LogMailer{Log: log}
	}
	return Mail
}

func emailTemplate(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
	<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
		<h2 style="color: #333333; text-align: center;">%s</h2>
		%s
	</div>
</body>
</html>`, title, body)
}

// SendOTPEmail sends a sign-in code.
func SendOTPEmail(email, otp string, ttlMinutes int) error {
	subject := "Your CourseHub sign-in code"
	plain := fmt.Sprintf("Your sign-in code is %s. It expires in %d minutes.", otp, ttlMinutes)
	html := emailTemplate("Sign-in code", fmt.Sprintf(`
		<p style="font-size: 16px; color: #555555; text-align: center;">Your one time code is:</p>
		<h1 style="text-align: center; color: #4CAF50; font-size: 40px; margin: 20px 0;">%s</h1>
		<p style="font-size: 14px; color: #999999; text-align: center;">It expires in %d minutes. Do not share it with anyone.</p>`,
		otp, ttlMinutes))
	return Mail.Send(email, subject, plain, html)
}

// SendEnrollmentEmail confirms an enrollment.
func SendEnrollmentEmail(email, userName, courseName string) error {
	subject := "Enrollment confirmed: " + courseName
	plain := fmt.Sprintf("Hi %s, you are now enrolled in %s.", userName, courseName)
	html := emailTemplate("Enrollment confirmed", fmt.Sprintf(
		`<p style="font-size: 16px; color: #555555;">Hi %s, you are now enrolled in <strong>%s</strong>.</p>`,
		userName, courseName))
	return Mail.Send(email, subject, plain, html)
}

package services

import (
	"crypto/tls"
	"fmt"
	"html"
	"mime"
	"net/smtp"
	"strings"

	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/pkg/logger"
)

// Mailer delivers one message. EmailService is the SMTP implementation.
type Mailer interface {
	Send(to []string, subject, htmlBody string) error
	Enabled() bool
}

type EmailService struct {
	cfg *config.SMTPConfig
}

func NewEmailService(cfg *config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.Enabled && s.cfg.Host != ""
}

// Send is a no-op when SMTP is not configured.
func (s *EmailService) Send(to []string, subject, body string) error {
	if !s.Enabled() || len(to) == 0 {
		return nil
	}
	return s.sendEmail(to, subject, body)
}

func buildShareEmail(task *ShareTask) (subject, body string) {
	subject = fmt.Sprintf("%s shared a research project with you: %s",
		headerText(task.SharedBy), headerText(task.ProjectTitle))

	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<h2>%s</h2>", task.ProjectTitle))
	sb.WriteString(fmt.Sprintf("<p><strong>%s</strong> thinks you will find this project interesting.</p>", task.SharedBy))
	if task.Message != "" {
		sb.WriteString(fmt.Sprintf("<blockquote style=\"border-left: 3px solid #ddd; padding-left: 12px;\">%s</blockquote>", task.Message))
	}
	if task.ProjectURL != "" {
		sb.WriteString(fmt.Sprintf("<p><a href=\"%s\">Open the project</a></p>", html.EscapeString(task.ProjectURL)))
	}
	sb.WriteString("</body></html>")
	return subject, sb.String()
}

// headerLine folds any line breaks so a value cannot start a new header.
func headerLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// headerText turns stored, HTML-escaped text into a header value.
func headerText(s string) string {
	return headerLine(html.UnescapeString(s))
}

func composeMessage(from string, to []string, subject, body string) string {
	var message strings.Builder
	message.WriteString("From: " + headerLine(from) + "\r\n")
	message.WriteString("To: " + headerLine(strings.Join(to, ",")) + "\r\n")
	message.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", headerLine(subject)) + "\r\n")
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}

func (s *EmailService) sendEmail(to []string, subject, body string) error {
	cfg := s.cfg
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	message := composeMessage(from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	var err error
	if cfg.UseTLS {
		err = s.sendEmailTLS(addr, auth, from, to, message)
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message))
	}

	if err != nil {
		logger.Warn().Err(err).Strs("to", to).Msg("[Email] failed to send email")
		return err
	}

	logger.Info().Strs("to", to).Msg("[Email] sent")
	return nil
}

func (s *EmailService) sendEmailTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}
	return w.Close()
}

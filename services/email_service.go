package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dosada05/speech-ballots/config"
	"github.com/Dosada05/speech-ballots/models"
)

//go:embed templates/*.html
var emailTemplates embed.FS

// Notifier отправляет одно HTML-письмо одному адресату.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EmailService отправляет письма через SMTP (465 - TLS, иначе STARTTLS).
type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) Send(ctx context.Context, to, subject, htmlBody string) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	tlsconfig := &tls.Config{ServerName: s.cfg.Host}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	var conn net.Conn
	var err error
	if s.cfg.Port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsconfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp connection failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Close()

	if s.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsconfig); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}

	if s.cfg.User != "" {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(buildMessage(s.cfg.From, to, subject, htmlBody)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close DATA: %w", err)
	}
	return client.Quit()
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogNotifier только пишет письмо в лог. Используется, когда SMTP не настроен.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(_ context.Context, to, subject, htmlBody string) error {
	n.Logger.Info("email not sent: smtp is not configured",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(htmlBody)),
	)
	return nil
}

// MagicLinkMailer собирает письмо со ссылкой на бюллетени участника.
type MagicLinkMailer struct {
	tmpl        *template.Template
	frontendURL string
	signature   string
}

func NewMagicLinkMailer(frontendURL string) (*MagicLinkMailer, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/magic_link.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse magic link template: %w", err)
	}
	return &MagicLinkMailer{
		tmpl:        tmpl,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		signature:   "NCFCA Club Speech Ballot System",
	}, nil
}

// Link возвращает публичный URL бюллетеней участника.
func (m *MagicLinkMailer) Link(token string) string {
	return m.frontendURL + "/ballots/" + token
}

func (m *MagicLinkMailer) Subject(t *models.Tournament) string {
	return "Your NCFCA Speech Ballots - " + t.Name
}

func (m *MagicLinkMailer) Body(c *models.Competitor, t *models.Tournament) (string, error) {
	data := struct {
		FirstName      string
		TournamentName string
		MeetingDate    string
		Link           string
		ExpiresOn      string
		Signature      string
	}{
		FirstName:      c.FirstName,
		TournamentName: t.Name,
		MeetingDate:    t.MeetingDate.Format("January 2, 2006"),
		Link:           m.Link(c.MagicToken),
		ExpiresOn:      t.MagicLinkExpiry().Format("January 2, 2006"),
		Signature:      m.signature,
	}

	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render magic link email: %w", err)
	}
	return body.String(), nil
}

package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type Mailer interface {
	Enabled() bool
	SendHTML(to, subject, htmlTpl string, data any) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // "SMS Monitor <alerts@example.com>" or a bare address
	UseTLS   bool   // implicit TLS (465); plain SMTP never sends AUTH
}

type mailer struct {
	cfg  *Config
	now  func() time.Time
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New returns a mailer that silently drops messages when no host is configured.
func New(cfg *Config) Mailer {
	if cfg == nil || cfg.Host == "" {
		return noop{}
	}

	return &mailer{
		cfg:  cfg,
		now:  time.Now,
		send: smtp.SendMail,
	}
}

func (m *mailer) Enabled() bool {
	return true
}

func (m *mailer) SendHTML(to, subject, htmlTpl string, data any) error {
	body, err := render(htmlTpl, data)
	if err != nil {
		return err
	}

	from := parseAddress(m.cfg.From)
	msg := buildMessage(m.cfg.From, to, subject, body, m.now())
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	if !m.cfg.UseTLS {
		return m.send(addr, nil, from, []string{to}, msg)
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return sendTLS(addr, m.cfg.Host, auth, from, to, msg)
}

type noop struct{}

func (noop) Enabled() bool { return false }

func (noop) SendHTML(string, string, string, any) error { return nil }

func render(htmlTpl string, data any) (string, error) {
	t, err := template.New("email").Parse(htmlTpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("exec template: %w", err)
	}

	return body.String(), nil
}

func buildMessage(from, to, subject, htmlBody string, date time.Time) []byte {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + date.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody)
}

func parseAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}

	return strings.TrimSpace(from)
}

func sendTLS(addr, host string, auth smtp.Auth, from, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return fmt.Errorf("dial tls: %w", err)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("new client: %w", err)
	}

	defer func() {
		_ = c.Close()
	}()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return c.Quit()
}

package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const (
	SecurityNone     = "none"
	SecurityStartTLS = "starttls"
	SecurityTLS      = "tls"
)

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Security  string
}

// SMTPProvider implements the Provider interface using SMTP
type SMTPProvider struct {
	cfg SMTPConfig
	now func() time.Time
}

func NewSMTPProvider(cfg SMTPConfig) *SMTPProvider {
	if cfg.Security == "" {
		cfg.Security = SecurityStartTLS
	}
	return &SMTPProvider{cfg: cfg, now: time.Now}
}

// Send delivers msg in one SMTP transaction, honouring the context deadline
// for dialing and for the whole conversation.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("smtp: no recipients")
	}

	raw, err := p.buildMessage(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
	conn, err := p.dial(ctx, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("smtp deadline error: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client error: %w", err)
	}
	defer client.Close()

	if p.cfg.Security == SecurityStartTLS {
		if err := client.StartTLS(p.tlsConfig()); err != nil {
			return fmt.Errorf("smtp starttls error: %w", err)
		}
	}

	if p.cfg.Username != "" && p.cfg.Password != "" {
		if err := client.Auth(p.auth(client)); err != nil {
			return fmt.Errorf("smtp auth error: %w", err)
		}
	}

	if err := client.Mail(p.cfg.FromEmail); err != nil {
		return fmt.Errorf("smtp mail error: %w", err)
	}
	for _, to := range msg.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("smtp rcpt %s error: %w", to, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data error: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		return fmt.Errorf("smtp write error: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close error: %w", err)
	}

	return client.Quit()
}

func (p *SMTPProvider) dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	if p.cfg.Security == SecurityTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: p.tlsConfig()}
		conn, err := tlsDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("tls dial error: %w", err)
		}
		return conn, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp dial error: %w", err)
	}
	return conn, nil
}

func (p *SMTPProvider) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: p.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
}

// auth prefers PLAIN and falls back to LOGIN, which is all Office 365 offers.
func (p *SMTPProvider) auth(client *smtp.Client) smtp.Auth {
	if ok, mechs := client.Extension("AUTH"); ok && !strings.Contains(strings.ToUpper(mechs), "PLAIN") {
		return &loginAuth{username: p.cfg.Username, password: p.cfg.Password}
	}
	return smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
}

// buildMessage renders msg as RFC 5322 text. Messages with attachments are
// multipart/mixed with a quoted-printable text part and base64 attachments.
func (p *SMTPProvider) buildMessage(msg Message) ([]byte, error) {
	var buf bytes.Buffer

	contentType := "text/plain; charset=UTF-8"
	if msg.IsHTML {
		contentType = "text/html; charset=UTF-8"
	}

	writeHeader(&buf, "From", p.formatFrom())
	writeHeader(&buf, "To", strings.Join(msg.To, ", "))
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("UTF-8", msg.Subject))
	writeHeader(&buf, "Date", p.now().Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	if len(msg.Attachments) == 0 {
		writeHeader(&buf, "Content-Type", contentType)
		writeHeader(&buf, "Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, msg.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	if err := writeQuotedPrintable(part, msg.Body); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(ct, map[string]string{"name": a.Filename})},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		if err := writeBase64Lines(part, a.Content); err != nil {
			return nil, fmt.Errorf("failed to encode attachment %s: %w", a.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart message: %w", err)
	}
	return buf.Bytes(), nil
}

// formatFrom formats the from address with name
func (p *SMTPProvider) formatFrom() string {
	if p.cfg.FromName != "" {
		return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", p.cfg.FromName), p.cfg.FromEmail)
	}
	return p.cfg.FromEmail
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func writeQuotedPrintable(w interface{ Write([]byte) (int, error) }, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	return qp.Close()
}

// writeBase64Lines writes content as base64 wrapped at 76 columns.
func writeBase64Lines(w interface{ Write([]byte) (int, error) }, content []byte) error {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := w.Write([]byte(encoded + "\r\n"))
	return err
}

type loginAuth struct {
	username string
	password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS && server.Name != "localhost" && server.Name != "127.0.0.1" {
		return "", nil, errors.New("smtp: refusing LOGIN auth over an unencrypted connection")
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
	case "username:":
		return []byte(a.username), nil
	case "password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("smtp: unexpected LOGIN challenge %q", fromServer)
	}
}

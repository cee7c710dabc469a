package email

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		To:      []string{"ops@example.com", "dispatch@example.com"},
		Subject: "Driver Completion Report - 03_15_24",
		Body:    "Total 85.71 %\n",
		Attachments: []Attachment{{
			Filename:    "Driver_Completion_Report-03_15_24.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     bytes.Repeat([]byte{0x50, 0x4b, 0x03, 0x04}, 64),
		}},
	}
}

func TestBuildMessage_Multipart(t *testing.T) {
	provider := NewSMTPProvider(SMTPConfig{FromEmail: "reports@example.com", FromName: "Driver Completion Report"})
	msg := testMessage()

	raw, err := provider.buildMessage(msg)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, msg.Subject, subject)
	assert.Equal(t, "ops@example.com, dispatch@example.com", parsed.Header.Get("To"))
	assert.Contains(t, parsed.Header.Get("From"), "<reports@example.com>")

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])

	body, err := reader.NextPart()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body.Header.Get("Content-Type"), "text/plain"))
	text, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, msg.Body, string(text))

	attachment, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, msg.Attachments[0].Filename, attachment.FileName())
	assert.Equal(t, "base64", attachment.Header.Get("Content-Transfer-Encoding"))
	encoded, err := io.ReadAll(attachment)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, msg.Attachments[0].Content, decoded)

	_, err = reader.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestBuildMessage_PlainText(t *testing.T) {
	provider := NewSMTPProvider(SMTPConfig{FromEmail: "reports@example.com"})

	raw, err := provider.buildMessage(Message{To: []string{"support@example.com"}, Subject: AlertSubject, Body: "check the logs"})
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "reports@example.com", parsed.Header.Get("From"))
	assert.True(t, strings.HasPrefix(parsed.Header.Get("Content-Type"), "text/plain"))
}

// fakeSMTPServer accepts one unauthenticated session and records the envelope.
type fakeSMTPServer struct {
	listener net.Listener
	from     string
	rcpts    []string
	data     string
	done     chan struct{}
}

func startFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeSMTPServer{listener: ln, done: make(chan struct{})}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeSMTPServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	defer close(s.done)
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 localhost ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			tp.PrintfLine("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			s.from = strings.Trim(line[len("MAIL FROM:"):], "<> ")
			tp.PrintfLine("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			s.rcpts = append(s.rcpts, strings.Trim(line[len("RCPT TO:"):], "<> "))
			tp.PrintfLine("250 OK")
		case cmd == "DATA":
			tp.PrintfLine("354 go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.data = string(data)
			tp.PrintfLine("250 queued")
		case cmd == "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("502 not implemented")
		}
	}
}

func TestSMTPProvider_Send(t *testing.T) {
	server := startFakeSMTPServer(t)
	provider := NewSMTPProvider(SMTPConfig{
		Host:      "127.0.0.1",
		Port:      server.port(),
		FromEmail: "reports@example.com",
		Security:  SecurityNone,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := provider.Send(ctx, testMessage())
	require.NoError(t, err)
	<-server.done

	assert.Equal(t, "reports@example.com", server.from)
	assert.Equal(t, []string{"ops@example.com", "dispatch@example.com"}, server.rcpts)
	assert.Contains(t, server.data, "Driver_Completion_Report-03_15_24.xlsx")
}

func TestSMTPProvider_SendNoRecipients(t *testing.T) {
	provider := NewSMTPProvider(SMTPConfig{Host: "127.0.0.1", Port: 1})

	err := provider.Send(context.Background(), Message{Subject: "x"})

	assert.Error(t, err)
}

func TestSMTPProvider_DialHonoursContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	provider := NewSMTPProvider(SMTPConfig{Host: "127.0.0.1", Port: addr.Port, Security: SecurityNone})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = provider.Send(ctx, testMessage())

	assert.Error(t, err)
}

func TestLoginAuth(t *testing.T) {
	auth := &loginAuth{username: "reports@example.com", password: "secret"}

	proto, _, err := auth.Start(&smtpServerInfo{Name: "smtp.office365.com", TLS: true})
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", proto)

	user, err := auth.Next([]byte("Username:"), true)
	require.NoError(t, err)
	assert.Equal(t, "reports@example.com", string(user))

	pass, err := auth.Next([]byte("Password:"), true)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(pass))

	_, _, err = auth.Start(&smtpServerInfo{Name: "smtp.office365.com", TLS: false})
	assert.Error(t, err, "LOGIN must not be used in clear text")
}

func TestWriteBase64Lines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBase64Lines(&buf, bytes.Repeat([]byte("a"), 200)))

	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		assert.LessOrEqual(t, len(scanner.Text()), 76, "line "+strconv.Quote(scanner.Text()))
	}
}

type smtpServerInfo = smtp.ServerInfo

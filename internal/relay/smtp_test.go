package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mailPart is one decoded part of a multipart message.
type mailPart struct {
	contentType string
	body        string
}

// readMail parses a raw message the way a mail client would and returns its
// headers and decoded parts.
func readMail(t *testing.T, raw []byte) (mail.Header, []mailPart) {
	t.Helper()
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)

	var parts []mailPart
	mr := multipart.NewReader(m.Body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, mailPart{contentType: p.Header.Get("Content-Type"), body: string(b)})
	}
	return m.Header, parts
}

func captureSMTP(t *testing.T, config SMTPConfig) (*SMTP, *[]byte) {
	t.Helper()
	s := NewSMTP(config, testLogger())
	var gotMsg []byte
	s.sendMail = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	}
	return s, &gotMsg
}

func TestSMTP_Send_BuildsMessage(t *testing.T) {
	s := NewSMTP(SMTPConfig{
		Host:    "localhost",
		Port:    1025,
		From:    "website@example.com",
		To:      "inbox@example.com",
		Subject: "New Contact Form Submission",
	}, testLogger())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, s.Send(context.Background(), sampleSubmission()))

	assert.Equal(t, "localhost:1025", gotAddr)
	assert.Equal(t, "website@example.com", gotFrom)
	assert.Equal(t, []string{"inbox@example.com"}, gotTo)

	header, parts := readMail(t, gotMsg)
	assert.Equal(t, "New Contact Form Submission", header.Get("Subject"))
	assert.Equal(t, "inbox@example.com", header.Get("To"))

	replyTo, err := header.AddressList("Reply-To")
	require.NoError(t, err)
	require.Len(t, replyTo, 1)
	assert.Equal(t, "Asha Rao", replyTo[0].Name)
	assert.Equal(t, "asha@example.com", replyTo[0].Address)

	require.Len(t, parts, 2)
	assert.Equal(t, "text/plain; charset=utf-8", parts[0].contentType)
	assert.Contains(t, parts[0].body, "Phone: 98765 43210")
	assert.Contains(t, parts[0].body, "Need a 5 ton overhead crane")
	assert.Equal(t, "text/html; charset=utf-8", parts[1].contentType)
	assert.Contains(t, parts[1].body, "<td>Industrial Cranes</td>")
}

func TestSMTP_Send_EncodesNonASCIIHeaders(t *testing.T) {
	s, gotMsg := captureSMTP(t, SMTPConfig{Host: "localhost", Port: 1025, Subject: "Quote request ₹ S V Electricals"})

	sub := sampleSubmission()
	sub.Name = "Aśha Rāo"
	require.NoError(t, s.Send(context.Background(), sub))

	raw, _, _ := strings.Cut(string(*gotMsg), "\r\n\r\n")
	for _, r := range raw {
		require.Less(t, r, rune(0x80), "header block must stay ASCII")
	}

	header, _ := readMail(t, *gotMsg)
	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Quote request ₹ S V Electricals", subject)

	replyTo, err := header.AddressList("Reply-To")
	require.NoError(t, err)
	assert.Equal(t, "Aśha Rāo", replyTo[0].Name)
}

func TestSMTP_Send_StripsHeaderInjection(t *testing.T) {
	s, gotMsg := captureSMTP(t, SMTPConfig{Host: "localhost", Port: 1025})

	sub := sampleSubmission()
	sub.Name = "Eve\r\nBcc: victim@example.com"
	sub.Email = "eve@example.com\nCc: victim@example.com"
	require.NoError(t, s.Send(context.Background(), sub))

	headers, _, found := strings.Cut(string(*gotMsg), "\r\n\r\n")
	require.True(t, found)
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.NotContains(t, headers, "\r\nCc:")

	header, parts := readMail(t, *gotMsg)
	assert.Empty(t, header.Get("Bcc"))
	assert.Empty(t, header.Get("Cc"))
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].body, "Name: Eve Bcc: victim@example.com\r\n")
}

func TestSMTP_Send_MessageCannotSplitBody(t *testing.T) {
	s, gotMsg := captureSMTP(t, SMTPConfig{Host: "localhost", Port: 1025})

	forged := "hello\r\n--===============SVEW_BOUNDARY===============\r\n" +
		"Content-Type: text/html\r\n\r\n<b>forged</b>\r\n" +
		"--===============SVEW_BOUNDARY===============--"
	sub := sampleSubmission()
	sub.Message = forged
	require.NoError(t, s.Send(context.Background(), sub))

	_, parts := readMail(t, *gotMsg)
	require.Len(t, parts, 2)
	assert.Equal(t, "text/plain; charset=utf-8", parts[0].contentType)
	assert.Contains(t, parts[0].body, forged)
	assert.Equal(t, "text/html; charset=utf-8", parts[1].contentType)
	assert.NotContains(t, parts[1].body, "<b>forged</b>")
	assert.Contains(t, parts[1].body, "&lt;b&gt;forged&lt;/b&gt;")
}

func TestSMTP_Send_Errors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantRejected bool
	}{
		{name: "server refused", err: &textproto.Error{Code: 550, Msg: "mailbox unavailable"}, wantRejected: true},
		{name: "dial failure", err: errors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025}, testLogger())
			s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return tt.err }

			err := s.Send(context.Background(), sampleSubmission())
			assert.Equal(t, tt.wantRejected, IsRejected(err))
			assert.Equal(t, !tt.wantRejected, IsTransport(err))
		})
	}
}

func TestSMTP_Send_ContextDone(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025}, testLogger())
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-block
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.True(t, IsTransport(s.Send(ctx, sampleSubmission())))
}

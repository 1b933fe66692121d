package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/DukeRupert/svelectricals/internal/domain"
)

// =============================================================================
// SMTP Relay
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // Empty for servers without auth
	Password string
	From     string // Envelope sender
	FromName string // Sender display name
	To       string // Company inbox receiving submissions
	Subject  string
}

// sendMailFunc matches smtp.SendMail so tests can capture messages.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP mails each submission to the company inbox.
//
// Works with Mailhog in development and any standard SMTP server in
// production. Replies go to the visitor through the Reply-To header.
type SMTP struct {
	config   SMTPConfig
	body     *template.Template
	sendMail sendMailFunc
	logger   *slog.Logger
}

var submissionHTML = template.Must(template.New("submission").Parse(`<h2>{{.Subject}}</h2>
<table>
<tr><th align="left">Name</th><td>{{.Sub.Name}}</td></tr>
<tr><th align="left">Email</th><td>{{.Sub.Email}}</td></tr>
<tr><th align="left">Phone</th><td>{{.Sub.Phone}}</td></tr>
<tr><th align="left">Service</th><td>{{.Sub.Service}}</td></tr>
</table>
<p style="white-space:pre-wrap">{{.Sub.Message}}</p>
`))

// NewSMTP creates an SMTP relay.
func NewSMTP(config SMTPConfig, logger *slog.Logger) *SMTP {
	if config.FromName == "" {
		config.FromName = domain.CompanyName
	}
	if config.To == "" {
		config.To = domain.CompanyEmail
	}
	return &SMTP{
		config:   config,
		body:     submissionHTML,
		sendMail: smtp.SendMail,
		logger:   logger,
	}
}

// Name implements Relay.
func (s *SMTP) Name() string {
	return ProviderSMTP
}

// Send implements Relay. A server that refuses the message after the
// connection is established counts as a rejection; dial failures count as
// transport errors.
func (s *SMTP) Send(ctx context.Context, sub domain.Submission) error {
	msg, err := s.buildMessage(sub)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	// net/smtp has no context support; give up waiting when ctx ends.
	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(addr, auth, s.config.From, []string{s.config.To}, msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
	case err = <-done:
	}

	if err != nil {
		s.logger.Error("failed to relay submission by email",
			"to", s.config.To,
			"error", err,
		)
		if isSMTPReply(err) {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	s.logger.Info("submission relayed by email", "to", s.config.To)
	return nil
}

// isSMTPReply reports whether err carries a server reply code, meaning the
// server was reached and refused.
func isSMTPReply(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr)
}

// buildMessage constructs the raw email: headers plus a multipart/alternative
// body holding a text and an HTML rendering of the submission. Parts are
// quoted-printable under a random boundary, so nothing a visitor types can
// end a part early.
func (s *SMTP) buildMessage(sub domain.Submission) ([]byte, error) {
	var html bytes.Buffer
	if err := s.body.Execute(&html, map[string]interface{}{
		"Subject": s.config.Subject,
		"Sub":     sub,
	}); err != nil {
		return nil, err
	}

	text := fmt.Sprintf("Name: %s\r\nEmail: %s\r\nPhone: %s\r\nService: %s\r\n\r\n%s\r\n",
		oneLine(sub.Name), oneLine(sub.Email), oneLine(sub.Phone), oneLine(sub.Service), sub.Message)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := writeQPPart(mw, "text/plain; charset=utf-8", []byte(text)); err != nil {
		return nil, err
	}
	if err := writeQPPart(mw, "text/html; charset=utf-8", html.Bytes()); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	from := mail.Address{Name: s.config.FromName, Address: s.config.From}
	replyTo := mail.Address{Name: headerSafe(sub.Name), Address: headerSafe(sub.Email)}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", s.config.To)
	fmt.Fprintf(&buf, "Reply-To: %s\r\n", replyTo.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerSafe(s.config.Subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

func writeQPPart(mw *multipart.Writer, contentType string, content []byte) error {
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write(content); err != nil {
		return err
	}
	return qp.Close()
}

// headerSafe strips line breaks so visitor input cannot inject headers.
func headerSafe(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

// oneLine keeps a single-line field on one line of the text body.
func oneLine(v string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(v)
}

// =============================================================================
// Compile-time interface checks
// =============================================================================

var (
	_ Relay = (*SMTP)(nil)
	_ Relay = (*Web3Forms)(nil)
)

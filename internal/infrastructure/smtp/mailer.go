package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"syscall"
	"time"

	"github.com/credential-relay/internal/config"
	"github.com/credential-relay/internal/domain"
	"github.com/credential-relay/internal/pkg/id"
)

// Mailer delivers messages over SMTP, upgrading to STARTTLS when offered.
type Mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	domain   string
	now      func() time.Time
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		domain:   cfg.SMTPDomain,
		now:      time.Now,
	}
}

// Send delivers msg. Failures are wrapped with domain.ErrTransient when a retry
// may succeed (connection problems, 4xx replies) and domain.ErrPermanent otherwise
// (authentication failures, 5xx replies).
func (m *Mailer) Send(ctx context.Context, msg domain.Message) error {
	if msg.From == "" {
		msg.From = m.from
	}
	raw, err := m.compose(msg)
	if err != nil {
		return fmt.Errorf("compose message: %w: %w", domain.ErrPermanent, err)
	}
	if err := m.send(ctx, msg.From, msg.To, raw); err != nil {
		return classify(ctx, err)
	}
	return nil
}

func (m *Mailer) send(ctx context.Context, from, to string, raw []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(m.host, m.port))
	if err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if m.username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *Mailer) compose(msg domain.Message) ([]byte, error) {
	if strings.ContainsAny(msg.To+msg.From+msg.Subject, "\r\n") {
		return nil, errors.New("header value contains a line break")
	}
	contentType := `text/plain; charset="UTF-8"`
	if msg.HTML {
		contentType = `text/html; charset="UTF-8"`
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: %s\r\n", id.MessageID(m.domain))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// classify tags err as transient or permanent.
func classify(ctx context.Context, err error) error {
	if isTransient(ctx, err) {
		return fmt.Errorf("smtp send: %w: %w", domain.ErrTransient, err)
	}
	return fmt.Errorf("smtp send: %w: %w", domain.ErrPermanent, err)
}

func isTransient(ctx context.Context, err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		// 4xx replies are temporary by definition; 5xx (including 535 auth) are not.
		return tpErr.Code >= 400 && tpErr.Code < 500
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

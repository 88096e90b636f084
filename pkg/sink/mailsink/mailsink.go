// Package mailsink provides a sink.Sink that relays every submission as one
// email through an SMTP server.
//
// A new connection is opened for every delivery. Port 465 uses implicit TLS;
// any other port starts in plain text and upgrades with STARTTLS when the
// server offers it.
package mailsink

import (
	"context"
	"crypto/tls"
	"errors"
	"leadintake/pkg/domain"
	"leadintake/pkg/render"
	"leadintake/pkg/serrors"
	"leadintake/pkg/sink"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const (
	// ImplicitTLSPort is the SMTPS port; connections to it are TLS from the first byte.
	ImplicitTLSPort = 465
	// DefaultPort is the submission port used when none is configured.
	DefaultPort = 587
	// DefaultSubject is used when no subject is configured.
	DefaultSubject = "New report request (landing page)"
)

// Options configure the relay, the envelope and the message format.
type Options struct {
	// Host is the SMTP relay hostname.
	Host string
	// Port is the SMTP relay port; 465 selects implicit TLS.
	Port int
	// Username and Password authenticate against the relay. Both are required.
	Username string
	Password string
	// From is the sender address; falls back to Username.
	From string
	// To lists the recipients. At least one is required.
	To []string
	// Bcc lists optional blind copy recipients, e.g. a CRM inbox.
	Bcc []string
	// Subject of every message; falls back to DefaultSubject.
	Subject string
	// Format selects the message layout: the text report only, or the text
	// report plus the CSV export as attachment.
	Format render.Format
	// TLSConfig overrides the TLS settings used for implicit TLS and STARTTLS.
	TLSConfig *tls.Config
}

// Sender delivers submissions as email. It holds no connection state and is
// safe for concurrent use.
type Sender struct {
	options    Options
	body       render.Renderer
	attachment render.Renderer
}

// Ensure Sender conforms to the sink.Sink interface at compile time.
var _ sink.Sink = (*Sender)(nil)

// New constructs a Sender. It only fails for an unknown Format.
func New(options Options) (*Sender, error) {
	if options.Port == 0 {
		options.Port = DefaultPort
	}
	if options.Subject == "" {
		options.Subject = DefaultSubject
	}

	s := &Sender{
		options: options,
		body:    render.Text{},
	}

	switch options.Format {
	case render.FormatText, "":
	default:
		r, err := render.New(options.Format)
		if err != nil {
			return nil, err //nolint: wrapcheck
		}
		s.attachment = r
	}

	return s, nil
}

// Name returns the sink label.
func (s *Sender) Name() string {
	return sink.Mail
}

// ImplicitTLS reports whether the connection is TLS from the first byte.
func (s *Sender) ImplicitTLS() bool {
	return s.options.Port == ImplicitTLSPort
}

func (s *Sender) from() string {
	if s.options.From != "" {
		return s.options.From
	}

	return s.options.Username
}

// Message builds the email for sub.
func (s *Sender) Message(sub domain.Submission) Message {
	from := s.from()

	date := sub.SubmittedAt
	if date.IsZero() {
		date = time.Now().UTC()
	}

	host := "leadintake.local"
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		host = from[i+1:]
	}

	msg := Message{
		From:      from,
		To:        s.options.To,
		Bcc:       s.options.Bcc,
		ReplyTo:   sub.Email,
		Subject:   s.options.Subject,
		MessageID: sub.ID.String() + "@" + host,
		Date:      date,
		TextBody:  s.body.Render(sub),
	}
	if s.attachment != nil {
		msg.Attachment = &Attachment{
			Filename:    "lead-" + date.UTC().Format("20060102T150405Z") + "." + s.attachment.FileExtension(),
			ContentType: s.attachment.ContentType(),
			Content:     []byte(s.attachment.Render(sub)),
		}
	}

	return msg
}

// Deliver sends one email for sub and returns its Message-ID. Missing
// credentials or recipients fail before any connection is made.
func (s *Sender) Deliver(ctx context.Context, sub domain.Submission) (string, error) {
	if s.options.Username == "" || s.options.Password == "" {
		return "", serrors.With(serrors.ErrConfiguration, "smtp credentials are not configured")
	}
	if s.options.Host == "" || len(s.options.To) == 0 {
		return "", serrors.With(serrors.ErrConfiguration, "smtp host or recipient is not configured")
	}

	msg := s.Message(sub)
	raw, err := msg.Bytes()
	if err != nil {
		return "", serrors.Wrap(serrors.ErrInternal, err, "could not encode message")
	}

	if err := s.send(ctx, msg.From, msg.Recipients(), raw); err != nil {
		return "", serrors.Wrap(serrors.ErrDelivery, err, "")
	}

	return msg.MessageID, nil
}

func (s *Sender) tlsConfig() *tls.Config {
	if s.options.TLSConfig != nil {
		cfg := s.options.TLSConfig.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = s.options.Host
		}

		return cfg
	}

	return &tls.Config{
		ServerName: s.options.Host,
		MinVersion: tls.VersionTLS12,
	}
}

func (s *Sender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.options.Host, strconv.Itoa(s.options.Port))
	dialer := &net.Dialer{}

	if s.ImplicitTLS() {
		return (&tls.Dialer{NetDialer: dialer, Config: s.tlsConfig()}).DialContext(ctx, "tcp", addr) //nolint: wrapcheck
	}

	return dialer.DialContext(ctx, "tcp", addr) //nolint: wrapcheck
}

func (s *Sender) send(ctx context.Context, from string, rcpts []string, raw []byte) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	// net/smtp has no context support; closing the connection unblocks it.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	c, err := smtp.NewClient(conn, s.options.Host)
	if err != nil {
		_ = conn.Close()

		return err //nolint: wrapcheck
	}
	defer func() {
		_ = c.Close()
	}()

	if !s.ImplicitTLS() {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig()); err != nil {
				return err //nolint: wrapcheck
			}
		}
	}

	if ok, _ := c.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", s.options.Username, s.options.Password, s.options.Host)
		if err := c.Auth(auth); err != nil {
			return err //nolint: wrapcheck
		}
	}

	if err := c.Mail(from); err != nil {
		return err //nolint: wrapcheck
	}
	for _, rcpt := range rcpts {
		if err := c.Rcpt(rcpt); err != nil {
			return err //nolint: wrapcheck
		}
	}

	w, err := c.Data()
	if err != nil {
		return err //nolint: wrapcheck
	}
	if _, err := w.Write(raw); err != nil {
		return err //nolint: wrapcheck
	}
	if err := w.Close(); err != nil {
		return err //nolint: wrapcheck
	}

	if err := c.Quit(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err //nolint: wrapcheck
	}

	return nil
}

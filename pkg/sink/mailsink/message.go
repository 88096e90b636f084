package mailsink

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"
	"unicode"
)

// Attachment is a file attached to a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single outbound email. Bcc recipients are part of the envelope
// only and never appear in the headers.
type Message struct {
	From       string
	To         []string
	Bcc        []string
	ReplyTo    string
	Subject    string
	MessageID  string
	Date       time.Time
	TextBody   string
	Attachment *Attachment
}

// Recipients returns the envelope recipients (To followed by Bcc).
func (m Message) Recipients() []string {
	rcpts := make([]string, 0, len(m.To)+len(m.Bcc))
	rcpts = append(rcpts, m.To...)
	rcpts = append(rcpts, m.Bcc...)

	return rcpts
}

// Bytes encodes the message in RFC 5322 wire format with CRLF line endings.
func (m Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	header := func(k, v string) {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	if replyTo := formatAddress(m.ReplyTo); replyTo != "" {
		header("Reply-To", replyTo)
	}
	header("Subject", mime.QEncoding.Encode("UTF-8", m.Subject))
	header("Date", m.Date.Format(time.RFC1123Z))
	if m.MessageID != "" {
		header("Message-ID", "<"+m.MessageID+">")
	}
	header("MIME-Version", "1.0")

	if m.Attachment == nil {
		header("Content-Type", "text/plain; charset=UTF-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, m.TextBody); err != nil {
			return nil, err
		}

		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	header("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create text part: %w", err)
	}
	if err := writeQuotedPrintable(textPart, m.TextBody); err != nil {
		return nil, err
	}

	filePart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {m.Attachment.ContentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition": {
			mime.FormatMediaType("attachment", map[string]string{"filename": m.Attachment.Filename}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create attachment part: %w", err)
	}
	if err := writeBase64(filePart, m.Attachment.Content); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("could not close multipart body: %w", err)
	}

	return buf.Bytes(), nil
}

// formatAddress renders addr for a header. Addresses carrying control
// characters are dropped so they can never start a new header line.
func formatAddress(addr string) string {
	if addr == "" || strings.IndexFunc(addr, unicode.IsControl) >= 0 {
		return ""
	}

	return (&mail.Address{Address: addr}).String()
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("could not encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("could not encode body: %w", err)
	}

	return nil
}

// writeBase64 writes content base64 encoded in lines of 76 characters.
func writeBase64(w io.Writer, content []byte) error {
	const lineLen = 76

	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 0 {
		n := min(lineLen, len(encoded))
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return fmt.Errorf("could not write attachment: %w", err)
		}
		encoded = encoded[n:]
	}

	return nil
}

package render

import (
	"leadintake/pkg/domain"
	"strings"
)

// TextHeader is the first line of every text report.
const TextHeader = "New lead submission:"

// Text renders the plain-text report used as mail body.
type Text struct{}

// Render writes the header, the contact lines, a blank line and then every
// answer as "key: value" in submission order.
func (Text) Render(sub domain.Submission) string {
	var b strings.Builder

	b.WriteString(TextHeader)
	b.WriteString("\n\n")
	b.WriteString("Name: " + sub.Name + "\n")
	b.WriteString("Company: " + sub.Company + "\n")
	b.WriteString("Email: " + sub.Email + "\n")
	if sub.Profile != "" {
		b.WriteString("Profile: " + sub.Profile + "\n")
	}
	b.WriteString("\n")

	for _, a := range sub.Answers {
		b.WriteString(a.Key + ": " + a.Value + "\n")
	}

	return b.String()
}

// ContentType returns the MIME type of the report.
func (Text) ContentType() string { return "text/plain; charset=UTF-8" }

// FileExtension returns the file extension used when attaching the report.
func (Text) FileExtension() string { return "txt" }

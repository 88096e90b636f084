// Package render turns a submission into the representations sent to sinks:
// a human-readable text report and a one-row CSV export. Renderers are pure;
// the same submission always renders to the same bytes.
package render

import (
	"fmt"
	"leadintake/pkg/domain"
)

// Format names a rendering policy.
type Format string

const (
	// FormatText renders a plain-text report.
	FormatText Format = "text"
	// FormatCSV renders a header plus one CSV row.
	FormatCSV Format = "csv"
)

// Renderer renders a submission.
type Renderer interface {
	Render(sub domain.Submission) string
	ContentType() string
	FileExtension() string
}

// New returns the renderer for format.
func New(format Format) (Renderer, error) {
	switch format {
	case FormatText, "":
		return Text{}, nil
	case FormatCSV:
		return CSV{}, nil
	default:
		return nil, fmt.Errorf("unknown render format %q", format)
	}
}

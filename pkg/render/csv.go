package render

import (
	"leadintake/pkg/domain"
	"strings"
)

// CSVHeader is the fixed header line of the CSV export.
const CSVHeader = "timestamp,name,company,email,profile,q1,q2,q3,q4"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// csvAnswerKeys maps the q1..q4 columns to their answer keys.
var csvAnswerKeys = [...]string{ //nolint: gochecknoglobals
	domain.AnswerInvest,
	domain.AnswerGTM,
	domain.AnswerRatings,
	domain.AnswerGrowth,
}

// CSV renders the header line followed by exactly one data row. Every data
// field is quoted; answers outside the q1..q4 key set are ignored.
type CSV struct{}

// Render returns the CSV export of sub.
func (CSV) Render(sub domain.Submission) string {
	fields := make([]string, 0, 5+len(csvAnswerKeys))

	var ts string
	if !sub.SubmittedAt.IsZero() {
		ts = sub.SubmittedAt.UTC().Format(TimestampLayout)
	}
	fields = append(fields, ts, sub.Name, sub.Company, sub.Email, sub.Profile)

	for _, key := range csvAnswerKeys {
		v, _ := sub.Answers.Get(key)
		fields = append(fields, v)
	}

	for i, f := range fields {
		fields[i] = quote(f)
	}

	return CSVHeader + "\n" + strings.Join(fields, ",") + "\n"
}

// ContentType returns the MIME type of the export.
func (CSV) ContentType() string { return "text/csv; charset=UTF-8" }

// FileExtension returns the file extension used when attaching the export.
func (CSV) FileExtension() string { return "csv" }

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

package leadhandler

import (
	"leadintake/internal/intake"
	"leadintake/pkg/domain"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-faster/jx"
)

// Response messages.
const (
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgInvalidBody      = "Invalid request body"
	MsgBodyTooLarge     = "Request body too large"
	MsgServerError      = "Server error"
)

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Bytes())))
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// WriteError writes {"ok":false,"error":msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeValidationError(w, status, msg, nil)
}

func writeValidationError(w http.ResponseWriter, status int, msg string, fields intake.FieldErrors) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(false)
	e.FieldStart("error")
	e.Str(msg)
	if len(fields) > 0 {
		e.FieldStart("fields")
		e.ObjStart()
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			e.FieldStart(k)
			e.Str(fields[k])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	writeJSON(w, status, &e)
}

// WriteOK writes {"ok":true}.
func WriteOK(w http.ResponseWriter) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(true)
	e.ObjEnd()

	writeJSON(w, http.StatusOK, &e)
}

// writeOutcome writes the per-sink detail of a multi-sink outcome. The status
// is 200 when every sink succeeded and 207 otherwise.
func writeOutcome(w http.ResponseWriter, out domain.Outcome) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(out.OK())
	for _, r := range out.Results {
		e.FieldStart(r.Sink)
		e.ObjStart()
		e.FieldStart("ok")
		e.Bool(r.OK())
		if r.OK() {
			if r.Reference != "" {
				e.FieldStart("id")
				e.Str(r.Reference)
			}
		} else {
			e.FieldStart("error")
			e.Str(r.Reason())
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	status := http.StatusOK
	if !out.OK() {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, &e)
}

// Package leadhandler serves the lead intake endpoint. It decodes the
// submission, hands it to the intake service and maps the outcome onto the
// HTTP response.
package leadhandler

import (
	"errors"
	"io"
	"leadintake/internal/intake"
	"leadintake/pkg/logger"
	"leadintake/pkg/serrors"
	"net/http"

	"go.uber.org/zap"
)

// Deps are the collaborators of the handler.
type Deps struct {
	Intake intake.Intake
}

// Handler serves POST requests carrying a lead submission. Preflight requests
// are answered by the CORS middleware before reaching it.
type Handler struct {
	deps Deps
}

// Ensure Handler implements http.Handler.
var _ http.Handler = (*Handler)(nil)

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		WriteError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)

		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)

			return
		}
		logger.Warn(ctx, "could not read request body", zap.Error(err))
		WriteError(w, http.StatusBadRequest, MsgInvalidBody)

		return
	}

	sub, err := decodeSubmission(body)
	if err != nil {
		logger.Debug(ctx, "invalid request body", zap.Error(err))
		WriteError(w, http.StatusBadRequest, MsgInvalidBody)

		return
	}

	out, err := h.deps.Intake.Submit(ctx, sub)
	if err != nil {
		if errors.Is(err, serrors.ErrValidation) {
			var fields intake.FieldErrors
			_ = errors.As(err, &fields)
			writeValidationError(w, http.StatusBadRequest, serrors.MessageOf(err, MsgInvalidBody), fields)

			return
		}

		logger.Error(ctx, "could not submit lead", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, MsgServerError)

		return
	}

	if len(out.Results) > 1 {
		writeOutcome(w, out)

		return
	}

	if !out.OK() {
		// the single sink's reason stays in the logs
		logger.Error(ctx, "lead delivery failed",
			zap.String("sink", out.Results[0].Sink),
			zap.Error(out.Results[0].Err))
		WriteError(w, http.StatusInternalServerError, MsgServerError)

		return
	}

	WriteOK(w)
}

package intake

import (
	"context"
	"fmt"
	"leadintake/internal/config"
	"leadintake/internal/dispatch"
	"leadintake/pkg/clock"
	"leadintake/pkg/domain"
	"leadintake/pkg/logger"
	"leadintake/pkg/serrors"

	"go.uber.org/zap"
)

// Options configure the validation policies of the intake service.
type Options struct {
	// ValidateEmail enables the email format check. Presence of the email is
	// required either way.
	ValidateEmail bool
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		ValidateEmail: cfg.Intake.ValidateEmail,
	}
}

// Deps are the collaborators of the intake service. A nil Clock uses the
// system clock.
type Deps struct {
	Dispatcher dispatch.Dispatcher
	Clock      clock.Clock
}

// intake is the concrete implementation of the Intake interface.
type intake struct {
	validator  *Validator
	dispatcher dispatch.Dispatcher
	clock      clock.Clock
}

// Submit validates sub, stamps it with an ID and the current time and
// dispatches it.
func (i *intake) Submit(ctx context.Context, sub domain.Submission) (domain.Outcome, error) {
	sub, err := i.validator.Validate(sub)
	if err != nil {
		return domain.Outcome{}, err
	}

	sinks := i.dispatcher.Sinks()
	if len(sinks) == 0 {
		return domain.Outcome{}, serrors.With(serrors.ErrConfiguration, "no sinks configured")
	}

	sub.ID = domain.NewSubmissionID()
	sub.SubmittedAt = i.clock.Now()

	ctx = logger.WithFields(ctx, zap.String("submission_id", sub.ID.String()))
	logger.Info(ctx, "lead accepted", zap.Strings("sinks", sinks))

	out := i.dispatcher.Dispatch(ctx, sub)

	logger.Info(ctx, "lead dispatched",
		zap.Stringer("status", out.Status()),
		zap.Int("failed", len(out.Failed())))

	return out, nil
}

// New creates a new Intake dispatching through deps.Dispatcher.
func New(deps Deps, options Options) (Intake, error) {
	v, err := NewValidator(options.ValidateEmail)
	if err != nil {
		return nil, fmt.Errorf("could not create validator: %w", err)
	}

	c := deps.Clock
	if c == nil {
		c = clock.System{}
	}

	return &intake{
		validator:  v,
		dispatcher: deps.Dispatcher,
		clock:      c,
	}, nil
}

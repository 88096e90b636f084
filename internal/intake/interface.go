package intake

import (
	"context"
	"leadintake/pkg/domain"
)

//go:generate mockgen -package mockintake -source=interface.go -destination=mock/mockintake.go *
type Intake interface {
	// Submit validates sub and hands it to every configured sink. Invalid input
	// is reported as an ErrValidation error; sink failures are part of the
	// returned Outcome and never returned as error.
	Submit(ctx context.Context, sub domain.Submission) (domain.Outcome, error)
}

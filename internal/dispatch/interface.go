package dispatch

import (
	"context"
	"leadintake/pkg/domain"
)

//go:generate mockgen -package mockdispatch -source=interface.go -destination=mock/mockdispatch.go *
type Dispatcher interface {
	// Dispatch hands sub to every configured sink concurrently and waits for
	// all of them. Results follow the configured sink order.
	Dispatch(ctx context.Context, sub domain.Submission) domain.Outcome
	// Sinks returns the names of the configured sinks in order.
	Sinks() []string
}

// Package sink defines the contract of the external systems a validated
// submission is handed to (mail relay, workspace database).
package sink

import (
	"context"
	"leadintake/pkg/domain"
)

// Well-known sink labels, as used in configuration and in responses.
const (
	Mail   = "mail"
	Notion = "notion"
)

// Sink delivers one submission to an external system.
//
//go:generate mockgen -package mocksink -source=interface.go -destination=mock/mocksink.go *
type Sink interface {
	// Name returns the label used for the sink in results and metrics.
	Name() string
	// Deliver hands sub to the external system and returns a reference to what
	// was created there (message id, record id). Every call creates a new record.
	Deliver(ctx context.Context, sub domain.Submission) (string, error)
}

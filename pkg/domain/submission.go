package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionID uniquely identifies one intake request.
type SubmissionID uuid.UUID

// String returns the canonical UUID form of the ID.
func (id SubmissionID) String() string {
	return uuid.UUID(id).String()
}

// NewSubmissionID generates a random SubmissionID.
func NewSubmissionID() SubmissionID {
	return SubmissionID(uuid.New())
}

// Answer is a single survey answer.
type Answer struct {
	Key   string
	Value string
}

// Answers holds survey answers in the order they were submitted.
type Answers []Answer

// Fixed answer keys understood by the CSV report.
const (
	AnswerInvest  = "q1_invest"
	AnswerGTM     = "q2_gtm"
	AnswerRatings = "q3_ratings"
	AnswerGrowth  = "q4_growth"
)

// Get returns the value stored under key.
func (a Answers) Get(key string) (string, bool) {
	for _, ans := range a {
		if ans.Key == key {
			return ans.Value, true
		}
	}

	return "", false
}

// Set stores value under key. An existing key keeps its position and only its
// value is replaced.
func (a *Answers) Set(key, value string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value

			return
		}
	}

	*a = append(*a, Answer{Key: key, Value: value})
}

// Submission is a lead as received from the form. It only lives for the
// duration of one request.
type Submission struct {
	// ID is assigned by the intake service once the submission is accepted.
	ID SubmissionID `json:"-"`
	// Name of the person submitting the form.
	Name string `json:"name" validate:"required,singleline"`
	// Company the person works for.
	Company string `json:"company" validate:"required,singleline"`
	// Email is the business email address used as reply-to.
	Email string `json:"email" validate:"required,singleline,leademail"`
	// Profile is an optional free-form profile or segment label.
	Profile string `json:"profile,omitempty" validate:"singleline"`
	// Answers are the optional survey answers.
	Answers Answers `json:"-"`
	// SubmittedAt is stamped by the intake service; the CSV report uses it as timestamp.
	SubmittedAt time.Time `json:"-"`
}

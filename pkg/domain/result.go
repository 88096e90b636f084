package domain

// DispatchResult is the outcome of handing a submission to one sink.
type DispatchResult struct {
	// Sink is the label of the sink, e.g. "mail" or "notion".
	Sink string
	// Reference is the sink's success detail (message id, page id). Empty on failure.
	Reference string
	// Err is nil when the sink accepted the submission.
	Err error
}

// OK reports whether the sink succeeded.
func (r DispatchResult) OK() bool {
	return r.Err == nil
}

// Reason returns the failure reason, or an empty string on success.
func (r DispatchResult) Reason() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}

// OutcomeStatus tags the aggregated result of a dispatch.
type OutcomeStatus int

const (
	// AllSucceeded means every invoked sink accepted the submission.
	AllSucceeded OutcomeStatus = iota
	// SomeFailed means at least one invoked sink failed; Results carries the detail.
	SomeFailed
)

// String returns a readable name of the status.
func (s OutcomeStatus) String() string {
	switch s {
	case AllSucceeded:
		return "all_succeeded"
	case SomeFailed:
		return "some_failed"
	default:
		return "unknown"
	}
}

// Outcome aggregates the results of all sinks invoked for one submission, in
// the order the sinks are configured.
type Outcome struct {
	Results []DispatchResult
}

// Status returns AllSucceeded iff every result succeeded.
func (o Outcome) Status() OutcomeStatus {
	for _, r := range o.Results {
		if !r.OK() {
			return SomeFailed
		}
	}

	return AllSucceeded
}

// OK reports whether the outcome is AllSucceeded.
func (o Outcome) OK() bool {
	return o.Status() == AllSucceeded
}

// Failed returns the results of the sinks that failed.
func (o Outcome) Failed() []DispatchResult {
	var failed []DispatchResult
	for _, r := range o.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}

	return failed
}

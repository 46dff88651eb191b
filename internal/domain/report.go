package domain

import "time"

// OutcomeStatus enumerates per-article results of a run.
type OutcomeStatus string

const (
	StatusSkipped   OutcomeStatus = "skipped"
	StatusProcessed OutcomeStatus = "processed"
	StatusFailed    OutcomeStatus = "failed"
)

// Outcome records what happened to a single article.
type Outcome struct {
	ArticleID string
	Status    OutcomeStatus
	Payload   *Payload
	Err       error
}

// Report summarizes one pipeline run.
type Report struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Total        int
	Outcomes     []Outcome
	NotAttempted int
}

// Count returns the number of outcomes with the given status.
func (r Report) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns only the failed outcomes.
func (r Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

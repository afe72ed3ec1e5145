package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/veil/pkg/pii"
)

// Action is the operation an event records.
type Action string

const (
	ActionDetect       Action = "detect"
	ActionRedactText   Action = "redact_text"
	ActionRedactMedia  Action = "redact_media"
	ActionVerify       Action = "verify"
	ActionJobCreated   Action = "job_created"
	ActionJobCompleted Action = "job_completed"
	ActionJobFailed    Action = "job_failed"
	ActionJobExpired   Action = "job_expired"
)

// Outcome is the result of the recorded operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one audit trail entry. It must never carry original input
// values; entity information is reduced to types and counts before it gets
// here.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Time    time.Time `json:"time"`
	Action  Action    `json:"action"`
	Actor   string    `json:"actor,omitempty"`
	Outcome Outcome   `json:"outcome"`

	// EntityCounts maps entity type to how many instances the operation
	// touched.
	EntityCounts map[string]int `json:"entity_counts,omitempty"`
	Strategy     string         `json:"strategy,omitempty"`
	JobID        string         `json:"job_id,omitempty"`

	Details map[string]interface{} `json:"details,omitempty"`
}

// NewEvent builds an event stamped with a fresh ID and the current time.
func NewEvent(action Action, actor string, outcome Outcome) *Event {
	return &Event{
		ID:      uuid.New(),
		Time:    time.Now().UTC(),
		Action:  action,
		Actor:   actor,
		Outcome: outcome,
	}
}

// SummarizeRecords reduces per-redaction records to per-type counts. This is
// the only path from core audit records into events, and it deliberately
// drops values, offsets and regions.
func SummarizeRecords(records []pii.AuditRecord) map[string]int {
	if len(records) == 0 {
		return nil
	}
	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[r.EntityType]++
	}
	return counts
}

// Filter narrows a Store query. Zero values mean "any".
type Filter struct {
	Action Action
	Actor  string
	JobID  string
	Since  time.Time
	Until  time.Time

	Limit  int
	Offset int
}

package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/classway/callkit/internal/core"
)

// CallRecord is one finished call as written by the history collaborator.
// The call session itself is transient; only this row survives it.
type CallRecord struct {
	ID              string         `json:"id,omitempty" db:"id"`
	CallID          core.CallID    `json:"call_id" db:"call_id"`
	CallerID        core.PeerID    `json:"caller_id" db:"caller_id"`
	CalleeID        core.PeerID    `json:"callee_id" db:"callee_id"`
	Kind            core.CallKind  `json:"kind" db:"kind"`
	StartedAt       *time.Time     `json:"started_at,omitempty" db:"started_at"`
	EndedAt         time.Time      `json:"ended_at" db:"ended_at"`
	DurationSeconds int64          `json:"duration_seconds" db:"duration_seconds"`
	EndReason       core.EndReason `json:"end_reason" db:"end_reason"`
}

func NewCallRecord(callID core.CallID, caller, callee core.PeerID, kind core.CallKind) *CallRecord {
	return &CallRecord{
		ID:       uuid.New().String(),
		CallID:   callID,
		CallerID: caller,
		CalleeID: callee,
		Kind:     kind,
		EndedAt:  time.Now().UTC(),
	}
}

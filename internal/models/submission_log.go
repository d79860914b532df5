package models

import (
	"encoding/json"
	"time"
)

// SubmissionAction is the administrative action recorded in the audit trail.
type SubmissionAction string

const (
	SubmissionActionCreate  SubmissionAction = "create"
	SubmissionActionUpdate  SubmissionAction = "update"
	SubmissionActionDelete  SubmissionAction = "delete"
	SubmissionActionConfirm SubmissionAction = "confirm"
	SubmissionActionBlock   SubmissionAction = "block"
)

// Valid reports whether the action is a known enum value.
func (a SubmissionAction) Valid() bool {
	switch a {
	case SubmissionActionCreate, SubmissionActionUpdate, SubmissionActionDelete,
		SubmissionActionConfirm, SubmissionActionBlock:
		return true
	}
	return false
}

// SubmissionLogEntity tags the kind of record an audit entry refers to.
// Only enrollments are audited today.
const SubmissionLogEntityEnrollments = "ENROLLMENTS"

// SubmissionLog is an append-only audit record of an administrative action.
// Entries are never updated or deleted once written. EntityID is stored as
// text because referenced ids are bigints that can exceed the safe integer
// range of JSON consumers.
type SubmissionLog struct {
	ID           string           `db:"log_id" json:"logId"`
	ActorAdminID string           `db:"actor_admin_id" json:"actorAdminId"`
	StudentID    *int64           `db:"student_id" json:"studentId,omitempty"`
	Entity       string           `db:"entity" json:"entity"`
	EntityID     string           `db:"entity_id" json:"entityId"`
	Action       SubmissionAction `db:"action" json:"action"`
	Reason       *string          `db:"reason" json:"reason,omitempty"`
	Changes      json.RawMessage  `db:"changes_json" json:"changesJson,omitempty"`
	CreatedAt    time.Time        `db:"ts" json:"ts"`
}

// CreateSubmissionLogRequest is the payload for recording an audit entry
// directly through the API.
type CreateSubmissionLogRequest struct {
	ActorAdminID string           `json:"actorAdminId" validate:"required,uuid4"`
	StudentID    *int64           `json:"studentId,omitempty" validate:"omitempty,gt=0"`
	EntityID     string           `json:"entityId" validate:"required,max=40"`
	Action       SubmissionAction `json:"action" validate:"required"`
	Reason       *string          `json:"reason,omitempty" validate:"omitempty,max=500"`
	Changes      json.RawMessage  `json:"changesJson,omitempty"`
}

// SubmissionLogFilter narrows audit queries; all fields are optional and
// combine conjunctively.
type SubmissionLogFilter struct {
	ActorAdminID string
	StudentID    int64
	Entity       string
	EntityID     string
	Action       SubmissionAction
	Page         int
	PageSize     int
}

package models

import "time"

// EnrollmentState represents the lifecycle of a preregistration.
type EnrollmentState string

// Enrollment lifecycle states. Transitions only move forward: a confirmed
// or blocked enrollment never returns to draft, and blocked is terminal.
const (
	EnrollmentStateDraft     EnrollmentState = "DRAFT"
	EnrollmentStateConfirmed EnrollmentState = "CONFIRMED"
	EnrollmentStateBlocked   EnrollmentState = "BLOCKED"
)

// Valid reports whether the state is a known enum value.
func (s EnrollmentState) Valid() bool {
	switch s {
	case EnrollmentStateDraft, EnrollmentStateConfirmed, EnrollmentStateBlocked:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle step. Same-state writes are allowed.
func (s EnrollmentState) CanTransitionTo(next EnrollmentState) bool {
	if s == next {
		return true
	}
	switch s {
	case EnrollmentStateDraft:
		return next == EnrollmentStateConfirmed || next == EnrollmentStateBlocked
	case EnrollmentStateConfirmed:
		return next == EnrollmentStateBlocked
	}
	return false
}

// Enrollment is a student's preregistration for a curriculum slot in a
// period. The (student, career subject, period) triple is unique, enforced
// by the uq_student_subject_period constraint at the storage layer.
type Enrollment struct {
	ID              int64           `db:"enrollment_id" json:"enrollmentId"`
	StudentID       int64           `db:"student_id" json:"studentId"`
	CareerSubjectID int64           `db:"career_subject_id" json:"careerSubjectId"`
	PeriodID        string          `db:"period_id" json:"periodId"`
	State           EnrollmentState `db:"state" json:"state"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// CreateEnrollmentRequest is the payload for creating a preregistration.
// State is optional and defaults to DRAFT.
type CreateEnrollmentRequest struct {
	StudentID       int64           `json:"studentId" validate:"required,gt=0"`
	CareerSubjectID int64           `json:"careerSubjectId" validate:"required,gt=0"`
	PeriodID        string          `json:"periodId" validate:"required,max=20"`
	State           EnrollmentState `json:"state,omitempty"`
}

// UpdateEnrollmentRequest carries a partial update; nil fields are left
// untouched.
type UpdateEnrollmentRequest struct {
	StudentID       *int64           `json:"studentId,omitempty" validate:"omitempty,gt=0"`
	CareerSubjectID *int64           `json:"careerSubjectId,omitempty" validate:"omitempty,gt=0"`
	PeriodID        *string          `json:"periodId,omitempty" validate:"omitempty,max=20"`
	State           *EnrollmentState `json:"state,omitempty"`
	Reason          *string          `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// EnrollmentStateRequest is the payload for the confirm and block endpoints.
type EnrollmentStateRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID       int64
	CareerSubjectID int64
	PeriodID        string
	State           EnrollmentState
	Page            int
	PageSize        int
}

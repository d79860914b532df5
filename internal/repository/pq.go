package repository

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Named constraints whose violations are part of the API contract.
const (
	ConstraintEnrollmentTriple    = "uq_student_subject_period"
	ConstraintCurriculumSlot      = "uq_career_subject_semester"
	ConstraintSubmissionLogActor  = "fk_logs_actor_admin"
	ConstraintStudentEmail        = "uq_students_email"
	ConstraintAdminUsername       = "uq_admins_username"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
// When constraint is non-empty the violation must come from that named
// constraint. This is the authoritative duplicate signal: pre-insert
// existence checks are a fast path only and lose under concurrency.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != pgUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsForeignKeyViolation reports whether err is a PostgreSQL
// foreign_key_violation, optionally on a named constraint.
func IsForeignKeyViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != pgForeignKeyViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrollmentStateTransitions(t *testing.T) {
	cases := []struct {
		from    EnrollmentState
		to      EnrollmentState
		allowed bool
	}{
		{EnrollmentStateDraft, EnrollmentStateDraft, true},
		{EnrollmentStateDraft, EnrollmentStateConfirmed, true},
		{EnrollmentStateDraft, EnrollmentStateBlocked, true},
		{EnrollmentStateConfirmed, EnrollmentStateConfirmed, true},
		{EnrollmentStateConfirmed, EnrollmentStateBlocked, true},
		{EnrollmentStateConfirmed, EnrollmentStateDraft, false},
		{EnrollmentStateBlocked, EnrollmentStateBlocked, true},
		{EnrollmentStateBlocked, EnrollmentStateDraft, false},
		{EnrollmentStateBlocked, EnrollmentStateConfirmed, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEnrollmentStateValid(t *testing.T) {
	assert.True(t, EnrollmentStateDraft.Valid())
	assert.True(t, EnrollmentStateConfirmed.Valid())
	assert.True(t, EnrollmentStateBlocked.Valid())
	assert.False(t, EnrollmentState("PENDING").Valid())
	assert.False(t, EnrollmentState("").Valid())
}

func TestSubmissionActionValid(t *testing.T) {
	for _, a := range []SubmissionAction{SubmissionActionCreate, SubmissionActionUpdate, SubmissionActionDelete, SubmissionActionConfirm, SubmissionActionBlock} {
		assert.True(t, a.Valid())
	}
	assert.False(t, SubmissionAction("promote").Valid())
}

func TestRoleSet(t *testing.T) {
	set := RoleSet{RoleAdmin}
	assert.True(t, set.Has(RoleAdmin))
	assert.False(t, set.Has(RoleStudent))
	assert.True(t, set.HasAny(RoleStudent, RoleAdmin))
	assert.False(t, RoleSet{}.HasAny(RoleAdmin))
}

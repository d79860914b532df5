package models

import "time"

// Career is a degree program identified by a short fixed-length code.
type Career struct {
	ID   string `db:"career_id" json:"careerId" validate:"required,min=2,max=5"`
	Name string `db:"name" json:"name" validate:"required,max=100"`
}

// Subject is a course unit.
type Subject struct {
	ID   int64  `db:"subject_id" json:"subjectId" validate:"required,gt=0"`
	Name string `db:"name" json:"name" validate:"required,max=100"`
}

// CareerSubject binds a subject into a career's curriculum at a given
// semester: the curriculum slot enrollments point at. At most one row may
// exist per (career, subject, semester) triple.
type CareerSubject struct {
	ID        int64  `db:"career_subject_id" json:"careerSubjectId"`
	CareerID  string `db:"career_id" json:"careerId" validate:"required,min=2,max=5"`
	SubjectID int64  `db:"subject_id" json:"subjectId" validate:"required,gt=0"`
	Semester  int    `db:"semester" json:"semester" validate:"required,min=1,max=9"`
}

// Period is an academic term, e.g. 2025-ENE-JUN.
type Period struct {
	ID        string    `db:"period_id" json:"periodId" validate:"required,max=20"`
	StartDate time.Time `db:"start_date" json:"startDate" validate:"required"`
	EndDate   time.Time `db:"end_date" json:"endDate" validate:"required"`
	Active    bool      `db:"active" json:"active"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

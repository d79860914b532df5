package models

// Student is an institutional student record. The primary key is the
// institutional record number chosen by the student at registration.
type Student struct {
	ID           int64  `db:"student_id" json:"studentId"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	GroupNo      int    `db:"group_no" json:"groupNo"`
	Semester     int    `db:"semester" json:"semester"`
	CareerID     string `db:"career_id" json:"careerId"`
}

// UpdateStudentRequest mutates an existing student record (admin only).
type UpdateStudentRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=150"`
	Email    *string `json:"email" validate:"omitempty,email,max=150"`
	GroupNo  *int    `json:"groupNo" validate:"omitempty,min=1,max=255"`
	Semester *int    `json:"semester" validate:"omitempty,min=1,max=9"`
	CareerID *string `json:"careerId" validate:"omitempty,min=2,max=5"`
}

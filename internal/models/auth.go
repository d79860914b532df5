package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a verified session token. Subject carries
// the admin username or the student record number as a decimal string.
type Claims struct {
	Roles RoleSet `json:"roles"`
	jwt.RegisteredClaims
}

// RegisterStudentRequest is the self-registration payload.
type RegisterStudentRequest struct {
	StudentID int64  `json:"studentId" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,min=2,max=150"`
	Email     string `json:"email" validate:"required,email,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=200"`
	GroupNo   int    `json:"groupNo" validate:"required,min=1,max=255"`
	Semester  int    `json:"semester" validate:"required,min=1,max=9"`
	CareerID  string `json:"careerId" validate:"required,min=2,max=5"`
}

// LoginStudentRequest authenticates a student by record number.
type LoginStudentRequest struct {
	StudentID int64  `json:"studentId" validate:"required,gt=0"`
	Password  string `json:"password" validate:"required"`
}

// LoginAdminRequest authenticates an administrator by username.
type LoginAdminRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Profile is the role-shaped view of an identity returned after session
// verification. Admin profiles populate username/department; student
// profiles populate the student fields.
type Profile struct {
	Role               Role   `json:"rol"`
	Name               string `json:"name"`
	Username           string `json:"username,omitempty"`
	AssignedDepartment string `json:"department,omitempty"`
	StudentID          int64  `json:"studentId,omitempty"`
	GroupNo            int    `json:"groupNo,omitempty"`
	Semester           int    `json:"semester,omitempty"`
	CareerID           string `json:"careerId,omitempty"`
}

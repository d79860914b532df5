package models

// Admin is an administrative identity provisioned manually.
type Admin struct {
	ID                 string `db:"admin_id" json:"adminId"`
	Name               string `db:"name" json:"name"`
	Username           string `db:"username" json:"username"`
	PasswordHash       string `db:"password_hash" json:"-"`
	AssignedDepartment string `db:"assigned_department" json:"assignedDepartment"`
}

// CreateAdminRequest provisions a new administrator.
type CreateAdminRequest struct {
	Name               string `json:"name" validate:"required,min=2,max=200"`
	Username           string `json:"username" validate:"required,min=3,max=100"`
	Password           string `json:"password" validate:"required,min=8,max=200"`
	AssignedDepartment string `json:"assignedDepartment" validate:"required,max=50"`
}

// UpdateAdminRequest mutates an existing administrator. Nil fields are left
// untouched.
type UpdateAdminRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=2,max=200"`
	Password           *string `json:"password" validate:"omitempty,min=8,max=200"`
	AssignedDepartment *string `json:"assignedDepartment" validate:"omitempty,max=50"`
}

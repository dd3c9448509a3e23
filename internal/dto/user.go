package dto

import "github.com/noah-isme/school-backoffice-api/internal/models"

// CreateUserRequest payload for provisioning an operator account.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN STAFF"`
}

// UpdateUserRequest payload for editing an operator account.
type UpdateUserRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN STAFF"`
	Active   *bool           `json:"active"`
}

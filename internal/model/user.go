package model

import "github.com/rinsr/dashboard/internal/validation"

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateUserRequest is the body of PATCH/PUT /api/users/:id.
// An empty password leaves the current one unchanged upstream.
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (r *UpdateUserRequest) Validate() error {
	return validation.Struct(r)
}

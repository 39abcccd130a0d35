package model

import (
	"time"
)

// UserRole is the role of an authenticated user.
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleProfessor UserRole = "professor"
)

// Valid reports whether r is a known user role.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleProfessor
}

// User is an authenticated identity.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// LoginRequest selects which mock SSO identity to sign in as.
type LoginRequest struct {
	Role UserRole `json:"role"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// UploadedFile is the metadata of an uploaded course material.
type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploaded_at"`
	CourseID   string    `json:"course_id"`
	Required   bool      `json:"required"`
	Visible    bool      `json:"visible"`
}

// ListFilesResponse is the response for listing course materials.
type ListFilesResponse struct {
	Files []UploadedFile `json:"files"`
	Total int            `json:"total"`
}

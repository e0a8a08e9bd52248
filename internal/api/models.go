package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
)

// RegisterRequest represents the request for user registration.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents the request for user login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the request to exchange a refresh token for a new
// token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// GoogleLoginRequest represents the request for federated Google login.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// UpdateAvatarRequest represents the request to update the avatar reference.
type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Avatar string    `json:"avatar,omitempty"`
	XP     int       `json:"xp"`
}

// NewUserResponse builds a UserResponse from a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Avatar: user.Avatar,
		XP:     user.XP,
	}
}

// AuthResponse is returned by register, login and google login.
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// TokenPairResponse is returned by the refresh endpoint.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CreateTaskRequest represents the request to create a task.
type CreateTaskRequest struct {
	Title       string           `json:"title"       validate:"required"`
	Description string           `json:"description"`
	Priority    string           `json:"priority"    validate:"omitempty,oneof=low medium high"`
	StartDate   *time.Time       `json:"start_date"`
	DueDate     *time.Time       `json:"due_date"`
	EndDate     *time.Time       `json:"end_date"`
	AssignedTo  *uuid.UUID       `json:"assigned_to"`
	Subtasks    []domain.Subtask `json:"subtasks"`
}

// UpdateTaskRequest represents a partial task patch; absent fields are left
// untouched.
type UpdateTaskRequest struct {
	Title       *string          `json:"title"       validate:"omitempty,min=1"`
	Description *string          `json:"description"`
	Status      *string          `json:"status"      validate:"omitempty,oneof=todo in-progress done"`
	Priority    *string          `json:"priority"    validate:"omitempty,oneof=low medium high"`
	StartDate   *time.Time       `json:"start_date"`
	DueDate     *time.Time       `json:"due_date"`
	EndDate     *time.Time       `json:"end_date"`
	AssignedTo  *uuid.UUID       `json:"assigned_to"`
	Subtasks    []domain.Subtask `json:"subtasks"`
}

// AddCommentRequest represents the request to add a comment to a task.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the stored shape. Password holds the bcrypt hash; it stays in
// the persisted document but never leaves through the API (see Response).
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=60"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is a partial payload. Nil pointers marshal away via
// omitempty, so an omitted field and an explicit null are both dropped
// from the stored document patch.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" binding:"omitempty,min=3,max=60"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Password *string `json:"password,omitempty"`
}

// Response is the public shape, password hash excluded.
type Response struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) Response() Response {
	return Response{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

func NewFromCreateRequest(req CreateUserRequest, passwordHash string) User {
	now := time.Now().UTC()

	return User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stocklane/stocklane/internal/config"
	"github.com/stocklane/stocklane/internal/domain/user"
	"github.com/stocklane/stocklane/internal/http/middlewares"
	"github.com/stocklane/stocklane/internal/repo/postgres"
	"github.com/stocklane/stocklane/internal/security"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type AuthHandler struct {
	users UserReader
	jwt   TokenIssuer
}

func NewAuthHandler(users UserReader, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login distinguishes its two failure causes to the caller - unknown
// email and wrong password each get their own 401, unlike the uniform
// token guard.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the store lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			RespondUnauthorized(ctx, "email_not_registered", "Email is not registered.")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	if !security.CheckPassword(foundUser.Password, req.Password) {
		RespondUnauthorized(ctx, "wrong_password", "Wrong password.")
		return
	}

	accessToken, err := h.jwt.Issue(foundUser.ID, foundUser.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"token_type":   "bearer",
	})
}

// Me re-resolves the caller by the email embedded in the claims rather
// than echoing the token payload, so the response reflects the current
// store state.
func (h *AuthHandler) Me(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing or invalid access token")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, email)

	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, foundUser.Response())
}

package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklane/stocklane/internal/config"
	"github.com/stocklane/stocklane/internal/domain/user"
	"github.com/stocklane/stocklane/internal/repo/postgres"
	"github.com/stocklane/stocklane/internal/security"
)

// EnsureAdminUser creates the bootstrap account when configured and not
// already present. It reuses the users collection so the stored shape
// matches regular registrations.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	users := postgres.NewUsersRepo(pool, nil)

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, postgres.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.NewFromCreateRequest(user.CreateUserRequest{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}, hash)

	_, err = users.Create(ctx, u)

	return err
}

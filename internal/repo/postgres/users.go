package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklane/stocklane/internal/domain/user"
	"github.com/stocklane/stocklane/internal/observability"
)

// UsersRepo is the users collection, unscoped: any caller sees any user.
type UsersRepo struct {
	col *Collection[user.User]
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		col: NewCollection[user.User](pool, "users", false, prom),
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	return r.col.Insert(ctx, u.ID, "", u)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.col.Get(ctx, id, "")
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	return r.col.List(ctx, "")
}

func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	return r.col.Update(ctx, id, "", req)
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id, "")
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var raw []byte

	err := r.col.observe("get_by_email", func() error {
		return r.col.pool.QueryRow(ctx,
			`SELECT doc FROM users WHERE doc->>'email' = $1`,
			email).Scan(&raw)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrNotFound
		}

		return user.User{}, err
	}

	return decode[user.User](raw)
}

// EmailExists backs the pre-insert uniqueness check on registration.
// The check-then-insert window is accepted for this design.
func (r *UsersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool

	err := r.col.observe("email_exists", func() error {
		return r.col.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE doc->>'email' = $1)`,
			email).Scan(&exists)
	})

	if err != nil {
		return false, err
	}

	return exists, nil
}

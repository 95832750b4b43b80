package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklane/stocklane/internal/observability"
)

// ErrNotFound covers a missing record and a record owned by someone
// else alike. Ownership is never disclosed through a distinct error.
var ErrNotFound = errors.New("record not found")

// Collection is a generic document collection over one JSONB table.
// When scoped, every operation filters by (id, owner_id), so a foreign
// record is indistinguishable from an absent one.
type Collection[T any] struct {
	pool   *pgxpool.Pool
	table  string
	scoped bool
	prom   *observability.Prom
}

func NewCollection[T any](pool *pgxpool.Pool, table string, scoped bool, prom *observability.Prom) *Collection[T] {
	return &Collection[T]{
		pool:   pool,
		table:  table,
		scoped: scoped,
		prom:   prom,
	}
}

func (c *Collection[T]) observe(op string, fn func() error) error {
	if c.prom == nil {
		return fn()
	}

	return c.prom.ObserveDB(c.table+"."+op, fn)
}

func (c *Collection[T]) Insert(ctx context.Context, id, owner string, doc T) (T, error) {
	var zero T

	raw, err := json.Marshal(doc)

	if err != nil {
		return zero, err
	}

	err = c.observe("insert", func() error {
		if c.scoped {
			_, err := c.pool.Exec(ctx,
				`INSERT INTO `+c.table+` (id, owner_id, doc) VALUES ($1, $2, $3)`,
				id, owner, raw)
			return err
		}

		_, err := c.pool.Exec(ctx,
			`INSERT INTO `+c.table+` (id, doc) VALUES ($1, $2)`,
			id, raw)
		return err
	})

	if err != nil {
		return zero, err
	}

	return doc, nil
}

func (c *Collection[T]) Get(ctx context.Context, id, owner string) (T, error) {
	var zero T

	if _, err := uuid.Parse(id); err != nil {
		return zero, ErrNotFound
	}

	var raw []byte

	err := c.observe("get", func() error {
		if c.scoped {
			return c.pool.QueryRow(ctx,
				`SELECT doc FROM `+c.table+` WHERE id = $1 AND owner_id = $2`,
				id, owner).Scan(&raw)
		}

		return c.pool.QueryRow(ctx,
			`SELECT doc FROM `+c.table+` WHERE id = $1`,
			id).Scan(&raw)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, ErrNotFound
		}

		return zero, err
	}

	return decode[T](raw)
}

func (c *Collection[T]) List(ctx context.Context, owner string) ([]T, error) {
	query := `SELECT doc FROM ` + c.table + ` ORDER BY doc->>'created_at' ASC, id ASC`
	args := []interface{}{}

	if c.scoped {
		query = `SELECT doc FROM ` + c.table + ` WHERE owner_id = $1 ORDER BY doc->>'created_at' ASC, id ASC`
		args = append(args, owner)
	}

	out := make([]T, 0)

	err := c.observe("list", func() error {
		rows, err := c.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var raw []byte

			if err := rows.Scan(&raw); err != nil {
				return err
			}

			doc, err := decode[T](raw)

			if err != nil {
				return err
			}

			out = append(out, doc)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update merges the patch into the stored document. Only keys present
// in the patch overwrite; the caller controls null-vs-absent semantics
// by what it puts into the patch before marshalling.
func (c *Collection[T]) Update(ctx context.Context, id, owner string, patch interface{}) (T, error) {
	var zero T

	if _, err := uuid.Parse(id); err != nil {
		return zero, ErrNotFound
	}

	merged, err := stampPatch(patch)

	if err != nil {
		return zero, err
	}

	var raw []byte

	err = c.observe("update", func() error {
		if c.scoped {
			return c.pool.QueryRow(ctx,
				`UPDATE `+c.table+` SET doc = doc || $2::jsonb WHERE id = $1 AND owner_id = $3 RETURNING doc`,
				id, merged, owner).Scan(&raw)
		}

		return c.pool.QueryRow(ctx,
			`UPDATE `+c.table+` SET doc = doc || $2::jsonb WHERE id = $1 RETURNING doc`,
			id, merged).Scan(&raw)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, ErrNotFound
		}

		return zero, err
	}

	return decode[T](raw)
}

func (c *Collection[T]) Delete(ctx context.Context, id, owner string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	var tag pgconn.CommandTag

	err := c.observe("delete", func() error {
		var err error

		if c.scoped {
			tag, err = c.pool.Exec(ctx,
				`DELETE FROM `+c.table+` WHERE id = $1 AND owner_id = $2`,
				id, owner)
			return err
		}

		tag, err = c.pool.Exec(ctx, `DELETE FROM `+c.table+` WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// stampPatch re-marshals the patch as a flat JSON object and stamps
// updated_at so every merge moves the modification time.
func stampPatch(patch interface{}) ([]byte, error) {
	raw, err := json.Marshal(patch)

	if err != nil {
		return nil, err
	}

	var m map[string]json.RawMessage

	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	if m == nil {
		m = make(map[string]json.RawMessage)
	}

	ts, err := json.Marshal(time.Now().UTC())

	if err != nil {
		return nil, err
	}

	m["updated_at"] = ts

	return json.Marshal(m)
}

func decode[T any](raw []byte) (T, error) {
	var doc T

	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, err
	}

	return doc, nil
}

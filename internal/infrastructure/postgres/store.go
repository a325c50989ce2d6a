package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
)

// missedUpdate explains why a revision-guarded UPDATE matched no row.
func missedUpdate(ctx context.Context, pool *pgxpool.Pool, table, entity, id string, revision int64) error {
	var stored int64
	err := pool.QueryRow(ctx, `SELECT revision FROM `+table+` WHERE id=$1`, id).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entity, id)
	}
	if err != nil {
		return classify(err)
	}
	return apperr.Conflict(entity, id, fmt.Sprintf(
		"%s %s was modified concurrently (revision %d, stored %d)", entity, id, revision, stored))
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func initialRevision(r int64) int64 {
	if r < 1 {
		return 1
	}
	return r
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

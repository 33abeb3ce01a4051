package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/persistence"
)

// querier resolves the ambient transaction when one is in flight, falling
// back to the shared pool.
func querier(ctx context.Context, pool *pgxpool.Pool) persistence.Querier {
	if tx, ok := persistence.TxFromContext(ctx); ok {
		return tx
	}
	return pool
}

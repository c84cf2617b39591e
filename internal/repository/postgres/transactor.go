package postgres

import (
	"context"
	"go-resume-backend/internal/domain"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// TxStarter is implemented by *pgxpool.Pool
type TxStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type transactor struct {
	pool TxStarter
}

// NewTransactor returns a domain.Transactor backed by pgx read-committed transactions
func NewTransactor(pool TxStarter) domain.Transactor {
	return &transactor{pool: pool}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos domain.TxRepositories) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	// Rollback is a no-op after Commit; it must still run if the request was cancelled
	defer tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck

	repos := domain.TxRepositories{
		Resumes: NewResumeRepository(tx),
		Logs:    NewResumeLogRepository(tx),
		Users:   NewUserRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit transaction")
}

package postgres_test

import (
	"context"
	"testing"
	"time"

	"go-resume-backend/internal/domain"
	"go-resume-backend/internal/repository/postgres"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deleteQuery    = `DELETE FROM resumes r\s+WHERE r.id = \$1 AND r.user_id = \$2\s+AND NOT EXISTS`
	ownershipQuery = `SELECT EXISTS\(SELECT 1 FROM resumes WHERE id = \$1 AND user_id = \$2\)`
	lockQuery      = `SELECT apply_status FROM resumes WHERE id = \$1 FOR UPDATE`
	statusExec     = `UPDATE resumes SET apply_status = \$2`
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestResumeRepoDelete(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "deletes unaudited resume",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(deleteQuery).WithArgs(int64(7), "alice").
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
			},
		},
		{
			name: "owned row left in place has logs",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(deleteQuery).WithArgs(int64(7), "alice").
					WillReturnRows(pgxmock.NewRows([]string{"id"}))
				mock.ExpectQuery(ownershipQuery).WithArgs(int64(7), "alice").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			wantErr: domain.ErrResumeHasLogs,
		},
		{
			name: "missing or foreign row is not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(deleteQuery).WithArgs(int64(7), "alice").
					WillReturnRows(pgxmock.NewRows([]string{"id"}))
				mock.ExpectQuery(ownershipQuery).WithArgs(int64(7), "alice").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "foreign key violation means logs were added concurrently",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(deleteQuery).WithArgs(int64(7), "alice").
					WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "resume_logs_resume_id_fkey"})
			},
			wantErr: domain.ErrResumeHasLogs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			err := postgres.NewResumeRepository(mock).Delete(context.Background(), 7, "alice")
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestResumeRepoDeleteDriverError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(deleteQuery).WithArgs(int64(7), "alice").
		WillReturnError(errors.New("connection reset"))

	err := postgres.NewResumeRepository(mock).Delete(context.Background(), 7, "alice")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrResumeHasLogs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResumeRepoGetStatusForUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("locks the row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(lockQuery).WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows([]string{"apply_status"}).AddRow(domain.ApplyStatusInReview))

		status, err := postgres.NewResumeRepository(mock).GetStatusForUpdate(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.ApplyStatusInReview, status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing resume", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(lockQuery).WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows([]string{"apply_status"}))

		_, err := postgres.NewResumeRepository(mock).GetStatusForUpdate(ctx, 3)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResumeRepoUpdate(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("keeps stored status", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`UPDATE resumes SET title = \$3, content = \$4`).
			WithArgs(int64(3), "bob", "New title", "New content", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"apply_status", "created_at"}).AddRow(domain.ApplyStatusPending, created))

		resume := &domain.Resume{ID: 3, OwnerID: "bob", Title: "New title", Content: "New content", ApplyStatus: domain.ApplyStatusAccepted}
		require.NoError(t, postgres.NewResumeRepository(mock).Update(ctx, resume))
		assert.Equal(t, domain.ApplyStatusPending, resume.ApplyStatus)
		assert.Equal(t, created, resume.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`UPDATE resumes SET title = \$3, content = \$4`).
			WithArgs(int64(3), "bob", "t", "c", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"apply_status", "created_at"}))

		err := postgres.NewResumeRepository(mock).Update(ctx, &domain.Resume{ID: 3, OwnerID: "bob", Title: "t", Content: "c"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResumeRepoUpdateStatusMissingRow(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(statusExec).WithArgs(int64(3), domain.ApplyStatusAccepted, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := postgres.NewResumeRepository(mock).UpdateStatus(context.Background(), 3, domain.ApplyStatusAccepted)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResumeLogRepoListNewestFirst(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`FROM resume_logs l\s+LEFT JOIN users u .*ORDER BY l.created_at DESC, l.id DESC`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "resume_id", "recruiter_id", "old_apply_status", "new_apply_status", "reason", "created_at", "nickname",
		}).
			AddRow(int64(2), int64(3), "rec-1", domain.ApplyStatusInReview, domain.ApplyStatusAccepted, "second", now, strPtr("Rita")).
			AddRow(int64(1), int64(3), "rec-1", domain.ApplyStatusPending, domain.ApplyStatusInReview, "first", now.Add(-time.Hour), strPtr("Rita")))

	logs, err := postgres.NewResumeLogRepository(mock).ListByResumeID(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, int64(2), logs[0].ID)
	assert.Equal(t, "Rita", *logs[0].RecruiterNickname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, email, nickname, role, created_at, updated_at FROM users WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "nickname", "role", "created_at", "updated_at"}))

	_, err := postgres.NewUserRepository(mock).GetByID(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor(t *testing.T) {
	ctx := context.Background()
	readCommitted := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

	t.Run("commits when fn succeeds", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBeginTx(readCommitted)
		mock.ExpectQuery(lockQuery).WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows([]string{"apply_status"}).AddRow(domain.ApplyStatusPending))
		mock.ExpectExec(statusExec).WithArgs(int64(1), domain.ApplyStatusAccepted, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := postgres.NewTransactor(mock).WithinTransaction(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
			if _, err := repos.Resumes.GetStatusForUpdate(ctx, 1); err != nil {
				return err
			}
			return repos.Resumes.UpdateStatus(ctx, 1, domain.ApplyStatusAccepted)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBeginTx(readCommitted)
		mock.ExpectExec(statusExec).WithArgs(int64(1), domain.ApplyStatusAccepted, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectRollback()

		failure := errors.New("audit insert failed")
		err := postgres.NewTransactor(mock).WithinTransaction(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
			if err := repos.Resumes.UpdateStatus(ctx, 1, domain.ApplyStatusAccepted); err != nil {
				return err
			}
			return failure
		})
		assert.True(t, errors.Is(err, failure))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure skips fn", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBeginTx(readCommitted).WillReturnError(errors.New("pool closed"))

		called := false
		err := postgres.NewTransactor(mock).WithinTransaction(ctx, func(context.Context, domain.TxRepositories) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func strPtr(s string) *string { return &s }

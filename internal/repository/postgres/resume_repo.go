package postgres

import (
	"context"
	"fmt"
	"go-resume-backend/internal/domain"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type resumeRepo struct {
	db DBTX
}

// NewResumeRepository creates a new resume repository
func NewResumeRepository(db DBTX) domain.ResumeRepository {
	return &resumeRepo{db: db}
}

var resumeSortColumns = map[string]string{
	domain.SortFieldID:          "r.id",
	domain.SortFieldTitle:       "r.title",
	domain.SortFieldContent:     "r.content",
	domain.SortFieldApplyStatus: "r.apply_status",
	domain.SortFieldCreatedAt:   "r.created_at",
	domain.SortFieldUpdatedAt:   "r.updated_at",
}

const resumeColumns = `r.id, r.user_id, r.title, r.content, r.apply_status, r.created_at, r.updated_at, u.nickname`

// Create inserts a new resume
func (r *resumeRepo) Create(ctx context.Context, resume *domain.Resume) error {
	query := `
		INSERT INTO resumes (user_id, title, content, apply_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	now := time.Now()
	resume.CreatedAt = now
	resume.UpdatedAt = now

	err := r.db.QueryRow(ctx, query,
		resume.OwnerID,
		resume.Title,
		resume.Content,
		resume.ApplyStatus,
		resume.CreatedAt,
		resume.UpdatedAt,
	).Scan(&resume.ID)
	return errors.Wrap(err, "insert resume")
}

// List retrieves resumes with the owner's nickname, filtered and sorted
func (r *resumeRepo) List(ctx context.Context, filter domain.ResumeFilter) ([]domain.Resume, error) {
	var conditions []string
	var args []any

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("r.apply_status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	sortColumn, ok := resumeSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "r.created_at"
	}
	sortOrder := "DESC"
	if filter.SortOrder == domain.SortOrderAsc {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM resumes r
		LEFT JOIN users u ON r.user_id = u.id
		%s
		ORDER BY %s %s, r.id %s`, resumeColumns, where, sortColumn, sortOrder, sortOrder)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list resumes")
	}
	defer rows.Close()

	var resumes []domain.Resume
	for rows.Next() {
		var resume domain.Resume
		if err := scanResume(rows, &resume); err != nil {
			return nil, errors.Wrap(err, "scan resume")
		}
		resumes = append(resumes, resume)
	}
	return resumes, errors.Wrap(rows.Err(), "iterate resumes")
}

// GetByID retrieves a resume by ID with the owner's nickname
func (r *resumeRepo) GetByID(ctx context.Context, id int64) (*domain.Resume, error) {
	query := `
		SELECT ` + resumeColumns + `
		FROM resumes r
		LEFT JOIN users u ON r.user_id = u.id
		WHERE r.id = $1`

	var resume domain.Resume
	if err := scanResume(r.db.QueryRow(ctx, query, id), &resume); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "get resume")
	}
	return &resume, nil
}

// Update writes title and content of a resume owned by resume.OwnerID.
// apply_status is never touched here.
func (r *resumeRepo) Update(ctx context.Context, resume *domain.Resume) error {
	query := `
		UPDATE resumes SET title = $3, content = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING apply_status, created_at`

	resume.UpdatedAt = time.Now()
	err := r.db.QueryRow(ctx, query,
		resume.ID, resume.OwnerID, resume.Title, resume.Content, resume.UpdatedAt,
	).Scan(&resume.ApplyStatus, &resume.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return errors.Wrap(err, "update resume")
}

// Delete removes a resume owned by ownerID as long as it has no status logs.
// The NOT EXISTS guard and the RESTRICT foreign key both protect audited rows.
func (r *resumeRepo) Delete(ctx context.Context, id int64, ownerID string) error {
	query := `
		DELETE FROM resumes r
		WHERE r.id = $1 AND r.user_id = $2
		  AND NOT EXISTS (SELECT 1 FROM resume_logs l WHERE l.resume_id = r.id)
		RETURNING r.id`

	var deleted int64
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(&deleted)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return domain.ErrResumeHasLogs
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrap(err, "delete resume")
	}

	var owned bool
	err = r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM resumes WHERE id = $1 AND user_id = $2)`, id, ownerID,
	).Scan(&owned)
	if err != nil {
		return errors.Wrap(err, "check resume ownership")
	}
	if owned {
		return domain.ErrResumeHasLogs
	}
	return domain.ErrNotFound
}

// GetStatusForUpdate reads the current status and locks the row until the
// surrounding transaction ends.
func (r *resumeRepo) GetStatusForUpdate(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.db.QueryRow(ctx, `SELECT apply_status FROM resumes WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return status, errors.Wrap(err, "lock resume status")
}

// UpdateStatus sets apply_status and updated_at
func (r *resumeRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.Exec(ctx, `UPDATE resumes SET apply_status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now())
	if err != nil {
		return errors.Wrap(err, "update resume status")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanResume(row pgx.Row, resume *domain.Resume) error {
	return row.Scan(
		&resume.ID, &resume.OwnerID, &resume.Title, &resume.Content, &resume.ApplyStatus,
		&resume.CreatedAt, &resume.UpdatedAt, &resume.OwnerNickname,
	)
}

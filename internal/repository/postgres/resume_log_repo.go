package postgres

import (
	"context"
	"go-resume-backend/internal/domain"
	"time"

	"github.com/cockroachdb/errors"
)

type resumeLogRepo struct {
	db DBTX
}

// NewResumeLogRepository creates a new status log repository
func NewResumeLogRepository(db DBTX) domain.ResumeLogRepository {
	return &resumeLogRepo{db: db}
}

// Create appends a log entry
func (r *resumeLogRepo) Create(ctx context.Context, log *domain.ResumeLog) error {
	query := `
		INSERT INTO resume_logs (resume_id, recruiter_id, old_apply_status, new_apply_status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	log.CreatedAt = time.Now()
	err := r.db.QueryRow(ctx, query,
		log.ResumeID,
		log.RecruiterID,
		log.OldApplyStatus,
		log.NewApplyStatus,
		log.Reason,
		log.CreatedAt,
	).Scan(&log.ID)
	return errors.Wrap(err, "insert resume log")
}

// ListByResumeID returns the history of a resume, newest first, with recruiter nicknames
func (r *resumeLogRepo) ListByResumeID(ctx context.Context, resumeID int64) ([]domain.ResumeLog, error) {
	query := `
		SELECT
			l.id, l.resume_id, l.recruiter_id, l.old_apply_status, l.new_apply_status,
			l.reason, l.created_at, u.nickname
		FROM resume_logs l
		LEFT JOIN users u ON l.recruiter_id = u.id
		WHERE l.resume_id = $1
		ORDER BY l.created_at DESC, l.id DESC`

	rows, err := r.db.Query(ctx, query, resumeID)
	if err != nil {
		return nil, errors.Wrap(err, "list resume logs")
	}
	defer rows.Close()

	var logs []domain.ResumeLog
	for rows.Next() {
		var l domain.ResumeLog
		if err := rows.Scan(
			&l.ID, &l.ResumeID, &l.RecruiterID, &l.OldApplyStatus, &l.NewApplyStatus,
			&l.Reason, &l.CreatedAt, &l.RecruiterNickname,
		); err != nil {
			return nil, errors.Wrap(err, "scan resume log")
		}
		logs = append(logs, l)
	}
	return logs, errors.Wrap(rows.Err(), "iterate resume logs")
}

// ExistsByResumeID reports whether any status change was recorded for the resume
func (r *resumeLogRepo) ExistsByResumeID(ctx context.Context, resumeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM resume_logs WHERE resume_id = $1)`, resumeID).Scan(&exists)
	return exists, errors.Wrap(err, "check resume logs")
}

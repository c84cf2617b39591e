package domain

import (
	"context"
	"time"
)

// ResumeLog is an immutable audit record of one status change
type ResumeLog struct {
	ID             int64     `json:"id"`
	ResumeID       int64     `json:"resume_id"`
	RecruiterID    string    `json:"recruiter_id"`
	OldApplyStatus string    `json:"old_apply_status"`
	NewApplyStatus string    `json:"new_apply_status"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`

	// Joined data for read responses
	RecruiterNickname *string `json:"nickname,omitempty"`
}

// ResumeLogView is the projection returned by the status history endpoint
type ResumeLogView struct {
	ID             int64     `json:"id"`
	ResumeID       int64     `json:"resume_id"`
	Nickname       string    `json:"nickname"`
	OldApplyStatus string    `json:"old_apply_status"`
	NewApplyStatus string    `json:"new_apply_status"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}

func (l *ResumeLog) View() ResumeLogView {
	v := ResumeLogView{
		ID:             l.ID,
		ResumeID:       l.ResumeID,
		OldApplyStatus: l.OldApplyStatus,
		NewApplyStatus: l.NewApplyStatus,
		Reason:         l.Reason,
		CreatedAt:      l.CreatedAt,
	}
	if l.RecruiterNickname != nil {
		v.Nickname = *l.RecruiterNickname
	}
	return v
}

// ResumeLogRepository is append-only: there is no update or delete.
type ResumeLogRepository interface {
	Create(ctx context.Context, log *ResumeLog) error
	ListByResumeID(ctx context.Context, resumeID int64) ([]ResumeLog, error)
	ExistsByResumeID(ctx context.Context, resumeID int64) (bool, error)
}

// TxRepositories are bound to a single transaction.
type TxRepositories struct {
	Resumes ResumeRepository
	Logs    ResumeLogRepository
	Users   UserRepository
}

// Transactor runs fn inside one transaction. The transaction commits only
// when fn returns nil; any error (or panic) rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

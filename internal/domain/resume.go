package domain

import (
	"context"
	"time"
)

// Sort orders accepted by resume listings
const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Sortable resume fields
const (
	SortFieldID          = "id"
	SortFieldTitle       = "title"
	SortFieldContent     = "content"
	SortFieldApplyStatus = "applyStatus"
	SortFieldCreatedAt   = "createdAt"
	SortFieldUpdatedAt   = "updatedAt"
)

// Resume is a job application record owned by one applicant
type Resume struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"user_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ApplyStatus string    `json:"apply_status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined data for read responses
	OwnerNickname *string `json:"-"`
}

// ResumeView is the projection returned by list and detail endpoints
type ResumeView struct {
	ID          int64     `json:"id"`
	Nickname    string    `json:"nickname"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ApplyStatus string    `json:"apply_status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// View projects a resume for API responses.
func (r *Resume) View() ResumeView {
	v := ResumeView{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		ApplyStatus: r.ApplyStatus,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.OwnerNickname != nil {
		v.Nickname = *r.OwnerNickname
	}
	return v
}

// ResumeQuery carries the raw list parameters from the API
type ResumeQuery struct {
	SortBy string
	Order  string
	Status string
}

// ResumeFilter is the normalized storage-level filter.
// Empty OwnerID means every owner.
type ResumeFilter struct {
	OwnerID   string
	Status    string
	SortBy    string // one of the SortField constants
	SortOrder string // SortOrderAsc or SortOrderDesc
}

// ResumePatch holds the owner-editable fields. Nil means unchanged.
type ResumePatch struct {
	Title   *string
	Content *string
}

func (p ResumePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}

// ResumeRepository defines data access methods for resumes
type ResumeRepository interface {
	Create(ctx context.Context, resume *Resume) error
	List(ctx context.Context, filter ResumeFilter) ([]Resume, error)
	GetByID(ctx context.Context, id int64) (*Resume, error)
	Update(ctx context.Context, resume *Resume) error
	Delete(ctx context.Context, id int64, ownerID string) error

	// Transition support, meant to run inside a transaction
	GetStatusForUpdate(ctx context.Context, id int64) (string, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// ResumeUsecase defines business logic for resumes
type ResumeUsecase interface {
	Create(ctx context.Context, actor Actor, title, content string) (*Resume, error)
	List(ctx context.Context, actor Actor, query ResumeQuery) ([]ResumeView, error)
	GetDetail(ctx context.Context, actor Actor, id int64) (*ResumeView, error)
	Update(ctx context.Context, actor Actor, id int64, patch ResumePatch) (*Resume, error)
	Delete(ctx context.Context, actor Actor, id int64) (int64, error)

	// Recruiter operations
	TransitionStatus(ctx context.Context, actor Actor, id int64, newStatus, reason string) (*ResumeLog, error)
	ListStatusLogs(ctx context.Context, actor Actor, id int64) ([]ResumeLogView, error)
	ExportResumes(ctx context.Context, actor Actor, query ResumeQuery) ([]byte, string, error)
}

// Default apply statuses, used when RESUME_STATUSES is not configured
const (
	ApplyStatusPending  = "PENDING"
	ApplyStatusInReview = "IN_REVIEW"
	ApplyStatusAccepted = "ACCEPTED"
	ApplyStatusRejected = "REJECTED"
)

// StatusSet is the configured list of apply statuses. The first entry is the
// status every new resume starts with.
type StatusSet []string

func DefaultStatusSet() StatusSet {
	return StatusSet{ApplyStatusPending, ApplyStatusInReview, ApplyStatusAccepted, ApplyStatusRejected}
}

func (s StatusSet) Initial() string {
	if len(s) == 0 {
		return ApplyStatusPending
	}
	return s[0]
}

func (s StatusSet) Contains(status string) bool {
	for _, v := range s {
		if v == status {
			return true
		}
	}
	return false
}

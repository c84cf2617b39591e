package usecase

import (
	"context"
	"go-resume-backend/internal/access"
	"go-resume-backend/internal/domain"
	"go-resume-backend/pkg/apperror"
	"go-resume-backend/pkg/logger"
	"go-resume-backend/pkg/validation"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

const (
	msgResumeNotFound    = "Resume not found"
	msgResumeForbidden   = "You do not have access to this resume"
	msgRecruiterOnly     = "Only recruiters can perform this action"
	msgResumeAudited     = "Resume can no longer be changed after a recruiter has updated its status"
	msgResumeNotDeleted  = "Resume cannot be deleted after a recruiter has updated its status"
	msgInvalidStatusList = "Invalid status filter"
)

// sortFieldAliases accepts both the camelCase names used by API clients and
// the snake_case column names.
var sortFieldAliases = map[string]string{
	"id":           domain.SortFieldID,
	"title":        domain.SortFieldTitle,
	"content":      domain.SortFieldContent,
	"applyStatus":  domain.SortFieldApplyStatus,
	"apply_status": domain.SortFieldApplyStatus,
	"createdAt":    domain.SortFieldCreatedAt,
	"created_at":   domain.SortFieldCreatedAt,
	"updatedAt":    domain.SortFieldUpdatedAt,
	"updated_at":   domain.SortFieldUpdatedAt,
}

type resumeUsecase struct {
	resumeRepo domain.ResumeRepository
	logRepo    domain.ResumeLogRepository
	transactor domain.Transactor
	statuses   domain.StatusSet
	validate   *validator.Validate
}

// NewResumeUsecase creates a new resume usecase. The validator gets the
// resume-specific tags registered on it.
func NewResumeUsecase(
	resumeRepo domain.ResumeRepository,
	logRepo domain.ResumeLogRepository,
	transactor domain.Transactor,
	statuses domain.StatusSet,
	validate *validator.Validate,
) domain.ResumeUsecase {
	validation.RegisterValidators(validate, statuses)
	return &resumeUsecase{
		resumeRepo: resumeRepo,
		logRepo:    logRepo,
		transactor: transactor,
		statuses:   statuses,
		validate:   validate,
	}
}

type resumeInput struct {
	Title   string `validate:"required,not_blank"`
	Content string `validate:"required,not_blank"`
}

type transitionInput struct {
	ResumeStatus string `validate:"required,resume_status"`
	Reason       string `validate:"required,not_blank"`
}

// Create stores a new resume owned by the caller with the initial status
func (uc *resumeUsecase) Create(ctx context.Context, actor domain.Actor, title, content string) (*domain.Resume, error) {
	if err := guard(actor, "", access.AnyRole); err != nil {
		return nil, err
	}
	if err := uc.validateStruct(resumeInput{Title: title, Content: content}); err != nil {
		return nil, err
	}

	resume := &domain.Resume{
		OwnerID:     actor.ID,
		Title:       title,
		Content:     content,
		ApplyStatus: uc.statuses.Initial(),
	}
	if err := uc.resumeRepo.Create(ctx, resume); err != nil {
		return nil, apperror.Internal(err)
	}
	return resume, nil
}

// List returns every resume to recruiters and only their own to applicants
func (uc *resumeUsecase) List(ctx context.Context, actor domain.Actor, query domain.ResumeQuery) ([]domain.ResumeView, error) {
	if err := guard(actor, "", access.AnyRole); err != nil {
		return nil, err
	}
	filter, err := uc.buildFilter(actor, query)
	if err != nil {
		return nil, err
	}

	resumes, err := uc.resumeRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	views := make([]domain.ResumeView, 0, len(resumes))
	for i := range resumes {
		views = append(views, resumes[i].View())
	}
	return views, nil
}

// GetDetail returns one resume. Applicants get 403 on resumes they do not own.
func (uc *resumeUsecase) GetDetail(ctx context.Context, actor domain.Actor, id int64) (*domain.ResumeView, error) {
	if err := guard(actor, "", access.AnyRole); err != nil {
		return nil, err
	}
	resume, err := uc.getResume(ctx, uc.resumeRepo, id)
	if err != nil {
		return nil, err
	}
	if err := guard(actor, resume.OwnerID, access.ViewResume); err != nil {
		return nil, apperror.Forbidden(msgResumeForbidden)
	}

	view := resume.View()
	return &view, nil
}

// Update edits title/content of the caller's own resume while it has no status history
func (uc *resumeUsecase) Update(ctx context.Context, actor domain.Actor, id int64, patch domain.ResumePatch) (*domain.Resume, error) {
	if err := guard(actor, "", access.AnyRole); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperror.BadRequest("Provide a title or content to update")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperror.BadRequest("Title: must not be blank")
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, apperror.BadRequest("Content: must not be blank")
	}

	var updated *domain.Resume
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
		// Lock the row so a concurrent status transition cannot slip in between
		// the history check and the write
		if _, err := repos.Resumes.GetStatusForUpdate(ctx, id); err != nil {
			return err
		}
		resume, err := uc.getResume(ctx, repos.Resumes, id)
		if err != nil {
			return err
		}
		if err := guard(actor, resume.OwnerID, access.OwnerOnly); err != nil {
			return apperror.NotFound(msgResumeNotFound)
		}

		audited, err := repos.Logs.ExistsByResumeID(ctx, id)
		if err != nil {
			return err
		}
		if audited {
			return apperror.Conflict(msgResumeAudited)
		}

		if patch.Title != nil {
			resume.Title = *patch.Title
		}
		if patch.Content != nil {
			resume.Content = *patch.Content
		}
		if err := repos.Resumes.Update(ctx, resume); err != nil {
			return err
		}
		updated = resume
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return updated, nil
}

// Delete removes the caller's own resume unless a status change was recorded
func (uc *resumeUsecase) Delete(ctx context.Context, actor domain.Actor, id int64) (int64, error) {
	if err := guard(actor, "", access.AnyRole); err != nil {
		return 0, err
	}

	resume, err := uc.resumeRepo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, apperror.Internal(err)
	}
	if resume == nil || !access.Check(actor, resume.OwnerID, access.OwnerOnly).Permitted() {
		return 0, apperror.New(http.StatusBadRequest, msgResumeNotFound, domain.ErrNotFound)
	}

	switch err := uc.resumeRepo.Delete(ctx, id, actor.ID); {
	case err == nil:
		return id, nil
	case errors.Is(err, domain.ErrNotFound):
		return 0, apperror.New(http.StatusBadRequest, msgResumeNotFound, err)
	case errors.Is(err, domain.ErrResumeHasLogs):
		return 0, apperror.New(http.StatusBadRequest, msgResumeNotDeleted, err)
	default:
		return 0, apperror.Internal(err)
	}
}

// ListStatusLogs returns the status history of a resume, newest first
func (uc *resumeUsecase) ListStatusLogs(ctx context.Context, actor domain.Actor, id int64) ([]domain.ResumeLogView, error) {
	if err := guard(actor, "", access.RecruiterOnly); err != nil {
		return nil, apperror.Forbidden(msgRecruiterOnly)
	}
	if _, err := uc.getResume(ctx, uc.resumeRepo, id); err != nil {
		return nil, err
	}

	logs, err := uc.logRepo.ListByResumeID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	views := make([]domain.ResumeLogView, 0, len(logs))
	for i := range logs {
		views = append(views, logs[i].View())
	}
	return views, nil
}

// TransitionStatus changes the apply status and appends the audit entry in
// one transaction. Either both are stored or neither is.
func (uc *resumeUsecase) TransitionStatus(ctx context.Context, actor domain.Actor, id int64, newStatus, reason string) (*domain.ResumeLog, error) {
	if err := guard(actor, "", access.RecruiterOnly); err != nil {
		return nil, apperror.Forbidden(msgRecruiterOnly)
	}
	if err := uc.validateStruct(transitionInput{ResumeStatus: newStatus, Reason: reason}); err != nil {
		return nil, err
	}

	var entry *domain.ResumeLog
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
		oldStatus, err := repos.Resumes.GetStatusForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := repos.Resumes.UpdateStatus(ctx, id, newStatus); err != nil {
			return err
		}

		recruiter, err := repos.Users.GetByID(ctx, actor.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return errors.Wrapf(domain.ErrRecruiterNotFound, "recruiter %s", actor.ID)
		}
		if err != nil {
			return err
		}

		log := &domain.ResumeLog{
			ResumeID:       id,
			RecruiterID:    recruiter.ID,
			OldApplyStatus: oldStatus,
			NewApplyStatus: newStatus,
			Reason:         reason,
		}
		if err := repos.Logs.Create(ctx, log); err != nil {
			return err
		}
		nickname := recruiter.Nickname
		log.RecruiterNickname = &nickname
		entry = log
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	logger.Log.Info("Resume status changed",
		"resume_id", id,
		"recruiter_id", actor.ID,
		"old_status", entry.OldApplyStatus,
		"new_status", entry.NewApplyStatus,
	)
	return entry, nil
}

func (uc *resumeUsecase) buildFilter(actor domain.Actor, query domain.ResumeQuery) (domain.ResumeFilter, error) {
	filter := domain.ResumeFilter{
		SortBy:    domain.SortFieldCreatedAt,
		SortOrder: domain.SortOrderDesc,
	}
	if field, ok := sortFieldAliases[query.SortBy]; ok {
		filter.SortBy = field
	}
	if query.Order == domain.SortOrderAsc {
		filter.SortOrder = domain.SortOrderAsc
	}
	if query.Status != "" {
		if !uc.statuses.Contains(query.Status) {
			return filter, apperror.BadRequest(msgInvalidStatusList)
		}
		filter.Status = query.Status
	}
	if !actor.IsRecruiter() {
		filter.OwnerID = actor.ID
	}
	return filter, nil
}

func (uc *resumeUsecase) getResume(ctx context.Context, repo domain.ResumeRepository, id int64) (*domain.Resume, error) {
	resume, err := repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound(msgResumeNotFound)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return resume, nil
}

func (uc *resumeUsecase) validateStruct(input any) error {
	if err := uc.validate.Struct(input); err != nil {
		return apperror.New(http.StatusBadRequest, strings.Join(validation.FormatValidationErrors(err), "; "), err)
	}
	return nil
}

// guard turns a Forbid decision into a 403
func guard(actor domain.Actor, ownerID string, rule access.Rule) error {
	if !access.Check(actor, ownerID, rule).Permitted() {
		return apperror.Forbidden(msgResumeForbidden)
	}
	return nil
}

// mapStoreError keeps AppErrors, turns a missing resume into 404 and
// anything else into an opaque 500.
func mapStoreError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.NotFound(msgResumeNotFound)
	}
	return apperror.Internal(err)
}

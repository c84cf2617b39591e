// Package memory is an in-process implementation of the resume repositories.
// Transactions work on a copy of the data that replaces the live copy only on
// commit, and run one at a time.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-resume-backend/internal/domain"
)

type state struct {
	users        map[string]domain.User
	resumes      map[int64]domain.Resume
	logs         []domain.ResumeLog
	nextResumeID int64
	nextLogID    int64
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[string]domain.User, len(s.users)),
		resumes:      make(map[int64]domain.Resume, len(s.resumes)),
		logs:         append([]domain.ResumeLog(nil), s.logs...),
		nextResumeID: s.nextResumeID,
		nextLogID:    s.nextLogID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.resumes {
		c.resumes[k] = v
	}
	return c
}

func (s *state) nickname(userID string) *string {
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	name := u.Nickname
	return &name
}

type Store struct {
	mu    sync.Mutex
	data  *state
	clock func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: &state{
			users:   make(map[string]domain.User),
			resumes: make(map[int64]domain.Resume),
		},
		clock: time.Now,
	}
}

// AddUser provisions a user, standing in for the external auth service.
func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.data.users[u.ID] = u
}

func (s *Store) Resumes() domain.ResumeRepository { return &resumeRepo{v: s.live()} }
func (s *Store) Logs() domain.ResumeLogRepository { return &resumeLogRepo{v: s.live()} }
func (s *Store) Users() domain.UserRepository     { return &userRepo{v: s.live()} }
func (s *Store) Transactor() domain.Transactor    { return &transactor{s: s} }
func (s *Store) live() view                       { return &liveView{s: s} }
func (s *Store) now() time.Time                   { return s.clock() }

// view gives repositories access to a state, locked or already owned by a transaction.
type view interface {
	run(fn func(st *state, now time.Time) error) error
}

type liveView struct{ s *Store }

func (v *liveView) run(fn func(st *state, now time.Time) error) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data, v.s.now())
}

type txView struct {
	st  *state
	now func() time.Time
}

func (v *txView) run(fn func(st *state, now time.Time) error) error {
	return fn(v.st, v.now())
}

type transactor struct{ s *Store }

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos domain.TxRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	work := t.s.data.clone()
	v := &txView{st: work, now: t.s.clock}
	repos := domain.TxRepositories{
		Resumes: &resumeRepo{v: v},
		Logs:    &resumeLogRepo{v: v},
		Users:   &userRepo{v: v},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	t.s.data = work
	return nil
}

type resumeRepo struct{ v view }

func (r *resumeRepo) Create(_ context.Context, resume *domain.Resume) error {
	return r.v.run(func(st *state, now time.Time) error {
		st.nextResumeID++
		resume.ID = st.nextResumeID
		resume.CreatedAt = now
		resume.UpdatedAt = now
		stored := *resume
		stored.OwnerNickname = nil
		st.resumes[resume.ID] = stored
		return nil
	})
}

func (r *resumeRepo) List(_ context.Context, filter domain.ResumeFilter) ([]domain.Resume, error) {
	var out []domain.Resume
	err := r.v.run(func(st *state, _ time.Time) error {
		for _, res := range st.resumes {
			if filter.OwnerID != "" && res.OwnerID != filter.OwnerID {
				continue
			}
			if filter.Status != "" && res.ApplyStatus != filter.Status {
				continue
			}
			res.OwnerNickname = st.nickname(res.OwnerID)
			out = append(out, res)
		}
		return nil
	})
	sortResumes(out, filter.SortBy, filter.SortOrder == domain.SortOrderAsc)
	return out, err
}

func (r *resumeRepo) GetByID(_ context.Context, id int64) (*domain.Resume, error) {
	var out *domain.Resume
	err := r.v.run(func(st *state, _ time.Time) error {
		res, ok := st.resumes[id]
		if !ok {
			return domain.ErrNotFound
		}
		res.OwnerNickname = st.nickname(res.OwnerID)
		out = &res
		return nil
	})
	return out, err
}

func (r *resumeRepo) Update(_ context.Context, resume *domain.Resume) error {
	return r.v.run(func(st *state, now time.Time) error {
		cur, ok := st.resumes[resume.ID]
		if !ok || cur.OwnerID != resume.OwnerID {
			return domain.ErrNotFound
		}
		cur.Title = resume.Title
		cur.Content = resume.Content
		cur.UpdatedAt = now
		st.resumes[cur.ID] = cur

		resume.ApplyStatus = cur.ApplyStatus
		resume.CreatedAt = cur.CreatedAt
		resume.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *resumeRepo) Delete(_ context.Context, id int64, ownerID string) error {
	return r.v.run(func(st *state, _ time.Time) error {
		cur, ok := st.resumes[id]
		if !ok || cur.OwnerID != ownerID {
			return domain.ErrNotFound
		}
		for _, l := range st.logs {
			if l.ResumeID == id {
				return domain.ErrResumeHasLogs
			}
		}
		delete(st.resumes, id)
		return nil
	})
}

func (r *resumeRepo) GetStatusForUpdate(_ context.Context, id int64) (string, error) {
	var status string
	err := r.v.run(func(st *state, _ time.Time) error {
		res, ok := st.resumes[id]
		if !ok {
			return domain.ErrNotFound
		}
		status = res.ApplyStatus
		return nil
	})
	return status, err
}

func (r *resumeRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	return r.v.run(func(st *state, now time.Time) error {
		res, ok := st.resumes[id]
		if !ok {
			return domain.ErrNotFound
		}
		res.ApplyStatus = status
		res.UpdatedAt = now
		st.resumes[id] = res
		return nil
	})
}

type resumeLogRepo struct{ v view }

func (r *resumeLogRepo) Create(_ context.Context, log *domain.ResumeLog) error {
	return r.v.run(func(st *state, now time.Time) error {
		st.nextLogID++
		log.ID = st.nextLogID
		log.CreatedAt = now
		stored := *log
		stored.RecruiterNickname = nil
		st.logs = append(st.logs, stored)
		return nil
	})
}

func (r *resumeLogRepo) ListByResumeID(_ context.Context, resumeID int64) ([]domain.ResumeLog, error) {
	var out []domain.ResumeLog
	err := r.v.run(func(st *state, _ time.Time) error {
		for _, l := range st.logs {
			if l.ResumeID == resumeID {
				l.RecruiterNickname = st.nickname(l.RecruiterID)
				out = append(out, l)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r *resumeLogRepo) ExistsByResumeID(_ context.Context, resumeID int64) (bool, error) {
	var exists bool
	err := r.v.run(func(st *state, _ time.Time) error {
		for _, l := range st.logs {
			if l.ResumeID == resumeID {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

type userRepo struct{ v view }

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.v.run(func(st *state, _ time.Time) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func sortResumes(resumes []domain.Resume, field string, asc bool) {
	cmp := func(a, b domain.Resume) int {
		switch field {
		case domain.SortFieldID:
			return 0
		case domain.SortFieldTitle:
			return strings.Compare(a.Title, b.Title)
		case domain.SortFieldContent:
			return strings.Compare(a.Content, b.Content)
		case domain.SortFieldApplyStatus:
			return strings.Compare(a.ApplyStatus, b.ApplyStatus)
		case domain.SortFieldUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(resumes, func(i, j int) bool {
		c := cmp(resumes[i], resumes[j])
		if c == 0 {
			c = int(resumes[i].ID - resumes[j].ID)
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
}

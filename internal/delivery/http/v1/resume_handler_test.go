package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-resume-backend/config"
	v1 "go-resume-backend/internal/delivery/http/v1"
	"go-resume-backend/internal/domain"
	"go-resume-backend/internal/repository/memory"
	"go-resume-backend/internal/usecase"
	"go-resume-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	store.AddUser(domain.User{ID: "app-1", Nickname: "Alice", Role: domain.RoleApplicant})
	store.AddUser(domain.User{ID: "app-2", Nickname: "Bob", Role: domain.RoleApplicant})
	store.AddUser(domain.User{ID: "rec-1", Nickname: "Rita", Role: domain.RoleRecruiter})

	cfg := &config.Config{FrontendURL: "http://localhost:3000"}
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:   usecase.NewAuthUsecase(store.Users()),
		ResumeUC: usecase.NewResumeUsecase(store.Resumes(), store.Logs(), store.Transactor(), domain.DefaultStatusSet(), validator.New()),
		Verifier: auth.NewVerifier(testSecret, nil),
		Config:   cfg,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) token(userID string) string {
	s.t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(userID))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *testServer) createResume(userID, title string) domain.Resume {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/resumes", userID, map[string]string{"title": title, "content": "About " + title})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resume domain.Resume
	decodeEnvelope(s.t, w, &resume)
	return resume
}

func TestResumeLifecycle(t *testing.T) {
	s := newTestServer(t)
	resume := s.createResume("app-1", "Go developer")
	assert.Equal(t, domain.ApplyStatusPending, resume.ApplyStatus)
	assert.Equal(t, "app-1", resume.OwnerID)

	// Detail is a one-element array carrying the owner's nickname
	w := s.do(http.MethodGet, "/v1/resumes/"+itoa(resume.ID), "app-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail []domain.ResumeView
	decodeEnvelope(t, w, &detail)
	require.Len(t, detail, 1)
	assert.Equal(t, "Alice", detail[0].Nickname)

	w = s.do(http.MethodPatch, "/v1/resumes/"+itoa(resume.ID)+"/logs", "rec-1", map[string]string{
		"resumeStatus": domain.ApplyStatusAccepted,
		"reason":       "strong portfolio",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entry domain.ResumeLog
	decodeEnvelope(t, w, &entry)
	assert.Equal(t, domain.ApplyStatusPending, entry.OldApplyStatus)
	assert.Equal(t, domain.ApplyStatusAccepted, entry.NewApplyStatus)
	require.NotNil(t, entry.RecruiterNickname)
	assert.Equal(t, "Rita", *entry.RecruiterNickname)

	w = s.do(http.MethodGet, "/v1/resumes/"+itoa(resume.ID)+"/status", "rec-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []domain.ResumeLogView
	decodeEnvelope(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "Rita", history[0].Nickname)
	assert.Equal(t, "strong portfolio", history[0].Reason)

	w = s.do(http.MethodPatch, "/v1/resumes/"+itoa(resume.ID), "app-1", map[string]string{"title": "Renamed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodDelete, "/v1/resumes/"+itoa(resume.ID), "app-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndDeleteBeforeReview(t *testing.T) {
	s := newTestServer(t)
	resume := s.createResume("app-1", "Draft")

	w := s.do(http.MethodPatch, "/v1/resumes/"+itoa(resume.ID), "app-1", map[string]string{"content": "Rewritten"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated domain.Resume
	decodeEnvelope(t, w, &updated)
	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, "Rewritten", updated.Content)
	assert.Equal(t, domain.ApplyStatusPending, updated.ApplyStatus)

	w = s.do(http.MethodPatch, "/v1/resumes/"+itoa(resume.ID), "app-2", map[string]string{"content": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/v1/resumes/"+itoa(resume.ID), "app-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deletedID int64
	decodeEnvelope(t, w, &deletedID)
	assert.Equal(t, resume.ID, deletedID)

	w = s.do(http.MethodGet, "/v1/resumes/"+itoa(resume.ID), "app-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListVisibilityAndSorting(t *testing.T) {
	s := newTestServer(t)
	s.createResume("app-1", "b")
	s.createResume("app-1", "a")
	s.createResume("app-2", "c")

	titles := func(w *httptest.ResponseRecorder) []string {
		var views []domain.ResumeView
		decodeEnvelope(t, w, &views)
		out := []string{}
		for _, v := range views {
			out = append(out, v.Title)
		}
		return out
	}

	w := s.do(http.MethodGet, "/v1/resumes?sortBy=title&order=asc", "app-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a", "b"}, titles(w))

	w = s.do(http.MethodGet, "/v1/resumes?sortBy=title&order=asc", "rec-1", nil)
	assert.Equal(t, []string{"a", "b", "c"}, titles(w))

	w = s.do(http.MethodGet, "/v1/resumes?sortBy=title&order=bogus", "rec-1", nil)
	assert.Equal(t, []string{"c", "b", "a"}, titles(w))

	w = s.do(http.MethodGet, "/v1/resumes?status=HIRED", "rec-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccessControl(t *testing.T) {
	s := newTestServer(t)
	resume := s.createResume("app-1", "Private")
	path := "/v1/resumes/" + itoa(resume.ID)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/resumes", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, "app-2", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, "rec-1", nil).Code)

	w := s.do(http.MethodPatch, path+"/logs", "app-1", map[string]string{"resumeStatus": domain.ApplyStatusAccepted, "reason": "me"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path+"/status", "app-1", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/v1/resumes/export", "app-1", nil).Code)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	resume := s.createResume("app-1", "Valid")

	w := s.do(http.MethodPost, "/v1/resumes", "app-1", map[string]string{"title": "No content"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)

	w = s.do(http.MethodPatch, "/v1/resumes/"+itoa(resume.ID), "app-1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/v1/resumes/"+itoa(resume.ID)+"/logs", "rec-1", map[string]string{"resumeStatus": "HIRED", "reason": "ok"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/v1/resumes/"+itoa(resume.ID)+"/logs", "rec-1", map[string]string{"resumeStatus": domain.ApplyStatusAccepted})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/resumes/abc", "app-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/v1/resumes/999/logs", "rec-1", map[string]string{
		"resumeStatus": domain.ApplyStatusAccepted,
		"reason":       "ok",
	}).Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	s.createResume("app-1", "Exported")

	w := s.do(http.MethodGet, "/v1/resumes/export?sortBy=title&order=asc", "rec-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"resumes_")
	assert.Equal(t, []byte("PK"), w.Body.Bytes()[:2])
}

func TestHealthAndMe(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/health", "", nil).Code)

	w := s.do(http.MethodGet, "/v1/auth/me", "rec-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me domain.User
	decodeEnvelope(t, w, &me)
	assert.Equal(t, domain.RoleRecruiter, me.Role)
	assert.Equal(t, "Rita", me.Nickname)
}

type fakeRevoker struct {
	tokenID string
	ttl     time.Duration
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	f.tokenID = tokenID
	f.ttl = ttl
	return nil
}

func TestLogoutRevokesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	revoker := &fakeRevoker{}

	r := gin.New()
	protected := r.Group("/v1", func(c *gin.Context) {
		c.Set(string(domain.KeyUserID), "app-1")
		c.Set(string(domain.KeyUserRole), domain.RoleApplicant)
		c.Set(string(domain.KeyTokenID), "jti-1")
		c.Set(string(domain.KeyTokenExp), time.Now().Add(30*time.Minute))
	})
	v1.NewAuthHandler(protected, nil, revoker, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jti-1", revoker.tokenID)
	assert.InDelta(t, (30 * time.Minute).Seconds(), revoker.ttl.Seconds(), 5)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "access_token=;")
}

package v1

import (
	"fmt"
	"go-resume-backend/internal/access"
	"go-resume-backend/internal/delivery/http/middleware"
	"go-resume-backend/internal/delivery/http/response"
	"go-resume-backend/internal/domain"
	"go-resume-backend/pkg/apperror"
	"go-resume-backend/pkg/validation"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResumeHandler struct {
	resumeUC domain.ResumeUsecase
}

func NewResumeHandler(protected *gin.RouterGroup, resumeUC domain.ResumeUsecase) {
	handler := &ResumeHandler{resumeUC: resumeUC}
	recruiterOnly := middleware.RequireRole(access.RecruiterOnly)

	resumes := protected.Group("/resumes")
	{
		resumes.POST("", middleware.ValidateJSON(validation.ResumeCreateSchema), handler.Create)
		resumes.GET("", handler.List)
		resumes.GET("/export", recruiterOnly, handler.Export)
		resumes.GET("/:id", handler.GetDetail)
		resumes.PATCH("/:id", middleware.ValidateJSON(validation.ResumeUpdateSchema), handler.Update)
		resumes.DELETE("/:id", handler.Delete)

		// Recruiter review
		resumes.PATCH("/:id/logs", recruiterOnly, middleware.ValidateJSON(validation.ResumeLogSchema), handler.TransitionStatus)
		resumes.GET("/:id/status", recruiterOnly, handler.ListStatusLogs)
	}
}

type CreateResumeRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type UpdateResumeRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type TransitionStatusRequest struct {
	ResumeStatus string `json:"resumeStatus" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
}

func parseResumeID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.BadRequest("Invalid resume ID")
	}
	return id, nil
}

func resumeQuery(c *gin.Context) domain.ResumeQuery {
	return domain.ResumeQuery{
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
		Status: c.Query("status"),
	}
}

// Create godoc
// @Summary      Create a resume
// @Description  Create a resume owned by the caller. Its status starts at the first configured status.
// @Tags         resumes
// @Accept       json
// @Produce      json
// @Param        resume  body      CreateResumeRequest  true  "Resume JSON"
// @Success      200     {object}  response.Response{data=domain.Resume}
// @Failure      400     {object}  response.Response
// @Failure      401     {object}  response.Response
// @Router       /resumes [post]
// @Security     BearerAuth
func (h *ResumeHandler) Create(c *gin.Context) {
	var req CreateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	resume, err := h.resumeUC.Create(c.Request.Context(), middleware.CurrentActor(c), req.Title, req.Content)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Resume created", resume)
}

// List godoc
// @Summary      List resumes
// @Description  Recruiters see every resume, applicants only their own
// @Tags         resumes
// @Produce      json
// @Param        sortBy  query     string  false  "Sort field"  Enums(id, title, content, applyStatus, createdAt, updatedAt)
// @Param        order   query     string  false  "Sort order, anything but asc sorts descending"
// @Param        status  query     string  false  "Apply status filter"
// @Success      200     {object}  response.Response{data=[]domain.ResumeView}
// @Failure      400     {object}  response.Response
// @Failure      401     {object}  response.Response
// @Router       /resumes [get]
// @Security     BearerAuth
func (h *ResumeHandler) List(c *gin.Context) {
	resumes, err := h.resumeUC.List(c.Request.Context(), middleware.CurrentActor(c), resumeQuery(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Resumes retrieved", resumes)
}

// GetDetail godoc
// @Summary      Get a resume
// @Description  Returns the resume wrapped in a one-element array
// @Tags         resumes
// @Produce      json
// @Param        id   path      int  true  "Resume ID"
// @Success      200  {object}  response.Response{data=[]domain.ResumeView}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /resumes/{id} [get]
// @Security     BearerAuth
func (h *ResumeHandler) GetDetail(c *gin.Context) {
	id, err := parseResumeID(c)
	if err != nil {
		c.Error(err)
		return
	}

	resume, err := h.resumeUC.GetDetail(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Resume retrieved", []domain.ResumeView{*resume})
}

// Update godoc
// @Summary      Update a resume
// @Description  Edit title or content of an own resume. Not allowed once a recruiter changed its status.
// @Tags         resumes
// @Accept       json
// @Produce      json
// @Param        id      path      int                  true  "Resume ID"
// @Param        resume  body      UpdateResumeRequest  true  "Fields to change"
// @Success      200     {object}  response.Response{data=domain.Resume}
// @Failure      400     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Failure      409     {object}  response.Response
// @Router       /resumes/{id} [patch]
// @Security     BearerAuth
func (h *ResumeHandler) Update(c *gin.Context) {
	id, err := parseResumeID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req UpdateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	resume, err := h.resumeUC.Update(c.Request.Context(), middleware.CurrentActor(c), id, domain.ResumePatch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Resume updated", resume)
}

// Delete godoc
// @Summary      Delete a resume
// @Description  Delete an own resume that has no status history
// @Tags         resumes
// @Produce      json
// @Param        id   path      int  true  "Resume ID"
// @Success      200  {object}  response.Response{data=int64}
// @Failure      400  {object}  response.Response
// @Router       /resumes/{id} [delete]
// @Security     BearerAuth
func (h *ResumeHandler) Delete(c *gin.Context) {
	id, err := parseResumeID(c)
	if err != nil {
		c.Error(err)
		return
	}

	deletedID, err := h.resumeUC.Delete(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Resume deleted", deletedID)
}

// TransitionStatus godoc
// @Summary      Change resume status
// @Description  Set a new apply status and record the change with a reason (Recruiter only)
// @Tags         resumes
// @Accept       json
// @Produce      json
// @Param        id       path      int                      true  "Resume ID"
// @Param        request  body      TransitionStatusRequest  true  "New status and reason"
// @Success      200      {object}  response.Response{data=domain.ResumeLog}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /resumes/{id}/logs [patch]
// @Security     BearerAuth
func (h *ResumeHandler) TransitionStatus(c *gin.Context) {
	id, err := parseResumeID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	entry, err := h.resumeUC.TransitionStatus(c.Request.Context(), middleware.CurrentActor(c), id, req.ResumeStatus, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Resume status updated", entry)
}

// ListStatusLogs godoc
// @Summary      Resume status history
// @Description  Status changes of a resume, newest first (Recruiter only)
// @Tags         resumes
// @Produce      json
// @Param        id   path      int  true  "Resume ID"
// @Success      200  {object}  response.Response{data=[]domain.ResumeLogView}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /resumes/{id}/status [get]
// @Security     BearerAuth
func (h *ResumeHandler) ListStatusLogs(c *gin.Context) {
	id, err := parseResumeID(c)
	if err != nil {
		c.Error(err)
		return
	}

	logs, err := h.resumeUC.ListStatusLogs(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Resume status history retrieved", logs)
}

// Export godoc
// @Summary      Export resumes
// @Description  Download the resume listing as an Excel workbook (Recruiter only)
// @Tags         resumes
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        sortBy  query     string  false  "Sort field"
// @Param        order   query     string  false  "Sort order"
// @Param        status  query     string  false  "Apply status filter"
// @Success      200     {file}    binary
// @Failure      403     {object}  response.Response
// @Router       /resumes/export [get]
// @Security     BearerAuth
func (h *ResumeHandler) Export(c *gin.Context) {
	data, filename, err := h.resumeUC.ExportResumes(c.Request.Context(), middleware.CurrentActor(c), resumeQuery(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/careerfair/resumebank/api/http/presenter"
	"github.com/careerfair/resumebank/pkg/resume"
)

// ResumesHandler serves the resume ingestion, search, retrieval,
// update and delete endpoints.
type ResumesHandler struct {
	ingest resume.IngestUseCase
	svc    resume.UseCase
	// Limit bytes read from a multipart part into memory.
	maxBytes int64
}

func NewResumesHandler(ingest resume.IngestUseCase, svc resume.UseCase, maxBytes int64) *ResumesHandler {
	if maxBytes <= 0 {
		maxBytes = resume.DefaultMaxUploadBytes
	}
	return &ResumesHandler{ingest: ingest, svc: svc, maxBytes: maxBytes}
}

func principalFromCtx(c *fiber.Ctx) resume.Principal {
	var p resume.Principal
	if idStr, _ := c.Locals("userId").(string); idStr != "" {
		p.ID, _ = uuid.Parse(idStr)
	}
	p.IsAdmin, _ = c.Locals("isAdmin").(bool)
	return p
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// Upload ingests a PDF resume with optional caller-supplied metadata.
// @Summary Upload a resume
// @Description Accepts a PDF, extracts metadata best-effort and stores file and record.
// @Tags        resumes
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "resume PDF"
// @Param       name formData string false "person name"
// @Param       major formData string false "major"
// @Param       graduationYear formData string false "graduation year"
// @Param       companies formData string false "comma-separated company names"
// @Param       keywords formData string false "comma-separated keywords"
// @Security    BearerAuth
// @Success     201 {object} resume.UploadResult
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     401 {object} presenter.ErrorResponse
// @Failure     500 {object} presenter.ErrorResponse
// @Router      /resumes [post]
func (h *ResumesHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return presenter.Error(c, http.StatusBadRequest, "file is required (pdf)")
	}
	file, err := fh.Open()
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()
	// Read one byte past the ceiling so the pipeline can reject
	// oversized uploads without the handler buffering them fully.
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "failed to read uploaded file")
	}

	result, err := h.ingest.Ingest(c.Context(), resume.UploadInput{
		Filename:       fh.Filename,
		Data:           data,
		UploadedBy:     principalFromCtx(c).ID,
		Name:           c.FormValue("name"),
		Major:          c.FormValue("major"),
		GraduationYear: c.FormValue("graduationYear"),
		Companies:      splitCSV(c.FormValue("companies")),
		Keywords:       splitCSV(c.FormValue("keywords")),
	})
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.JSON(c, http.StatusCreated, result)
}

// Search lists active resumes matching the given filters.
// @Summary Search resumes
// @Tags    resumes
// @Produce json
// @Param   query query string false "free-text match across name, major and graduation year"
// @Param   name query string false "name substring"
// @Param   major query string false "comma-separated majors"
// @Param   graduationYear query string false "comma-separated graduation years"
// @Param   company query string false "comma-separated company names"
// @Param   keyword query string false "comma-separated keywords"
// @Success 200 {object} map[string]any
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /resumes/search [get]
func (h *ResumesHandler) Search(c *fiber.Ctx) error {
	results, err := h.svc.Search(c.Context(), resume.SearchFilters{
		Query:           c.Query("query"),
		Name:            c.Query("name"),
		Majors:          splitCSV(c.Query("major")),
		GraduationYears: splitCSV(c.Query("graduationYear")),
		Companies:       splitCSV(c.Query("company")),
		Keywords:        splitCSV(c.Query("keyword")),
	})
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"count": len(results),
		"data":  results,
	})
}

// Filters returns the distinct filterable values among active resumes.
// @Summary Search filter values
// @Tags    resumes
// @Produce json
// @Success 200 {object} resume.FilterValues
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /resumes/filters [get]
func (h *ResumesHandler) Filters(c *fiber.Ctx) error {
	fv, err := h.svc.FilterValues(c.Context())
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fv)
}

// Get returns the detail view of an active resume.
// @Summary Get resume
// @Tags    resumes
// @Produce json
// @Param   id path string true "resume id (UUID)"
// @Success 200 {object} resume.Detail
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /resumes/{id} [get]
func (h *ResumesHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, detail)
}

// File streams the stored PDF of an active resume.
// @Summary Download resume file
// @Tags    resumes
// @Produce application/pdf
// @Param   id path string true "resume id (UUID)"
// @Success 200 {file} file
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /resumes/{id}/file [get]
func (h *ResumesHandler) File(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	fs, err := h.svc.StreamFile(c.Context(), id)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+fs.Filename+`"`)
	if fs.Size > 0 {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(fs.Size, 10))
		return c.SendStream(fs.Reader, int(fs.Size))
	}
	return c.SendStream(fs.Reader)
}

type updateResumeRequest struct {
	Name           *string `json:"name"`
	Major          *string `json:"major"`
	GraduationYear *string `json:"graduationYear"`
	Companies      *string `json:"companies"` // comma-separated
	Keywords       *string `json:"keywords"`  // comma-separated
}

// Update mutates resume metadata in place. Owner or admin only.
// @Summary Update resume
// @Tags    resumes
// @Accept  json
// @Produce json
// @Param   id path string true "resume id (UUID)"
// @Param   input body updateResumeRequest true "fields to change"
// @Security BearerAuth
// @Success 200 {object} resume.Detail
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /resumes/{id} [put]
func (h *ResumesHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	var req updateResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	in := resume.UpdateInput{
		Name:           req.Name,
		Major:          req.Major,
		GraduationYear: req.GraduationYear,
	}
	if req.Companies != nil {
		list := splitCSV(*req.Companies)
		in.Companies = &list
	}
	if req.Keywords != nil {
		list := splitCSV(*req.Keywords)
		in.Keywords = &list
	}
	detail, err := h.svc.Update(c.Context(), principalFromCtx(c), id, in)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, detail)
}

// Delete tombstones a resume. Owner or admin only.
// @Summary Delete resume
// @Tags    resumes
// @Produce json
// @Param   id path string true "resume id (UUID)"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /resumes/{id} [delete]
func (h *ResumesHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Context(), principalFromCtx(c), id); err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"deleted": id.String()})
}

// DeleteAll tombstones every active resume. Admin only.
// @Summary Delete all resumes
// @Tags    resumes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /resumes/all/delete [delete]
func (h *ResumesHandler) DeleteAll(c *fiber.Ctx) error {
	count, err := h.svc.DeleteAll(c.Context(), principalFromCtx(c))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"deletedCount": count})
}

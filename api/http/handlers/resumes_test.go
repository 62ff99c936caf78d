package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerfair/resumebank/pkg/resume"
)

// stubService implements both the ingest and the read/write use cases
// over an in-memory map, enough to exercise the HTTP layer.
type stubService struct {
	files     map[uuid.UUID][]byte
	records   map[uuid.UUID]resume.Detail
	lastInput resume.UploadInput
	lastActor resume.Principal
	ingestErr error
	svcErr    error
}

func newStubService() *stubService {
	return &stubService{
		files:   make(map[uuid.UUID][]byte),
		records: make(map[uuid.UUID]resume.Detail),
	}
}

func (s *stubService) Ingest(_ context.Context, in resume.UploadInput) (resume.UploadResult, error) {
	if s.ingestErr != nil {
		return resume.UploadResult{}, s.ingestErr
	}
	s.lastInput = in
	id := uuid.New()
	s.files[id] = in.Data
	d := resume.Detail{
		Summary: resume.Summary{
			ID:             id,
			Name:           in.Name,
			Major:          in.Major,
			GraduationYear: in.GraduationYear,
			FileURL:        resume.FileURL(id),
			Companies:      in.Companies,
			Keywords:       in.Keywords,
		},
		UploadedBy: in.UploadedBy,
	}
	s.records[id] = d
	return resume.UploadResult{Summary: d.Summary}, nil
}

func (s *stubService) Search(_ context.Context, _ resume.SearchFilters) ([]resume.Summary, error) {
	if s.svcErr != nil {
		return nil, s.svcErr
	}
	out := []resume.Summary{}
	for _, d := range s.records {
		out = append(out, d.Summary)
	}
	return out, nil
}

func (s *stubService) Get(_ context.Context, id uuid.UUID) (resume.Detail, error) {
	if s.svcErr != nil {
		return resume.Detail{}, s.svcErr
	}
	d, ok := s.records[id]
	if !ok {
		return resume.Detail{}, &resume.NotFoundError{Msg: "resume not found"}
	}
	return d, nil
}

func (s *stubService) FilterValues(_ context.Context) (resume.FilterValues, error) {
	return resume.FilterValues{Majors: []string{"CS"}}, s.svcErr
}

func (s *stubService) StreamFile(_ context.Context, id uuid.UUID) (resume.FileStream, error) {
	data, ok := s.files[id]
	if !ok {
		return resume.FileStream{}, &resume.NotFoundError{Msg: "resume not found"}
	}
	return resume.FileStream{
		Reader:   io.NopCloser(bytes.NewReader(data)),
		Size:     int64(len(data)),
		Filename: "resume.pdf",
	}, nil
}

func (s *stubService) Update(_ context.Context, actor resume.Principal, id uuid.UUID, in resume.UpdateInput) (resume.Detail, error) {
	if s.svcErr != nil {
		return resume.Detail{}, s.svcErr
	}
	s.lastActor = actor
	d, ok := s.records[id]
	if !ok {
		return resume.Detail{}, &resume.NotFoundError{Msg: "resume not found"}
	}
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.Companies != nil {
		d.Companies = *in.Companies
	}
	s.records[id] = d
	return d, nil
}

func (s *stubService) Delete(_ context.Context, actor resume.Principal, id uuid.UUID) error {
	if s.svcErr != nil {
		return s.svcErr
	}
	s.lastActor = actor
	if _, ok := s.records[id]; !ok {
		return &resume.NotFoundError{Msg: "resume not found"}
	}
	delete(s.records, id)
	return nil
}

func (s *stubService) DeleteAll(_ context.Context, actor resume.Principal) (int64, error) {
	s.lastActor = actor
	if !actor.IsAdmin {
		return 0, &resume.PermissionError{Msg: "admin role required"}
	}
	n := int64(len(s.records))
	s.records = make(map[uuid.UUID]resume.Detail)
	return n, nil
}

// testApp mounts the resume routes with a stub auth middleware that
// injects the given principal, mirroring the production wiring.
func testApp(svc *stubService, userID uuid.UUID, isAdmin bool) *fiber.App {
	app := fiber.New()
	h := NewResumesHandler(svc, svc, 0)
	authMW := func(c *fiber.Ctx) error {
		c.Locals("userId", userID.String())
		c.Locals("isAdmin", isAdmin)
		return c.Next()
	}

	rg := app.Group("/api/v1/resumes")
	rg.Get("/search", h.Search)
	rg.Get("/filters", h.Filters)
	rg.Get("/:id/file", h.File)
	rg.Post("/", authMW, h.Upload)
	rg.Put("/:id", authMW, h.Update)
	rg.Delete("/all/delete", authMW, h.DeleteAll)
	rg.Delete("/:id", authMW, h.Delete)
	rg.Get("/:id", h.Get)
	return app
}

func multipartUpload(t *testing.T, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestUploadThenDownloadPreservesBytes(t *testing.T) {
	svc := newStubService()
	app := testApp(svc, uuid.New(), false)
	original := []byte("%PDF-1.7 exact bytes in, exact bytes out")

	resp, err := app.Test(multipartUpload(t, nil, "cv.pdf", original))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result resume.UploadResult
	decodeJSON(t, resp, &result)
	require.NotEqual(t, uuid.Nil, result.ID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, result.FileURL, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `inline; filename="resume.pdf"`)

	got, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestUploadPassesFormFieldsThrough(t *testing.T) {
	svc := newStubService()
	uploader := uuid.New()
	app := testApp(svc, uploader, false)

	resp, err := app.Test(multipartUpload(t, map[string]string{
		"name":           "Jane Doe",
		"major":          "CS",
		"graduationYear": "2025",
		"companies":      "Google,IBM",
		"keywords":       "Go,SQL",
	}, "cv.pdf", []byte("%PDF")))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	in := svc.lastInput
	assert.Equal(t, "cv.pdf", in.Filename)
	assert.Equal(t, uploader, in.UploadedBy)
	assert.Equal(t, "Jane Doe", in.Name)
	assert.Equal(t, []string{"Google", "IBM"}, in.Companies)
	assert.Equal(t, []string{"Go", "SQL"}, in.Keywords)
}

func TestUploadWithoutFile(t *testing.T) {
	app := testApp(newStubService(), uuid.New(), false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadValidationErrorIs400(t *testing.T) {
	svc := newStubService()
	svc.ingestErr = &resume.ValidationError{Msg: "file is not a PDF"}
	app := testApp(svc, uuid.New(), false)

	resp, err := app.Test(multipartUpload(t, nil, "cv.gif", []byte("GIF89a")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "file is not a PDF", body["message"])
}

func TestGetInvalidID(t *testing.T) {
	app := testApp(newStubService(), uuid.New(), false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/not-a-uuid", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUnknownIDIs404(t *testing.T) {
	app := testApp(newStubService(), uuid.New(), false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+uuid.NewString(), nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchResponseShape(t *testing.T) {
	svc := newStubService()
	app := testApp(svc, uuid.New(), false)
	_, err := svc.Ingest(context.Background(), resume.UploadInput{Name: "Jane"})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/search?name=jane", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count int              `json:"count"`
		Data  []resume.Summary `json:"data"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Jane", body.Data[0].Name)
}

func TestUpdateForwardsPrincipal(t *testing.T) {
	svc := newStubService()
	admin := uuid.New()
	app := testApp(svc, admin, true)
	res, err := svc.Ingest(context.Background(), resume.UploadInput{Name: "Jane"})
	require.NoError(t, err)

	payload := []byte(`{"name":"Renamed","companies":"Google, IBM"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/resumes/"+res.ID.String(), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var d resume.Detail
	decodeJSON(t, resp, &d)
	assert.Equal(t, "Renamed", d.Name)
	assert.Equal(t, []string{"Google", " IBM"}, d.Companies)
	assert.Equal(t, admin, svc.lastActor.ID)
	assert.True(t, svc.lastActor.IsAdmin)
}

func TestDeleteAllForbiddenForNonAdmin(t *testing.T) {
	svc := newStubService()
	app := testApp(svc, uuid.New(), false)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/all/delete", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeleteAllRouteNotShadowedByID(t *testing.T) {
	svc := newStubService()
	app := testApp(svc, uuid.New(), true)
	_, err := svc.Ingest(context.Background(), resume.UploadInput{Name: "Jane"})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/all/delete", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, float64(1), body["deletedCount"])
	assert.Empty(t, svc.records)
}

func TestStorageFailureIs500(t *testing.T) {
	svc := newStubService()
	svc.svcErr = &resume.DatabaseError{Stage: "search"}
	app := testApp(svc, uuid.New(), false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/search", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

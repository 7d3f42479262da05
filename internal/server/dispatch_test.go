package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mawps/profile-service/internal/ocr"
	"github.com/mawps/profile-service/internal/repo"
	"github.com/mawps/profile-service/internal/textract"
	"github.com/mawps/profile-service/internal/types"
)

const testSecret = "test-secret"

// memStore is an in-memory repo.Store for routing tests.
type memStore struct {
	composite map[string]types.Document
	simple    map[string]types.Document
}

func newMemStore() *memStore {
	return &memStore{
		composite: make(map[string]types.Document),
		simple:    make(map[string]types.Document),
	}
}

func (m *memStore) GetComposite(_ context.Context, pk, sk string) (types.Document, error) {
	return m.composite[pk+"|"+sk], nil
}

func (m *memStore) PutComposite(_ context.Context, pk, sk string, doc types.Document) error {
	m.composite[pk+"|"+sk] = doc
	return nil
}

func (m *memStore) GetSimple(_ context.Context, userID string) (types.Document, error) {
	return m.simple[userID], nil
}

func (m *memStore) PutSimple(_ context.Context, userID string, doc types.Document) error {
	m.simple[userID] = doc
	return nil
}

func (m *memStore) ScanProfiles(_ context.Context) ([]types.Document, error) {
	var docs []types.Document
	for _, doc := range m.composite {
		docs = append(docs, doc)
	}
	for _, doc := range m.simple {
		docs = append(docs, doc)
	}
	return docs, nil
}

type stubDetector struct {
	job textract.Job
}

func (s *stubDetector) StartDetection(_ context.Context, _ string) (string, error) {
	return "job-1", nil
}

func (s *stubDetector) JobStatus(_ context.Context, jobID string) (textract.Job, error) {
	job := s.job
	job.ID = jobID
	return job, nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *memStore) {
	t.Helper()
	store := newMemStore()
	r := repo.New(store)
	pipeline := ocr.New(nil, nil)
	return NewDispatcher(r, pipeline, nil, testSecret, "https://app.example.com"), store
}

func signToken(t *testing.T, sub, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doRequest(d *Dispatcher, method, path string, body any, auth string) Response {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	return d.Dispatch(context.Background(), Request{
		Method:        method,
		Path:          path,
		Params:        map[string]string{},
		Query:         map[string]string{},
		Authorization: auth,
		Body:          raw,
	})
}

func TestDispatchOptionsShortCircuits(t *testing.T) {
	d, _ := newTestDispatcher(t)

	for _, path := range []string{"/profile", "/resume/projects/42", "/no/such/route"} {
		resp := d.Dispatch(context.Background(), Request{Method: http.MethodOptions, Path: path})
		assert.Equal(t, http.StatusOK, resp.Status, path)
		assert.NotEmpty(t, resp.Headers["Access-Control-Allow-Origin"])
	}
}

func TestDispatchCORSOriginEcho(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), Request{
		Method: http.MethodOptions,
		Path:   "/profile",
		Origin: "https://other.example.com",
	})
	assert.Equal(t, "https://other.example.com", resp.Headers["Access-Control-Allow-Origin"])

	resp = d.Dispatch(context.Background(), Request{Method: http.MethodOptions, Path: "/profile"})
	assert.Equal(t, "https://app.example.com", resp.Headers["Access-Control-Allow-Origin"])
}

func TestDispatchMissingTokenUnauthorized(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := doRequest(d, http.MethodGet, "/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestDispatchHealthNeedsNoToken(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := doRequest(d, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestDispatchUnmatchedRouteEchoesMethodAndPath(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodDelete, "/progress", nil, auth)
	require.Equal(t, http.StatusNotFound, resp.Status)
	body := resp.Body.(map[string]any)
	assert.Equal(t, "Route not found: DELETE /progress", body["message"])
}

func TestDispatchProfileRoundTrip(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodGet, "/profile", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	profile := resp.Body.(types.Document)
	assert.Equal(t, "u1", profile["userId"])

	resp = doRequest(d, http.MethodPut, "/profile", map[string]any{"profession": "Engineer"}, auth)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(d, http.MethodGet, "/profile", nil, auth)
	profile = resp.Body.(types.Document)
	assert.Equal(t, "Engineer", profile["profession"])
}

func TestDispatchProfilesBeforeProfile(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	doRequest(d, http.MethodPut, "/profile", map[string]any{"name": "Max"}, auth)

	resp := doRequest(d, http.MethodGet, "/profiles", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	body := resp.Body.(map[string]any)
	assert.Equal(t, 1, body["count"])

	resp = doRequest(d, http.MethodGet, "/profiles/u1", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(d, http.MethodGet, "/profiles/nobody", nil, auth)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestDispatchRouteSpecificityProjects(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodPost, "/resume/projects", map[string]any{"id": "42", "name": "Site"}, auth)
	require.Equal(t, http.StatusCreated, resp.Status)

	// list and item resolve to different operations
	resp = doRequest(d, http.MethodGet, "/resume/projects", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	body := resp.Body.(map[string]any)
	assert.Equal(t, 1, body["count"])

	resp = doRequest(d, http.MethodPut, "/resume/projects/42", map[string]any{"name": "Relaunch"}, auth)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(d, http.MethodPut, "/resume/projects/404", map[string]any{"name": "X"}, auth)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = doRequest(d, http.MethodDelete, "/resume/projects/42", nil, auth)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestDispatchLebenslaufAlias(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodPut, "/lebenslauf", map[string]any{
		"personalInfo": map[string]any{"title": "Dev"},
	}, auth)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(d, http.MethodGet, "/resume", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	body := resp.Body.(map[string]any)
	require.NotNil(t, body["resume"])
}

func TestDispatchListResumes(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodGet, "/resumes", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	body := resp.Body.(map[string]any)
	assert.Equal(t, 0, body["count"])

	doRequest(d, http.MethodPut, "/resume", map[string]any{
		"personalInfo": map[string]any{"title": "Dev"},
	}, auth)

	resp = doRequest(d, http.MethodGet, "/resumes", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	body = resp.Body.(map[string]any)
	assert.Equal(t, 1, body["count"])
	assert.NotNil(t, body["resumes"])
}

func TestDispatchResumeByRawPathUUID(t *testing.T) {
	d, _ := newTestDispatcher(t)
	owner := "a1b2c3d4-e5f6-7890-abcd-ef0123456789"
	ownerAuth := signToken(t, owner, "owner-user@example.com")
	doRequest(d, http.MethodPut, "/resume", map[string]any{
		"personalInfo": map[string]any{"title": "Dev"},
	}, ownerAuth)

	viewer := signToken(t, "u2", "u2@example.com")

	// canonical segment
	resp := doRequest(d, http.MethodGet, "/resume/"+owner, nil, viewer)
	require.Equal(t, http.StatusOK, resp.Status)
	body := resp.Body.(map[string]any)
	require.NotNil(t, body["resume"])

	// non-canonical path still yields the id by raw-path extraction
	resp = doRequest(d, http.MethodGet, "/api/v2/lebenslauf/"+owner+"/view", nil, viewer)
	require.Equal(t, http.StatusOK, resp.Status)

	// unknown uuid is a 404, not a synthesized default
	resp = doRequest(d, http.MethodGet, "/resume/00000000-0000-0000-0000-000000000000", nil, viewer)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestDispatchPersonalInfoField(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodPut, "/resume/personal-info/title", map[string]any{"value": "Engineer"}, auth)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(d, http.MethodGet, "/resume", nil, auth)
	body := resp.Body.(map[string]any)
	resume := body["resume"].(types.Document)
	info := resume["personalInfo"].(map[string]any)
	assert.Equal(t, "Engineer", info["title"])

	resp = doRequest(d, http.MethodPut, "/resume/personal-info/title", map[string]any{}, auth)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestDispatchPersonalInfoFieldNamedOcr(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	// field names are arbitrary and must not collide with the /ocr route
	resp := doRequest(d, http.MethodPut, "/resume/personal-info/ocr", map[string]any{"value": "manual"}, auth)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(d, http.MethodGet, "/resume", nil, auth)
	body := resp.Body.(map[string]any)
	resume := body["resume"].(types.Document)
	info := resume["personalInfo"].(map[string]any)
	assert.Equal(t, "manual", info["ocr"])
}

func TestDispatchSkills(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodGet, "/resume/skills", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	skills := resp.Body.(types.Document)
	assert.Empty(t, skills["technicalSkills"])

	resp = doRequest(d, http.MethodPut, "/resume/skills", map[string]any{
		"technicalSkills": []any{map[string]any{"category": "Backend", "skills": []any{"Go"}}},
		"softSkills":      []any{"Teamwork"},
	}, auth)
	require.Equal(t, http.StatusOK, resp.Status)
}

func TestDispatchUploadURLUnconfigured(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodPost, "/resume/upload-url", map[string]any{"fileName": "cv.pdf"}, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	ticket := resp.Body.(ocr.UploadTicket)
	assert.Nil(t, ticket.UploadURL)
	assert.NotEmpty(t, ticket.Key)
	assert.NotEmpty(t, ticket.Error)

	// missing fileName fails validation
	resp = doRequest(d, http.MethodPost, "/resume/upload-url", map[string]any{}, auth)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestDispatchOCRUnconfigured(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodPost, "/resume/ocr", map[string]any{"s3Key": "resumes/u1/cv.pdf"}, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	result := resp.Body.(ocr.ExtractionResult)
	assert.False(t, result.Success)
	assert.Equal(t, "OCR not configured", result.Message)
}

func TestDispatchOCRSuccessMergesIntoResume(t *testing.T) {
	store := newMemStore()
	r := repo.New(store)
	det := &stubDetector{job: textract.Job{
		Status: textract.StatusSucceeded,
		Lines:  []string{"Jane Doe", "jane@x.com"},
	}}
	pipeline := ocr.NewWithSchedule(nil, det, 0, 3)
	d := NewDispatcher(r, pipeline, nil, testSecret, "https://app.example.com")
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodPost, "/resume/ocr", map[string]any{"s3Key": "resumes/u1/cv.pdf"}, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	result := resp.Body.(ocr.ExtractionResult)
	require.True(t, result.Success)

	resume, err := r.GetResume(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, resume)
	assert.Equal(t, true, resume["ocrProcessed"])
	assert.Equal(t, "resumes/u1/cv.pdf", resume["pdfBlobKey"])
}

func TestDispatchDownloadURLOwnership(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := d.Dispatch(context.Background(), Request{
		Method:        http.MethodGet,
		Path:          "/resume/download-url",
		Query:         map[string]string{"key": "resumes/u2/cv.pdf"},
		Authorization: auth,
	})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = d.Dispatch(context.Background(), Request{
		Method:        http.MethodGet,
		Path:          "/resume/download-url",
		Query:         map[string]string{"key": "resumes/u1/cv.pdf"},
		Authorization: auth,
	})
	require.Equal(t, http.StatusOK, resp.Status)
}

func TestDispatchProgress(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodPut, "/progress", map[string]any{
		"methods": map[string]any{"m1": map[string]any{"status": "completed"}},
	}, auth)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(d, http.MethodGet, "/progress", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	progress := resp.Body.(types.Document)
	stats := progress["stats"].(map[string]any)
	// the fake store does not round-trip JSON, ints survive as ints
	assert.Equal(t, 1, stats["total"])
}

func TestDispatchApplications(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")

	resp := doRequest(d, http.MethodPost, "/applications", map[string]any{"company": "Acme"}, auth)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(d, http.MethodGet, "/applications", nil, auth)
	require.Equal(t, http.StatusOK, resp.Status)
	body := resp.Body.(map[string]any)
	assert.Equal(t, 1, body["count"])
}

func TestDispatchParamsTakePrecedence(t *testing.T) {
	d, _ := newTestDispatcher(t)
	auth := signToken(t, "u1", "u1@example.com")
	doRequest(d, http.MethodPut, "/profile", map[string]any{"name": "Max"}, auth)

	resp := d.Dispatch(context.Background(), Request{
		Method:        http.MethodGet,
		Path:          "/profiles/ignored-segment",
		Params:        map[string]string{"id": "u1"},
		Authorization: auth,
	})
	require.Equal(t, http.StatusOK, resp.Status)
	profile := resp.Body.(types.Document)
	assert.Equal(t, "u1", profile["userId"])
}

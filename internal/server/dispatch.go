package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mawps/profile-service/internal/ocr"
	"github.com/mawps/profile-service/internal/repo"
)

// Request is the transport-independent form of an inbound call. Params may be
// empty or only partially populated depending on how the transport parsed the
// path; the dispatcher never relies on them alone.
type Request struct {
	Method        string
	Path          string
	Params        map[string]string
	Query         map[string]string
	Origin        string
	Authorization string
	Body          []byte
}

// Response is the dispatcher's complete answer, including the CORS headers
// derived from the request origin.
type Response struct {
	Status  int
	Body    any
	Headers map[string]string
}

// Dispatcher resolves requests to repository and pipeline operations. It is a
// pure routing layer: unmatched routes are data (404 bodies), and the single
// recover below is the only place internal failures become 500s.
type Dispatcher struct {
	repo          *repo.Repository
	pipeline      *ocr.Pipeline
	blobs         ocr.BlobSigner
	jwtSecret     string
	defaultOrigin string
	validate      *validator.Validate
}

// NewDispatcher wires the routing layer. blobs may be nil when no object
// store is configured; affected routes degrade per their contracts.
func NewDispatcher(r *repo.Repository, p *ocr.Pipeline, blobs ocr.BlobSigner, jwtSecret, defaultOrigin string) *Dispatcher {
	return &Dispatcher{
		repo:          r,
		pipeline:      p,
		blobs:         blobs,
		jwtSecret:     jwtSecret,
		defaultOrigin: defaultOrigin,
		validate:      validator.New(),
	}
}

func (d *Dispatcher) corsHeaders(origin string) map[string]string {
	if origin == "" {
		origin = d.defaultOrigin
	}
	return map[string]string{
		"Access-Control-Allow-Origin":      origin,
		"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Allow-Headers":     "Content-Type, Authorization",
		"Access-Control-Allow-Credentials": "true",
	}
}

// Dispatch resolves one request to one response. OPTIONS short-circuits for
// any path, and every response carries CORS headers for the request origin.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	headers := d.corsHeaders(req.Origin)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[dispatch] panic on %s %s: %v", req.Method, req.Path, r)
			resp = Response{
				Status:  http.StatusInternalServerError,
				Body:    map[string]any{"message": fmt.Sprint(r)},
				Headers: headers,
			}
		}
	}()

	if req.Method == http.MethodOptions {
		return Response{Status: http.StatusOK, Body: map[string]any{}, Headers: headers}
	}
	if req.Method == http.MethodGet && req.Path == "/health" {
		return Response{Status: http.StatusOK, Body: map[string]string{"status": "ok"}, Headers: headers}
	}

	ident, err := DecodeBearer(req.Authorization, d.jwtSecret)
	if err != nil {
		return d.failure(headers, err)
	}

	resp, err = d.route(ctx, ident, req)
	if err != nil {
		return d.failure(headers, err)
	}
	resp.Headers = headers
	return resp
}

func (d *Dispatcher) failure(headers map[string]string, err error) Response {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[dispatch] internal error: %v", err)
	}
	return Response{
		Status:  status,
		Body:    map[string]any{"message": err.Error()},
		Headers: headers,
	}
}

func notFound(req Request) Response {
	return Response{
		Status: http.StatusNotFound,
		Body:   map[string]any{"message": fmt.Sprintf("Route not found: %s %s", req.Method, req.Path)},
	}
}

// route classifies the request. The /profiles branch must precede /profile,
// and resume routes are matched on substring presence because callers reach
// the same resources through both canonical and legacy path spellings.
func (d *Dispatcher) route(ctx context.Context, ident Identity, req Request) (Response, error) {
	p := req.Path
	switch {
	case strings.HasPrefix(p, "/profiles"):
		return d.routeProfiles(ctx, req)
	case p == "/profile/image/upload-url":
		if req.Method == http.MethodPost {
			return d.handleProfileImageUploadURL(ctx, ident, req)
		}
	case p == "/profile/image":
		if req.Method == http.MethodDelete {
			return d.handleDeleteProfileImage(ctx, ident)
		}
	case strings.HasPrefix(p, "/profile"):
		switch req.Method {
		case http.MethodGet:
			return d.handleGetProfile(ctx, ident)
		case http.MethodPost, http.MethodPut:
			return d.handleSaveProfile(ctx, ident, req)
		}
	case p == "/progress":
		switch req.Method {
		case http.MethodGet:
			return d.handleGetProgress(ctx, ident)
		case http.MethodPut, http.MethodPost:
			return d.handleSaveProgress(ctx, ident, req)
		}
	case p == "/resumes":
		if req.Method == http.MethodGet {
			return d.handleListResumes(ctx)
		}
	case p == "/applications":
		switch req.Method {
		case http.MethodGet:
			return d.handleListApplications(ctx, ident)
		case http.MethodPost:
			return d.handleSaveApplication(ctx, ident, req)
		}
	case isResumeRoute(p):
		return d.routeResume(ctx, ident, req)
	}
	return notFound(req), nil
}

// isResumeRoute matches both URL spellings of the resume resource family.
func isResumeRoute(p string) bool {
	return strings.Contains(p, "/resume") || strings.Contains(p, "/lebenslauf")
}

// routeResume disambiguates the resume family by decreasing path specificity:
// literal subresource suffixes first, explicit-id lookup next, the generic
// current-user resource last.
func (d *Dispatcher) routeResume(ctx context.Context, ident Identity, req Request) (Response, error) {
	p := req.Path
	switch {
	case strings.Contains(p, "/upload-url"):
		if req.Method == http.MethodPost {
			return d.handleUploadURL(ctx, ident, req)
		}
	case strings.Contains(p, "/download-url"):
		if req.Method == http.MethodGet {
			return d.handleDownloadURL(ctx, ident, req)
		}
	case strings.Contains(p, "/personal-info/"):
		// before /ocr: the trailing segment is an arbitrary field name
		if req.Method == http.MethodPut {
			return d.handleUpdatePersonalInfo(ctx, ident, req, trailingSegment(p, "/personal-info"))
		}
	case strings.Contains(p, "/ocr"):
		if req.Method == http.MethodPost {
			return d.handleOCR(ctx, ident, req)
		}
	case strings.Contains(p, "/projects"):
		return d.routeProjects(ctx, ident, req, trailingSegment(p, "/projects"))
	case strings.Contains(p, "/skills"):
		switch req.Method {
		case http.MethodGet:
			return d.handleGetSkills(ctx, ident)
		case http.MethodPut:
			return d.handleUpdateSkills(ctx, ident, req)
		}
	default:
		id := resolveResourceID(req)
		switch req.Method {
		case http.MethodGet:
			if id != "" {
				return d.handleGetResumeByID(ctx, id)
			}
			return d.handleGetResume(ctx, ident)
		case http.MethodPost, http.MethodPut:
			return d.handleSaveResume(ctx, ident, req)
		case http.MethodDelete:
			return d.handleDeleteResume(ctx, ident)
		}
	}
	return notFound(req), nil
}

func (d *Dispatcher) routeProjects(ctx context.Context, ident Identity, req Request, projectID string) (Response, error) {
	switch req.Method {
	case http.MethodGet:
		if projectID == "" {
			return d.handleListProjects(ctx, ident)
		}
	case http.MethodPost:
		if projectID == "" {
			return d.handleAddProject(ctx, ident, req)
		}
	case http.MethodPut:
		if projectID != "" {
			return d.handleUpdateProject(ctx, ident, req, projectID)
		}
	case http.MethodDelete:
		if projectID != "" {
			return d.handleDeleteProject(ctx, ident, projectID)
		}
	}
	return notFound(req), nil
}

func (d *Dispatcher) routeProfiles(ctx context.Context, req Request) (Response, error) {
	if req.Method != http.MethodGet {
		return notFound(req), nil
	}
	id := resolveResourceID(req)
	if id == "" {
		id = strings.Trim(strings.TrimPrefix(req.Path, "/profiles"), "/")
	}
	if id == "" {
		return d.handleListProfiles(ctx)
	}
	return d.handleGetProfileByID(ctx, id)
}

var (
	canonicalIDPattern = regexp.MustCompile(`/(?:profiles|resume|lebenslauf)/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})`)
	rawUUIDPattern     = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// resolveResourceID tries each id source in a fixed order: the named
// parameter, the conventional alternate name, the canonical path segment, and
// finally any UUID anywhere in the raw path. An empty result routes to the
// current-user variant, never to a 400.
func resolveResourceID(req Request) string {
	if id := req.Params["id"]; id != "" {
		return id
	}
	if id := req.Params["userId"]; id != "" {
		return id
	}
	if m := canonicalIDPattern.FindStringSubmatch(req.Path); m != nil {
		return m[1]
	}
	return rawUUIDPattern.FindString(req.Path)
}

// trailingSegment returns the first path segment after marker, or "".
func trailingSegment(p, marker string) string {
	idx := strings.Index(p, marker)
	if idx < 0 {
		return ""
	}
	rest := strings.Trim(p[idx+len(marker):], "/")
	if cut := strings.IndexByte(rest, '/'); cut >= 0 {
		rest = rest[:cut]
	}
	return rest
}

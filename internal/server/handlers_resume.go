package server

import (
	"context"
	"net/http"

	"github.com/mawps/profile-service/internal/schemas"
	"github.com/mawps/profile-service/internal/types"
)

func (d *Dispatcher) handleGetResume(ctx context.Context, ident Identity) (Response, error) {
	resume, err := d.repo.GetResume(ctx, ident.UserID)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"resume": nullable(resume)}), nil
}

func (d *Dispatcher) handleGetResumeByID(ctx context.Context, userID string) (Response, error) {
	resume, err := d.repo.GetResumeByID(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"resume": nullable(resume)}), nil
}

func (d *Dispatcher) handleSaveResume(ctx context.Context, ident Identity, req Request) (Response, error) {
	if len(req.Body) > 0 {
		if err := schemas.ValidateResume(req.Body); err != nil {
			return Response{}, err
		}
	}
	partial, err := decodeDocument(req.Body)
	if err != nil {
		return Response{}, err
	}
	saved, err := d.repo.SaveResume(ctx, ident.UserID, ident.Email, partial)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"success": true, "resume": saved}), nil
}

func (d *Dispatcher) handleListResumes(ctx context.Context) (Response, error) {
	resumes, err := d.repo.ListResumes(ctx)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"resumes": resumes, "count": len(resumes)}), nil
}

func (d *Dispatcher) handleDeleteResume(ctx context.Context, ident Identity) (Response, error) {
	if err := d.repo.DeleteResume(ctx, ident.UserID); err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"success": true}), nil
}

func (d *Dispatcher) handleListProjects(ctx context.Context, ident Identity) (Response, error) {
	projects, err := d.repo.ListProjects(ctx, ident.UserID)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"projects": projects, "count": len(projects)}), nil
}

func (d *Dispatcher) handleAddProject(ctx context.Context, ident Identity, req Request) (Response, error) {
	project, err := decodeDocument(req.Body)
	if err != nil {
		return Response{}, err
	}
	created, err := d.repo.AddProject(ctx, ident.UserID, ident.Email, project)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Status: http.StatusCreated,
		Body:   map[string]any{"success": true, "project": created},
	}, nil
}

func (d *Dispatcher) handleUpdateProject(ctx context.Context, ident Identity, req Request, projectID string) (Response, error) {
	partial, err := decodeDocument(req.Body)
	if err != nil {
		return Response{}, err
	}
	updated, err := d.repo.UpdateProject(ctx, ident.UserID, ident.Email, projectID, partial)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"success": true, "project": updated}), nil
}

func (d *Dispatcher) handleDeleteProject(ctx context.Context, ident Identity, projectID string) (Response, error) {
	if err := d.repo.DeleteProject(ctx, ident.UserID, ident.Email, projectID); err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"success": true}), nil
}

func (d *Dispatcher) handleGetSkills(ctx context.Context, ident Identity) (Response, error) {
	skills, err := d.repo.GetSkills(ctx, ident.UserID)
	if err != nil {
		return Response{}, err
	}
	return ok(skills), nil
}

func (d *Dispatcher) handleUpdateSkills(ctx context.Context, ident Identity, req Request) (Response, error) {
	skills, err := decodeDocument(req.Body)
	if err != nil {
		return Response{}, err
	}
	saved, err := d.repo.UpdateSkills(ctx, ident.UserID, ident.Email, skills)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"success": true, "skills": saved}), nil
}

func (d *Dispatcher) handleUpdatePersonalInfo(ctx context.Context, ident Identity, req Request, field string) (Response, error) {
	if field == "" {
		return Response{}, &ErrValidation{Field: "field", Message: "missing field name"}
	}
	body, err := decodeDocument(req.Body)
	if err != nil {
		return Response{}, err
	}
	value, present := body["value"]
	if !present {
		return Response{}, &ErrValidation{Field: "value", Message: "missing value"}
	}
	saved, err := d.repo.UpdatePersonalInfoField(ctx, ident.UserID, ident.Email, field, value)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"success": true, "resume": saved}), nil
}

// nullable keeps absent documents rendered as JSON null rather than {}.
func nullable(doc types.Document) any {
	if doc == nil {
		return nil
	}
	return doc
}

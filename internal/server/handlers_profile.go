package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mawps/profile-service/internal/types"
)

func decodeDocument(body []byte) (types.Document, error) {
	if len(body) == 0 {
		return types.Document{}, nil
	}
	var doc types.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	return doc, nil
}

func ok(body any) Response {
	return Response{Status: http.StatusOK, Body: body}
}

func (d *Dispatcher) handleGetProfile(ctx context.Context, ident Identity) (Response, error) {
	profile, err := d.repo.GetProfile(ctx, ident.UserID, ident.Email)
	if err != nil {
		return Response{}, err
	}
	return ok(profile), nil
}

func (d *Dispatcher) handleSaveProfile(ctx context.Context, ident Identity, req Request) (Response, error) {
	partial, err := decodeDocument(req.Body)
	if err != nil {
		return Response{}, err
	}
	saved, err := d.repo.SaveProfile(ctx, ident.UserID, ident.Email, partial)
	if err != nil {
		return Response{}, err
	}
	return ok(saved), nil
}

func (d *Dispatcher) handleListProfiles(ctx context.Context) (Response, error) {
	profiles, err := d.repo.ListProfiles(ctx)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"profiles": profiles, "count": len(profiles)}), nil
}

func (d *Dispatcher) handleGetProfileByID(ctx context.Context, userID string) (Response, error) {
	profile, err := d.repo.GetProfileByID(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	return ok(profile), nil
}

func (d *Dispatcher) handleGetProgress(ctx context.Context, ident Identity) (Response, error) {
	progress, err := d.repo.GetProgress(ctx, ident.UserID)
	if err != nil {
		return Response{}, err
	}
	return ok(progress), nil
}

func (d *Dispatcher) handleSaveProgress(ctx context.Context, ident Identity, req Request) (Response, error) {
	partial, err := decodeDocument(req.Body)
	if err != nil {
		return Response{}, err
	}
	saved, err := d.repo.SaveProgress(ctx, ident.UserID, partial)
	if err != nil {
		return Response{}, err
	}
	return ok(saved), nil
}

func (d *Dispatcher) handleListApplications(ctx context.Context, ident Identity) (Response, error) {
	apps, err := d.repo.ListApplications(ctx, ident.UserID)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"applications": apps, "count": len(apps)}), nil
}

func (d *Dispatcher) handleSaveApplication(ctx context.Context, ident Identity, req Request) (Response, error) {
	app, err := decodeDocument(req.Body)
	if err != nil {
		return Response{}, err
	}
	saved, err := d.repo.SaveApplication(ctx, ident.UserID, ident.Email, app)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"success": true, "application": saved}), nil
}

func (d *Dispatcher) handleDeleteProfileImage(ctx context.Context, ident Identity) (Response, error) {
	profile, err := d.repo.ClearProfileImage(ctx, ident.UserID, ident.Email)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"success": true, "profile": profile}), nil
}

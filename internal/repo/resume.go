package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/mawps/profile-service/internal/types"
)

// GetResume returns the resume embedded in the caller's profile, or nil when
// none has been saved yet.
func (r *Repository) GetResume(ctx context.Context, userID string) (types.Document, error) {
	profile, err := r.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return types.Sub(profile, "resume"), nil
}

// GetResumeByID looks up a resume by explicit user id. A missing profile is an
// error; a profile without a resume returns nil.
func (r *Repository) GetResumeByID(ctx context.Context, userID string) (types.Document, error) {
	profile, err := r.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &ErrProfileNotFound{UserID: userID}
	}
	return types.Sub(profile, "resume"), nil
}

// SaveResume merges partial onto the embedded resume via a read-modify-write
// of the whole profile document. The resume's createdAt survives every
// subsequent save; updatedAt is refreshed on both the resume and the profile.
func (r *Repository) SaveResume(ctx context.Context, userID, email string, partial types.Document) (types.Document, error) {
	profile, err := r.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		authType := ""
		if IsAPIKeyID(userID) {
			authType = "api-key"
		}
		profile = types.DefaultProfile(userID, email, authType)
	}

	existing := types.Sub(profile, "resume")
	merged := types.Merge(existing, partial)

	ts := r.timestamp()
	if created := types.Str(existing, "createdAt"); created != "" {
		merged["createdAt"] = created
	} else if types.Str(merged, "createdAt") == "" {
		merged["createdAt"] = ts
	}
	merged["updatedAt"] = ts

	updated := types.Clone(profile)
	updated["resume"] = merged
	updated["updatedAt"] = ts

	if err := r.storeProfile(ctx, userID, updated); err != nil {
		return nil, err
	}
	return merged, nil
}

// DeleteResume removes the embedded resume from the profile. The profile
// itself survives. Deleting when no resume exists is a no-op.
func (r *Repository) DeleteResume(ctx context.Context, userID string) error {
	profile, err := r.loadProfile(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}
	if _, ok := profile["resume"]; !ok {
		return nil
	}

	updated := types.Clone(profile)
	delete(updated, "resume")
	updated["updatedAt"] = r.timestamp()
	return r.storeProfile(ctx, userID, updated)
}

// ListProjects returns the resume's project entries, never nil.
func (r *Repository) ListProjects(ctx context.Context, userID string) ([]any, error) {
	resume, err := r.GetResume(ctx, userID)
	if err != nil {
		return nil, err
	}
	projects := types.List(resume, "projects")
	if projects == nil {
		projects = []any{}
	}
	return projects, nil
}

// AddProject appends a project to the resume, assigning an id when the caller
// did not supply one.
func (r *Repository) AddProject(ctx context.Context, userID, email string, project types.Document) (types.Document, error) {
	entry := types.Clone(project)
	if types.Str(entry, "id") == "" {
		entry["id"] = uuid.NewString()
	}

	projects, err := r.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	projects = append(projects, map[string]any(entry))

	if _, err := r.SaveResume(ctx, userID, email, types.Document{"projects": projects}); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateProject merges partial onto the project with the given id.
func (r *Repository) UpdateProject(ctx context.Context, userID, email, projectID string, partial types.Document) (types.Document, error) {
	projects, err := r.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}

	var updated types.Document
	for i, v := range projects {
		entry, _ := v.(map[string]any)
		if types.Str(entry, "id") != projectID {
			continue
		}
		updated = types.Merge(entry, partial)
		updated["id"] = projectID
		projects[i] = map[string]any(updated)
		break
	}
	if updated == nil {
		return nil, &ErrProjectNotFound{ProjectID: projectID}
	}

	if _, err := r.SaveResume(ctx, userID, email, types.Document{"projects": projects}); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProject removes the project with the given id.
func (r *Repository) DeleteProject(ctx context.Context, userID, email, projectID string) error {
	projects, err := r.ListProjects(ctx, userID)
	if err != nil {
		return err
	}

	remaining := make([]any, 0, len(projects))
	for _, v := range projects {
		entry, _ := v.(map[string]any)
		if types.Str(entry, "id") == projectID {
			continue
		}
		remaining = append(remaining, v)
	}
	if len(remaining) == len(projects) {
		return &ErrProjectNotFound{ProjectID: projectID}
	}

	_, err = r.SaveResume(ctx, userID, email, types.Document{"projects": remaining})
	return err
}

// GetSkills returns the resume's skills block, defaulting to empty lists.
func (r *Repository) GetSkills(ctx context.Context, userID string) (types.Document, error) {
	resume, err := r.GetResume(ctx, userID)
	if err != nil {
		return nil, err
	}
	skills := types.Sub(resume, "skills")
	if skills == nil {
		skills = types.Document{"technicalSkills": []any{}, "softSkills": []any{}}
	}
	return skills, nil
}

// UpdateSkills replaces the resume's skills block wholesale.
func (r *Repository) UpdateSkills(ctx context.Context, userID, email string, skills types.Document) (types.Document, error) {
	if _, err := r.SaveResume(ctx, userID, email, types.Document{"skills": skills}); err != nil {
		return nil, err
	}
	return skills, nil
}

// UpdatePersonalInfoField sets a single field inside the resume's personalInfo
// block, creating the block when absent.
func (r *Repository) UpdatePersonalInfoField(ctx context.Context, userID, email, field string, value any) (types.Document, error) {
	resume, err := r.GetResume(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := types.Clone(types.Sub(resume, "personalInfo"))
	info[field] = value

	saved, err := r.SaveResume(ctx, userID, email, types.Document{"personalInfo": info})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// MergeOCRResult records a successful extraction on the resume: the raw
// structured result, the blob the upload came from, and the processed marker.
func (r *Repository) MergeOCRResult(ctx context.Context, userID, email, blobKey string, ocrData types.Document) (types.Document, error) {
	return r.SaveResume(ctx, userID, email, types.Document{
		"ocrProcessed": true,
		"ocrData":      ocrData,
		"pdfBlobKey":   blobKey,
	})
}

// ListApplications returns the job applications embedded in the profile.
func (r *Repository) ListApplications(ctx context.Context, userID string) ([]any, error) {
	profile, err := r.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	apps := types.List(profile, "applications")
	if apps == nil {
		apps = []any{}
	}
	return apps, nil
}

// SaveApplication upserts an application by id into the profile's embedded
// list, assigning an id on insert.
func (r *Repository) SaveApplication(ctx context.Context, userID, email string, app types.Document) (types.Document, error) {
	entry := types.Clone(app)
	if types.Str(entry, "id") == "" {
		entry["id"] = uuid.NewString()
	}

	apps, err := r.ListApplications(ctx, userID)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i, v := range apps {
		existing, _ := v.(map[string]any)
		if types.Str(existing, "id") == types.Str(entry, "id") {
			apps[i] = map[string]any(types.Merge(existing, entry))
			replaced = true
			break
		}
	}
	if !replaced {
		apps = append(apps, map[string]any(entry))
	}

	if _, err := r.SaveProfile(ctx, userID, email, types.Document{"applications": apps}); err != nil {
		return nil, err
	}
	return entry, nil
}

// ClearProfileImage blanks the profile's image URL.
func (r *Repository) ClearProfileImage(ctx context.Context, userID, email string) (types.Document, error) {
	return r.SaveProfile(ctx, userID, email, types.Document{"profileImageUrl": ""})
}

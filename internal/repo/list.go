package repo

import (
	"context"
	"sort"
	"strings"

	"github.com/mawps/profile-service/internal/types"
)

// ListProfiles scans the store and projects every profile to its summary
// view, excluding the internal owner record. Results are sorted newest first.
func (r *Repository) ListProfiles(ctx context.Context) ([]types.ProfileSummary, error) {
	docs, err := r.scanVisible(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]types.ProfileSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, types.ProfileSummary{
			UserID:     types.Str(doc, "userId"),
			Name:       displayName(doc),
			Email:      types.Str(doc, "email"),
			Profession: types.Str(doc, "profession"),
			Location:   types.Str(doc, "location"),
			CreatedAt:  types.Str(doc, "createdAt"),
			UpdatedAt:  types.Str(doc, "updatedAt"),
		})
	}
	return summaries, nil
}

// ListResumes scans the store and projects every embedded resume to its
// summary view. Counts are derived from document structure alone.
func (r *Repository) ListResumes(ctx context.Context) ([]types.ResumeSummary, error) {
	docs, err := r.scanVisible(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]types.ResumeSummary, 0, len(docs))
	for _, doc := range docs {
		resume := types.Sub(doc, "resume")
		if resume == nil {
			continue
		}

		info := types.Sub(resume, "personalInfo")
		skills := types.Sub(resume, "skills")
		technical := 0
		for _, v := range types.List(skills, "technicalSkills") {
			category, _ := v.(map[string]any)
			technical += len(types.List(category, "skills"))
		}
		soft := len(types.List(skills, "softSkills"))

		experience, education := 0, 0
		for _, v := range types.List(resume, "sections") {
			section, _ := v.(map[string]any)
			entries := len(types.List(section, "entries"))
			switch types.Str(section, "type") {
			case "experience":
				experience += entries
			case "education":
				education += entries
			}
		}

		ocrProcessed, _ := resume["ocrProcessed"].(bool)
		summaries = append(summaries, types.ResumeSummary{
			UserID:            types.Str(doc, "userId"),
			Name:              displayName(doc),
			Title:             types.Str(info, "title"),
			Projects:          len(types.List(resume, "projects")),
			TechnicalSkills:   technical,
			SoftSkills:        soft,
			ExperienceEntries: experience,
			EducationEntries:  education,
			IsComplete:        types.Str(info, "title") != "" && types.Str(info, "summary") != "" && technical+soft > 0,
			OCRProcessed:      ocrProcessed,
			CreatedAt:         types.Str(resume, "createdAt"),
			UpdatedAt:         types.Str(resume, "updatedAt"),
		})
	}
	return summaries, nil
}

// scanVisible returns all non-sentinel profile documents, newest first.
// RFC 3339 timestamps sort correctly as plain strings.
func (r *Repository) scanVisible(ctx context.Context) ([]types.Document, error) {
	docs, err := r.store.ScanProfiles(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]types.Document, 0, len(docs))
	for _, doc := range docs {
		if types.Str(doc, "userId") == SentinelUserID {
			continue
		}
		visible = append(visible, doc)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return sortStamp(visible[i]) > sortStamp(visible[j])
	})
	return visible, nil
}

func sortStamp(doc types.Document) string {
	if ts := types.Str(doc, "updatedAt"); ts != "" {
		return ts
	}
	return types.Str(doc, "createdAt")
}

// displayName synthesizes a caller-facing name: real name parts first, then
// the email local-part, then "unknown".
func displayName(doc types.Document) string {
	first := strings.TrimSpace(types.Str(doc, "firstName"))
	last := strings.TrimSpace(types.Str(doc, "lastName"))
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	if email := types.Str(doc, "email"); email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
		return email
	}
	return "unknown"
}

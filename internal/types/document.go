// Package types defines the document model shared by the repository and the
// HTTP layer. Profiles are stored as schemaless JSON documents, so the core
// representation is a plain map; typed structs exist only for projected
// summary views.
package types

// Document is a schemaless profile/resume/progress record. Keys absent from a
// partial update are preserved on merge; keys present with an empty value are
// written through (blanking a field is a legitimate user action).
type Document = map[string]any

// Merge overlays partial onto base and returns a new document. Neither input
// is mutated. Nested maps are replaced wholesale, matching the storage
// layer's whole-document write semantics.
func Merge(base, partial Document) Document {
	merged := make(Document, len(base)+len(partial))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy of doc.
func Clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// Str reads a string field, returning "" for absent or non-string values.
func Str(doc Document, key string) string {
	if doc == nil {
		return ""
	}
	s, _ := doc[key].(string)
	return s
}

// Sub reads a nested document field, returning nil when absent or mistyped.
func Sub(doc Document, key string) Document {
	if doc == nil {
		return nil
	}
	m, _ := doc[key].(map[string]any)
	return m
}

// List reads a list field, returning nil when absent or mistyped.
func List(doc Document, key string) []any {
	if doc == nil {
		return nil
	}
	l, _ := doc[key].([]any)
	return l
}

// DefaultSettings is the settings block synthesized for profiles that have
// never been written.
func DefaultSettings() Document {
	return Document{
		"language":      "de",
		"theme":         "light",
		"notifications": true,
	}
}

// DefaultProfile synthesizes the document returned for a user with no stored
// profile. authType is recorded when non-empty (API-key callers).
func DefaultProfile(userID, email, authType string) Document {
	p := Document{
		"userId":          userID,
		"email":           email,
		"name":            "",
		"firstName":       "",
		"lastName":        "",
		"phone":           "",
		"birthDate":       "",
		"location":        "",
		"profession":      "",
		"company":         "",
		"experience":      "",
		"industry":        "",
		"goals":           "",
		"interests":       "",
		"profileImageUrl": "",
		"preferences":     Document{},
		"settings":        DefaultSettings(),
		"personal":        Document{},
		"type":            "user-profile",
	}
	if authType != "" {
		p["authType"] = authType
	}
	return p
}

// DefaultProgress is the zero-value progress record returned before the first
// write.
func DefaultProgress(userID string) Document {
	return Document{
		"userId":       userID,
		"methods":      Document{},
		"achievements": []any{},
		"streaks":      Document{"current": 0, "longest": 0},
		"stats":        Document{"total": 0, "completed": 0, "inProgress": 0},
	}
}

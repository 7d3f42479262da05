// Package repo implements profile, resume and progress CRUD over the document
// store. Two identity schemes coexist: identity-provider subjects are stored
// under a composite ("user#"+id, sortKey) key, while UUID-shaped API-key ids
// are stored under the plain id. The repository bridges both transparently.
package repo

import (
	"context"
	"regexp"
	"time"

	"github.com/mawps/profile-service/internal/types"
)

const (
	sortKeyProfile  = "profile"
	sortKeyProgress = "progress"

	// SentinelUserID marks the internal owner record excluded from listings.
	SentinelUserID = "owner"
)

var apiKeyIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsAPIKeyID reports whether a user id is UUID-shaped and therefore belongs to
// an API-key caller stored under the simple-key scheme.
func IsAPIKeyID(userID string) bool {
	return apiKeyIDPattern.MatchString(userID)
}

// Store is the document persistence the repository runs on.
type Store interface {
	GetComposite(ctx context.Context, pk, sk string) (types.Document, error)
	PutComposite(ctx context.Context, pk, sk string, doc types.Document) error
	GetSimple(ctx context.Context, userID string) (types.Document, error)
	PutSimple(ctx context.Context, userID string, doc types.Document) error
	ScanProfiles(ctx context.Context) ([]types.Document, error)
}

// Repository provides typed CRUD over the document store.
type Repository struct {
	store Store
	now   func() time.Time
}

// New creates a repository backed by the given store.
func New(store Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

func (r *Repository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

func partitionKey(userID string) string {
	return "user#" + userID
}

func (r *Repository) loadProfile(ctx context.Context, userID string) (types.Document, error) {
	if IsAPIKeyID(userID) {
		return r.store.GetSimple(ctx, userID)
	}
	return r.store.GetComposite(ctx, partitionKey(userID), sortKeyProfile)
}

func (r *Repository) storeProfile(ctx context.Context, userID string, doc types.Document) error {
	if IsAPIKeyID(userID) {
		return r.store.PutSimple(ctx, userID, doc)
	}
	return r.store.PutComposite(ctx, partitionKey(userID), sortKeyProfile, doc)
}

// GetProfile returns the caller's profile. When no document has ever been
// written, a default profile is synthesized; reading never creates state.
func (r *Repository) GetProfile(ctx context.Context, userID, email string) (types.Document, error) {
	doc, err := r.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		authType := ""
		if IsAPIKeyID(userID) {
			authType = "api-key"
		}
		return types.DefaultProfile(userID, email, authType), nil
	}
	return doc, nil
}

// GetProfileByID looks up another user's profile by explicit id. Unlike
// GetProfile, absence is an error here: foreign ids get no synthesized default.
func (r *Repository) GetProfileByID(ctx context.Context, userID string) (types.Document, error) {
	doc, err := r.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &ErrProfileNotFound{UserID: userID}
	}
	return doc, nil
}

// SaveProfile merges partial onto the stored document. Keys absent from
// partial keep their prior value; keys present with an empty value are written
// through. createdAt is set once on first write and never changed afterwards.
func (r *Repository) SaveProfile(ctx context.Context, userID, email string, partial types.Document) (types.Document, error) {
	existing, err := r.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	base := existing
	if base == nil {
		authType := ""
		if IsAPIKeyID(userID) {
			authType = "api-key"
		}
		base = types.DefaultProfile(userID, email, authType)
	}

	merged := types.Merge(base, partial)
	merged["userId"] = userID

	ts := r.timestamp()
	if created := types.Str(existing, "createdAt"); created != "" {
		merged["createdAt"] = created
	} else if types.Str(merged, "createdAt") == "" {
		merged["createdAt"] = ts
	}
	merged["updatedAt"] = ts

	if err := r.storeProfile(ctx, userID, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// GetProgress returns the caller's progress record, or the zero-value default
// before the first write. Progress lives only under the composite scheme.
func (r *Repository) GetProgress(ctx context.Context, userID string) (types.Document, error) {
	doc, err := r.store.GetComposite(ctx, partitionKey(userID), sortKeyProgress)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return types.DefaultProgress(userID), nil
	}
	return doc, nil
}

// SaveProgress overwrites the progress record. The stats block is never taken
// from the caller; it is recomputed from the methods map on every save.
func (r *Repository) SaveProgress(ctx context.Context, userID string, partial types.Document) (types.Document, error) {
	methods := types.Sub(partial, "methods")
	if methods == nil {
		methods = types.Document{}
	}
	achievements := types.List(partial, "achievements")
	if achievements == nil {
		achievements = []any{}
	}
	streaks := types.Sub(partial, "streaks")
	if streaks == nil {
		streaks = types.Document{"current": 0, "longest": 0}
	}

	total, completed, inProgress := 0, 0, 0
	for _, v := range methods {
		total++
		entry, _ := v.(map[string]any)
		switch types.Str(entry, "status") {
		case "completed":
			completed++
		case "in_progress":
			inProgress++
		}
	}

	doc := types.Document{
		"userId":       userID,
		"methods":      methods,
		"achievements": achievements,
		"streaks":      streaks,
		"stats": types.Document{
			"total":      total,
			"completed":  completed,
			"inProgress": inProgress,
		},
		"lastUpdated": r.timestamp(),
	}

	if err := r.store.PutComposite(ctx, partitionKey(userID), sortKeyProgress, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mawps/profile-service/internal/types"
)

type uploadURLRequest struct {
	FileName    string `json:"fileName" validate:"required"`
	ContentType string `json:"contentType"`
}

type ocrRequest struct {
	S3Key string `json:"s3Key" validate:"required"`
}

func (d *Dispatcher) decodeAndValidate(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if err := d.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &ErrValidation{
				Field:   fieldErrs[0].Field(),
				Message: fmt.Sprintf("failed on %q", fieldErrs[0].Tag()),
			}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

func (d *Dispatcher) handleUploadURL(ctx context.Context, ident Identity, req Request) (Response, error) {
	var in uploadURLRequest
	if err := d.decodeAndValidate(req.Body, &in); err != nil {
		return Response{}, err
	}

	ticket, err := d.pipeline.IssueUploadURL(ctx, ident.UserID, in.FileName, in.ContentType)
	if err != nil {
		return Response{}, err
	}
	return ok(ticket), nil
}

func (d *Dispatcher) handleOCR(ctx context.Context, ident Identity, req Request) (Response, error) {
	var in ocrRequest
	if err := d.decodeAndValidate(req.Body, &in); err != nil {
		return Response{}, err
	}

	result := d.pipeline.StartExtraction(ctx, in.S3Key)
	if result.Success {
		ocrData := types.Document{
			"rawText":    result.RawText,
			"parsedData": result.Parsed,
		}
		if _, err := d.repo.MergeOCRResult(ctx, ident.UserID, ident.Email, in.S3Key, ocrData); err != nil {
			return Response{}, err
		}
	}
	return ok(result), nil
}

func (d *Dispatcher) handleDownloadURL(ctx context.Context, ident Identity, req Request) (Response, error) {
	key := req.Query["key"]
	if key == "" {
		return Response{}, &ErrValidation{Field: "key", Message: "missing key parameter"}
	}
	if !ownsKey(ident.UserID, key) {
		return Response{}, &ErrForbidden{Key: key}
	}

	if d.blobs == nil {
		return ok(map[string]any{
			"downloadUrl": nil,
			"error":       "blob store not configured, presigned download unavailable",
		}), nil
	}

	url, err := d.blobs.PresignGet(ctx, key)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{"downloadUrl": url, "expiresIn": 300}), nil
}

func (d *Dispatcher) handleProfileImageUploadURL(ctx context.Context, ident Identity, req Request) (Response, error) {
	var in uploadURLRequest
	if err := d.decodeAndValidate(req.Body, &in); err != nil {
		return Response{}, err
	}

	key := fmt.Sprintf("avatars/%s/%s", ident.UserID, sanitizeFileName(in.FileName))
	if d.blobs == nil {
		return ok(map[string]any{
			"uploadUrl": nil,
			"key":       key,
			"error":     "blob store not configured, presigned upload unavailable",
		}), nil
	}

	url, err := d.blobs.PresignPut(ctx, key)
	if err != nil {
		return Response{}, err
	}
	return ok(map[string]any{
		"uploadUrl": url,
		"key":       key,
		"imageUrl":  d.blobs.ObjectURL(key),
	}), nil
}

// ownsKey restricts presigned downloads to the caller's own storage prefixes.
func ownsKey(userID, key string) bool {
	return strings.HasPrefix(key, "resumes/"+userID+"/") ||
		strings.HasPrefix(key, "avatars/"+userID+"/")
}

func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Package ocr orchestrates resume ingestion: presigned upload issuance, text
// detection job submission, bounded synchronous polling, and field extraction.
// Expected failures (unconfigured backends, timeouts, backend errors) are
// returned as result values; the pipeline never fails past its own boundary.
package ocr

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/mawps/profile-service/internal/extract"
	"github.com/mawps/profile-service/internal/textract"
)

const (
	pollInterval    = 10 * time.Second
	maxPollAttempts = 30
	uploadExpiry    = 3600 // seconds, matches the blob store's presign window
)

// BlobSigner issues presigned URLs against the blob store.
type BlobSigner interface {
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	ObjectURL(key string) string
	Bucket() string
}

// Detector submits and polls text-detection jobs.
type Detector interface {
	StartDetection(ctx context.Context, key string) (string, error)
	JobStatus(ctx context.Context, jobID string) (textract.Job, error)
}

// Pipeline drives one ingestion per call. Either collaborator may be nil when
// its backend is not configured; the pipeline degrades instead of failing.
type Pipeline struct {
	blobs BlobSigner
	det   Detector

	interval time.Duration
	attempts int
	sleep    func(time.Duration)
	now      func() time.Time
}

// New creates a pipeline with the production poll schedule.
func New(blobs BlobSigner, det Detector) *Pipeline {
	return NewWithSchedule(blobs, det, pollInterval, maxPollAttempts)
}

// NewWithSchedule creates a pipeline with a custom poll interval and attempt
// budget.
func NewWithSchedule(blobs BlobSigner, det Detector, interval time.Duration, attempts int) *Pipeline {
	return &Pipeline{
		blobs:    blobs,
		det:      det,
		interval: interval,
		attempts: attempts,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// UploadTicket is the response to an upload-URL request. A nil URL means the
// blob store is unavailable and the caller must upload through another path.
type UploadTicket struct {
	UploadURL   *string `json:"uploadUrl"`
	Key         string  `json:"s3Key"`
	Bucket      string  `json:"bucket,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
	ExpiresIn   int     `json:"expiresIn"`
	Error       string  `json:"error,omitempty"`
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// IssueUploadURL builds a user-scoped storage key for the file and requests a
// one-hour presigned upload URL. The content type is echoed back so the client
// sends the same value on the PUT. When the blob store is unconfigured the
// ticket still carries the key, with a nil URL and an explanation.
func (p *Pipeline) IssueUploadURL(ctx context.Context, userID, fileName, contentType string) (UploadTicket, error) {
	safeName := unsafeFileChars.ReplaceAllString(fileName, "_")
	key := fmt.Sprintf("resumes/%s/%d-%s", userID, p.now().UnixMilli(), safeName)
	if contentType == "" {
		contentType = "application/pdf"
	}

	if p.blobs == nil {
		return UploadTicket{
			Key:         key,
			ContentType: contentType,
			ExpiresIn:   uploadExpiry,
			Error:       "blob store not configured, presigned upload unavailable",
		}, nil
	}

	url, err := p.blobs.PresignPut(ctx, key)
	if err != nil {
		return UploadTicket{}, err
	}
	return UploadTicket{
		UploadURL:   &url,
		Key:         key,
		Bucket:      p.blobs.Bucket(),
		ContentType: contentType,
		ExpiresIn:   uploadExpiry,
	}, nil
}

// ExtractionResult is the terminal report of one extraction attempt.
type ExtractionResult struct {
	Success bool                  `json:"success"`
	RawText string                `json:"rawText,omitempty"`
	Parsed  *extract.ParsedFields `json:"parsedData,omitempty"`
	Blocks  []string              `json:"blocks,omitempty"`
	Status  string                `json:"status,omitempty"`
	JobID   string                `json:"jobId,omitempty"`
	Error   string                `json:"error,omitempty"`
	Message string                `json:"message,omitempty"`
}

// StartExtraction submits a detection job for the blob and polls synchronously
// until the job terminates or the attempt budget runs out. The caller's
// request is held open for the whole loop. On exhaustion the job handle is
// returned so an out-of-band observer can still find the job.
func (p *Pipeline) StartExtraction(ctx context.Context, blobKey string) ExtractionResult {
	if p.det == nil {
		return ExtractionResult{Success: false, Message: "OCR not configured"}
	}

	jobID, err := p.det.StartDetection(ctx, blobKey)
	if err != nil {
		return ExtractionResult{Success: false, Error: "Failed to start OCR job", Message: err.Error()}
	}
	if jobID == "" {
		return ExtractionResult{Success: false, Error: "Failed to start OCR job"}
	}
	log.Printf("[ocr] job %s submitted for %s", jobID, blobKey)

	for attempt := 0; attempt < p.attempts; attempt++ {
		p.sleep(p.interval)

		job, err := p.det.JobStatus(ctx, jobID)
		if err != nil {
			return ExtractionResult{Success: false, JobID: jobID, Error: err.Error()}
		}

		switch job.Status {
		case textract.StatusSucceeded:
			rawText := strings.Join(job.Lines, "\n")
			parsed := extract.Extract(rawText)
			log.Printf("[ocr] job %s succeeded, %d lines", jobID, len(job.Lines))
			return ExtractionResult{
				Success: true,
				RawText: rawText,
				Parsed:  &parsed,
				Blocks:  job.Lines,
				JobID:   jobID,
			}
		case textract.StatusFailed:
			log.Printf("[ocr] job %s failed: %s", jobID, job.StatusMessage)
			return ExtractionResult{
				Success: false,
				JobID:   jobID,
				Error:   "OCR job failed",
				Message: job.StatusMessage,
			}
		}
	}

	log.Printf("[ocr] job %s still running after %d polls", jobID, p.attempts)
	return ExtractionResult{
		Success: false,
		Status:  textract.StatusInProgress,
		JobID:   jobID,
		Message: "OCR job did not finish in time, it may still complete",
	}
}

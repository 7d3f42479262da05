package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mawps/profile-service/internal/textract"
)

type fakeDetector struct {
	startErr error
	jobID    string

	// statuses returned in order; the last one repeats when exhausted
	statuses  []textract.Job
	statusErr error
	polls     int
}

func (f *fakeDetector) StartDetection(_ context.Context, _ string) (string, error) {
	return f.jobID, f.startErr
}

func (f *fakeDetector) JobStatus(_ context.Context, jobID string) (textract.Job, error) {
	f.polls++
	if f.statusErr != nil {
		return textract.Job{}, f.statusErr
	}
	idx := f.polls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	job := f.statuses[idx]
	job.ID = jobID
	return job, nil
}

type fakeSigner struct {
	putURL string
	getURL string
	putErr error
}

func (f *fakeSigner) PresignPut(_ context.Context, _ string) (string, error) {
	return f.putURL, f.putErr
}

func (f *fakeSigner) PresignGet(_ context.Context, _ string) (string, error) {
	return f.getURL, nil
}

func (f *fakeSigner) ObjectURL(key string) string { return "http://blob.local/bucket/" + key }

func (f *fakeSigner) Bucket() string { return "bucket" }

// newTestPipeline records simulated sleeps instead of blocking.
func newTestPipeline(blobs BlobSigner, det Detector) (*Pipeline, *time.Duration) {
	p := New(blobs, det)
	var slept time.Duration
	p.sleep = func(d time.Duration) { slept += d }
	p.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p, &slept
}

func TestIssueUploadURL(t *testing.T) {
	p, _ := newTestPipeline(&fakeSigner{putURL: "http://blob.local/put"}, nil)

	ticket, err := p.IssueUploadURL(context.Background(), "u1", "my resume (final).pdf", "application/pdf")
	require.NoError(t, err)
	require.NotNil(t, ticket.UploadURL)
	assert.Equal(t, "http://blob.local/put", *ticket.UploadURL)
	assert.Equal(t, "bucket", ticket.Bucket)
	assert.Equal(t, "application/pdf", ticket.ContentType)
	assert.Equal(t, 3600, ticket.ExpiresIn)
	assert.Equal(t, "resumes/u1/1740830400000-my_resume__final_.pdf", ticket.Key)
}

func TestIssueUploadURLDefaultsContentType(t *testing.T) {
	p, _ := newTestPipeline(&fakeSigner{putURL: "http://blob.local/put"}, nil)

	ticket, err := p.IssueUploadURL(context.Background(), "u1", "cv.docx", "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ticket.ContentType)
}

func TestIssueUploadURLDegradesWithoutBlobStore(t *testing.T) {
	p, _ := newTestPipeline(nil, nil)

	ticket, err := p.IssueUploadURL(context.Background(), "u1", "resume.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Nil(t, ticket.UploadURL)
	assert.NotEmpty(t, ticket.Key)
	assert.NotEmpty(t, ticket.Error)
}

func TestStartExtractionUnconfigured(t *testing.T) {
	p, slept := newTestPipeline(nil, nil)

	result := p.StartExtraction(context.Background(), "resumes/u1/file.pdf")
	assert.False(t, result.Success)
	assert.Equal(t, "OCR not configured", result.Message)
	assert.Zero(t, *slept)
}

func TestStartExtractionSubmitFailure(t *testing.T) {
	tests := []struct {
		name string
		det  *fakeDetector
	}{
		{"backend error", &fakeDetector{startErr: errors.New("boom")}},
		{"empty job handle", &fakeDetector{jobID: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPipeline(nil, tt.det)
			result := p.StartExtraction(context.Background(), "key")
			assert.False(t, result.Success)
			assert.Equal(t, "Failed to start OCR job", result.Error)
		})
	}
}

func TestStartExtractionSuccess(t *testing.T) {
	det := &fakeDetector{
		jobID: "job-1",
		statuses: []textract.Job{
			{Status: textract.StatusInProgress},
			{Status: textract.StatusInProgress},
			{Status: textract.StatusSucceeded, Lines: []string{
				"Jane Doe", "jane@x.com", "+1 555 0100", "Erfahrung", "Senior Dev at Acme",
			}},
		},
	}
	p, slept := newTestPipeline(nil, det)

	result := p.StartExtraction(context.Background(), "key")
	require.True(t, result.Success)
	assert.Equal(t, "Jane Doe\njane@x.com\n+1 555 0100\nErfahrung\nSenior Dev at Acme", result.RawText)
	require.NotNil(t, result.Parsed)
	assert.Equal(t, "Jane Doe", result.Parsed.Name)
	assert.Equal(t, "jane@x.com", result.Parsed.Email)
	assert.Len(t, result.Blocks, 5)
	assert.Equal(t, 3, det.polls)
	assert.Equal(t, 3*pollInterval, *slept)
}

func TestStartExtractionBackendFailure(t *testing.T) {
	det := &fakeDetector{
		jobID: "job-1",
		statuses: []textract.Job{
			{Status: textract.StatusFailed, StatusMessage: "unreadable document"},
		},
	}
	p, _ := newTestPipeline(nil, det)

	result := p.StartExtraction(context.Background(), "key")
	assert.False(t, result.Success)
	assert.Equal(t, "OCR job failed", result.Error)
	assert.Equal(t, "unreadable document", result.Message)
}

func TestStartExtractionTimeout(t *testing.T) {
	det := &fakeDetector{
		jobID:    "job-1",
		statuses: []textract.Job{{Status: textract.StatusInProgress}},
	}
	p, slept := newTestPipeline(nil, det)

	result := p.StartExtraction(context.Background(), "key")
	assert.False(t, result.Success)
	assert.Equal(t, textract.StatusInProgress, result.Status)
	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, maxPollAttempts, det.polls)
	// the simulated wall clock advanced by exactly the full attempt budget
	assert.Equal(t, time.Duration(maxPollAttempts)*pollInterval, *slept)
}

func TestStartExtractionStatusErrorIsContained(t *testing.T) {
	det := &fakeDetector{jobID: "job-1", statusErr: errors.New("connection reset")}
	p, _ := newTestPipeline(nil, det)

	result := p.StartExtraction(context.Background(), "key")
	assert.False(t, result.Success)
	assert.Equal(t, "connection reset", result.Error)
}

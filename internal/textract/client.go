// Package textract provides the client for the external asynchronous
// text-detection backend. Jobs are submitted against an already-uploaded blob
// and polled by id until they reach a terminal state.
package textract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Job status values reported by the detection backend.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusSucceeded  = "SUCCEEDED"
	StatusFailed     = "FAILED"
)

// Job is a point-in-time snapshot of a detection job. Lines are the detected
// text blocks in document order; they are only populated on SUCCEEDED.
type Job struct {
	ID            string   `json:"jobId"`
	Status        string   `json:"status"`
	StatusMessage string   `json:"statusMessage,omitempty"`
	Lines         []string `json:"lines,omitempty"`
}

// Terminal reports whether the job has finished, one way or the other.
func (j Job) Terminal() bool {
	return j.Status == StatusSucceeded || j.Status == StatusFailed
}

// Client talks to the detection backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a detection client for the given backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StartDetection submits a text-detection job for the blob at key and returns
// the backend's job handle. An empty handle from the backend is an error.
func (c *Client) StartDetection(ctx context.Context, key string) (string, error) {
	payload, err := json.Marshal(map[string]string{"s3Key": key})
	if err != nil {
		return "", fmt.Errorf("failed to marshal detection request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build detection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("detection backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("detection backend returned status %d", resp.StatusCode)
	}

	var out struct {
		JobID string `json:"jobId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode detection response: %w", err)
	}
	return out.JobID, nil
}

// JobStatus fetches the current state of a previously submitted job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return Job{}, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Job{}, fmt.Errorf("detection backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Job{}, fmt.Errorf("detection backend returned status %d", resp.StatusCode)
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return Job{}, fmt.Errorf("failed to decode job status: %w", err)
	}
	if job.ID == "" {
		job.ID = jobID
	}
	return job, nil
}

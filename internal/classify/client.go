// Package classify talks to the remote diamond classification service: job
// submission, polling, result fetching, and verdict submission.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gemlens/facet/internal/common"
	"github.com/gemlens/facet/internal/model"
)

// JobState reports where a remote classification job is in its lifecycle.
type JobState string

// Job states as reported by the service.
const (
	JobPending  JobState = "pending"
	JobRunning  JobState = "running"
	JobFinished JobState = "finished"
	JobFailed   JobState = "failed"
)

// Job describes one remote classification job.
type Job struct {
	SubmittedAt time.Time `json:"submitted_at"`
	ID          string    `json:"id"`
	Image       string    `json:"image"`
	State       JobState  `json:"state"`
	Error       string    `json:"error,omitempty"`
}

// Client is an HTTP client for the classification service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: classifier.url", common.ErrMissingConfig)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: classifier.url: %v", common.ErrInvalidConfig, err)
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// SubmitImage uploads an image for classification and returns the created job.
func (c *Client) SubmitImage(ctx context.Context, imagePath string) (*Job, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/jobs", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	slog.Debug("Submitting image for classification", "image", filepath.Base(imagePath))

	var job Job
	if err := c.do(req, http.StatusCreated, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSubmissionFailed, err)
	}
	return &job, nil
}

// GetJob fetches the current state of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	var job Job
	if err := c.do(req, http.StatusOK, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrItemSourceUnavailable, err)
	}
	return &job, nil
}

// ListJobs fetches all jobs visible to the caller, newest first.
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/jobs", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	var jobs []Job
	if err := c.do(req, http.StatusOK, &jobs); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrItemSourceUnavailable, err)
	}
	return jobs, nil
}

// GetJobResult fetches the classification result of a finished job. Asking
// for an unfinished job returns ErrJobNotReady so callers can poll.
func (c *Client) GetJobResult(ctx context.Context, jobID string) (*model.ImageResult, error) {
	job, err := c.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	switch job.State {
	case JobFinished:
	case JobFailed:
		return nil, fmt.Errorf("%w: job %s failed: %s", common.ErrItemSourceUnavailable, jobID, job.Error)
	default:
		return nil, fmt.Errorf("%w: job %s is %s", common.ErrJobNotReady, jobID, job.State)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/jobs/"+url.PathEscape(jobID)+"/result", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	var result model.ImageResult
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrItemSourceUnavailable, err)
	}
	return &result, nil
}

// WaitForJob polls until the job finishes, fails, or the context is done.
func (c *Client) WaitForJob(ctx context.Context, jobID string, interval time.Duration) (*model.ImageResult, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := c.GetJobResult(ctx, jobID)
		if err == nil {
			return result, nil
		}
		if !common.IsRetryable(err) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// verdictPayload is the wire form of one submitted verdict.
type verdictPayload struct {
	ItemID              string `json:"item_id"`
	Operator            string `json:"operator"`
	VerifiedOrientation string `json:"verified_orientation,omitempty"`
	VerifiedType        string `json:"verified_type,omitempty"`
	Note                string `json:"note,omitempty"`
	VerifiedAt          string `json:"verified_at"`
	IsCorrect           bool   `json:"is_correct"`
}

// SubmitVerdict sends one verification record to the service, keyed by the
// record's operator identity.
func (c *Client) SubmitVerdict(ctx context.Context, record model.VerificationRecord) error {
	payload := verdictPayload{
		ItemID:              record.ItemID,
		Operator:            record.Operator,
		IsCorrect:           record.IsCorrect,
		VerifiedOrientation: string(record.CorrectedOrientation),
		VerifiedType:        string(record.CorrectedType),
		Note:                record.Note,
		VerifiedAt:          record.VerifiedAt.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/verifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	if err := c.do(req, http.StatusCreated, nil); err != nil {
		return fmt.Errorf("%w: item %s: %v", common.ErrSubmissionFailed, record.ItemID, err)
	}
	return nil
}

// VerifiedItemIDs returns the item IDs the operator has already verified on
// the service side. Used to compute the resume cursor in job mode.
func (c *Client) VerifiedItemIDs(ctx context.Context, operator string) (map[string]bool, error) {
	u, err := url.Parse(c.baseURL + "/v1/verifications")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("operator", operator)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	var ids []string
	if err := c.do(req, http.StatusOK, &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrItemSourceUnavailable, err)
	}

	verified := make(map[string]bool, len(ids))
	for _, id := range ids {
		verified[id] = true
	}
	return verified, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Package client is a small HTTP client for the attrition prediction API.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/okian/attrition/internal/domain/employee"
)

const (
	defaultBaseURL = "http://localhost:9080"
	defaultTimeout = 30 * time.Second
	defaultRetries = 2
)

// ErrAPI is wrapped by every non-2xx answer from the service.
var ErrAPI = errors.New("api error")

// APIError is the decoded error body of a failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	if e.Field != "" {
		msg += " (field " + e.Field + ")"
	}
	return msg
}

// Is makes errors.Is(err, ErrAPI) hold for every APIError.
func (e *APIError) Is(target error) bool { return target == ErrAPI }

// Health mirrors GET /health.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
	Database    string `json:"database"`
}

// Prediction mirrors one prediction in a response body.
type Prediction struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
}

// Batch mirrors the POST /predict/batch response.
type Batch struct {
	Predictions []Prediction `json:"predictions"`
	Total       int          `json:"total"`
}

// Client talks to a running attrition service.
type Client struct {
	baseURL string
	rest    *resty.Client
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	r := resty.New().
		SetTimeout(defaultTimeout).
		SetRetryCount(defaultRetries).
		SetHeader("Accept", "application/json")
	// only transport failures and 503s are worth retrying
	r.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err != nil || resp.StatusCode() == 503
	})
	c := &Client{baseURL: baseURL, rest: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.baseURL }

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, "GET", "/health", nil, &out)
	return out, err
}

// Predict calls POST /predict for one record.
func (c *Client) Predict(ctx context.Context, rec employee.Record) (Prediction, error) {
	var out Prediction
	err := c.do(ctx, "POST", "/predict", rec, &out)
	return out, err
}

// PredictBatch calls POST /predict/batch.
func (c *Client) PredictBatch(ctx context.Context, recs []employee.Record) (Batch, error) {
	var out Batch
	body := map[string][]employee.Record{"employees": recs}
	err := c.do(ctx, "POST", "/predict/batch", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	apiErr := &APIError{}
	req := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Code == "" {
			apiErr.Code = "http_error"
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		return apiErr
	}
	return nil
}

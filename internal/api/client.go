// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the taskchat backend REST API.
//
// It covers the four endpoints the client needs: task lookup, per-worker
// access validation, the task directory used for suggestions, and file
// upload. The realtime channel lives in the channel package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/taskdesk/taskchat-tui/internal/model"
)

const (
	// DefaultTimeout bounds each request round trip.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseSize is the maximum allowed response body size.
	DefaultMaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTaskNotFound means the backend has no task under the given key.
	ErrTaskNotFound = errors.New("api: task not found")

	// ErrAccessDenied means the backend refused this worker entry to the task.
	ErrAccessDenied = errors.New("api: access denied")

	// ErrFileTooLarge means the file exceeds the configured upload limit.
	ErrFileTooLarge = errors.New("api: file exceeds upload limit")
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the backend REST API. Safe for concurrent use.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	maxRespBytes  int64
	maxUploadSize int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxResponseBytes overrides the response body cap.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) { c.maxRespBytes = n }
}

// WithMaxUploadBytes caps uploaded file size. 0 disables the check.
func WithMaxUploadBytes(n int64) Option {
	return func(c *Client) { c.maxUploadSize = n }
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		maxRespBytes: DefaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// TASK LOOKUP AND ACCESS VALIDATION
// =============================================================================

// getTaskResponse is the body of GET /api/get-task/{task}.
type getTaskResponse struct {
	Task *model.Task `json:"task"`
}

// GetTask fetches a task record by room key without an access check. Used
// for directors, who may enter any task that exists.
func (c *Client) GetTask(ctx context.Context, taskName string) (model.Task, error) {
	endpoint := c.baseURL + "/api/get-task/" + url.PathEscape(taskName)

	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, err
	}

	var parsed getTaskResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.Task{}, fmt.Errorf("failed to decode task response: %w", err)
	}
	if parsed.Task == nil {
		return model.Task{}, ErrTaskNotFound
	}
	return *parsed.Task, nil
}

// validateRequest is the body of POST /api/validate-task-access.
type validateRequest struct {
	WorkerName string `json:"workerName"`
	TaskName   string `json:"taskName"`
	Role       string `json:"role"`
}

// validateResponse is the corresponding response body.
type validateResponse struct {
	Valid   bool        `json:"valid"`
	Task    *model.Task `json:"task"`
	Message string      `json:"message"`
}

// ValidateTaskAccess asks the backend whether the worker may enter the task.
// A definitive "no" comes back as ErrAccessDenied; transport and server
// failures keep their own errors so callers can phrase them differently.
func (c *Client) ValidateTaskAccess(ctx context.Context, workerName, taskName, roleName string) (model.Task, error) {
	reqBody := validateRequest{
		WorkerName: workerName,
		TaskName:   taskName,
		Role:       roleName,
	}

	body, err := c.postJSON(ctx, c.baseURL+"/api/validate-task-access", reqBody)
	if err != nil {
		return model.Task{}, err
	}

	var parsed validateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.Task{}, fmt.Errorf("failed to decode validation response: %w", err)
	}
	// Access requires both the flag and a usable task record.
	if !parsed.Valid || parsed.Task == nil {
		if parsed.Message != "" {
			return model.Task{}, fmt.Errorf("%w: %s", ErrAccessDenied, parsed.Message)
		}
		return model.Task{}, ErrAccessDenied
	}
	return *parsed.Task, nil
}

// =============================================================================
// TASK DIRECTORY
// =============================================================================

// suggestionsResponse is the body of GET /taskforworkerdetail.
type suggestionsResponse struct {
	Data []model.TaskSuggestion `json:"data"`
}

// TaskSuggestions fetches the task directory for gate autocompletion.
func (c *Client) TaskSuggestions(ctx context.Context) ([]model.TaskSuggestion, error) {
	body, err := c.getJSON(ctx, c.baseURL+"/taskforworkerdetail")
	if err != nil {
		return nil, err
	}

	var parsed suggestionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions response: %w", err)
	}
	return parsed.Data, nil
}

// =============================================================================
// FILE UPLOAD
// =============================================================================

// uploadResponse is the body of POST /api/upload.
type uploadResponse struct {
	FileURL string `json:"fileUrl"`
	Message string `json:"message"`
}

// UploadFile uploads the file at path as multipart form data and returns
// the URL the backend stored it under, plus the base file name.
func (c *Client) UploadFile(ctx context.Context, path string) (fileURL, fileName string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("cannot upload a directory: %s", path)
	}
	if c.maxUploadSize > 0 && info.Size() > c.maxUploadSize {
		return "", "", fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, info.Size(), c.maxUploadSize)
	}

	fileName = filepath.Base(path)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return "", "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return "", "", err
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if parsed.FileURL == "" {
		return "", "", fmt.Errorf("upload succeeded but no file URL was returned")
	}
	return parsed.FileURL, fileName, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// getJSON performs a GET and returns the body of a 2xx response.
func (c *Client) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// postJSON performs a POST with a JSON body and returns the body of a 2xx
// response.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// do executes the request, logging method/path and status without bodies,
// and returns the response body or an *Error for non-2xx statuses.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logRequest(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := c.readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFromResponse(resp.StatusCode, body)
	}
	return body, nil
}

// readResponse reads the body with a size cap to avoid unbounded reads.
func (c *Client) readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, c.maxRespBytes)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == c.maxRespBytes {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", c.maxRespBytes)
	}
	return body, nil
}

// errorFromResponse builds an *Error, picking up a message field if the
// backend sent a JSON error body.
func (c *Client) errorFromResponse(status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &parsed) == nil {
		msg = parsed.Message
		if msg == "" {
			msg = parsed.Error
		}
	}
	return &Error{Status: status, Message: msg}
}

// logRequest logs an API request without exposing sensitive data.
// Does not log headers or bodies.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs an API response with duration. Status only, no body.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

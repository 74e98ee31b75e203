package webodm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend defines the WebODM calls the catalog pipeline depends on.
// This allows for faking the backend in tests.
type Backend interface {
	ListProjects(ctx context.Context, cred Credential) ([]Project, error)
	ListTasks(ctx context.Context, cred Credential, projectID int) ([]Task, error)
	GetTask(ctx context.Context, cred Credential, projectID int, taskID string) (*Task, error)
	GetPublicTask(ctx context.Context, taskID string) (*Task, error)
	GetPointCloudMetadata(ctx context.Context, cred Credential, projectID int, taskID string) (*PointCloudMetadata, error)
	GetRasterMetadata(ctx context.Context, cred Credential, projectID int, taskID, asset string) (*RasterMetadata, error)
	SetTaskPublic(ctx context.Context, cred Credential, projectID int, taskID string) (json.RawMessage, error)
}

// Ensure Client implements Backend
var _ Backend = (*Client)(nil)

// Keep error bodies small, they are only relayed for diagnostics
const maxErrorBody = 4096

// Client talks to a WebODM instance over its REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a WebODM client. timeout bounds every single call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL is the WebODM root the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProjects returns the caller's projects, newest first
func (c *Client) ListProjects(ctx context.Context, cred Credential) ([]Project, error) {
	var projects []Project
	if err := c.getJSON(ctx, cred, "/api/projects/?ordering=-created_at", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListTasks returns the tasks of a project, newest first
func (c *Client) ListTasks(ctx context.Context, cred Credential, projectID int) ([]Task, error) {
	var tasks []Task
	path := fmt.Sprintf("/api/projects/%d/tasks/?ordering=-created_at", projectID)
	if err := c.getJSON(ctx, cred, path, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, cred Credential, projectID int, taskID string) (*Task, error) {
	task := &Task{}
	path := fmt.Sprintf("/api/projects/%d/tasks/%s/", projectID, url.PathEscape(taskID))
	if err := c.getJSON(ctx, cred, path, task); err != nil {
		return nil, err
	}
	if task.Project == 0 {
		task.Project = projectID
	}
	return task, nil
}

// GetPublicTask fetches a task shared publicly. No credential is sent.
func (c *Client) GetPublicTask(ctx context.Context, taskID string) (*Task, error) {
	task := &Task{}
	path := fmt.Sprintf("/public/task/%s/json", url.PathEscape(taskID))
	if err := c.getJSON(ctx, "", path, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (c *Client) GetPointCloudMetadata(ctx context.Context, cred Credential, projectID int, taskID string) (*PointCloudMetadata, error) {
	md := &PointCloudMetadata{}
	if err := c.getJSON(ctx, cred, PointCloudMetadataPath(projectID, taskID), md); err != nil {
		return nil, err
	}
	return md, nil
}

// GetRasterMetadata fetches metadata of a raster asset (orthophoto, dsm or dtm)
func (c *Client) GetRasterMetadata(ctx context.Context, cred Credential, projectID int, taskID, asset string) (*RasterMetadata, error) {
	md := &RasterMetadata{}
	path := fmt.Sprintf("/api/projects/%d/tasks/%s/%s/metadata", projectID, url.PathEscape(taskID), url.PathEscape(asset))
	if err := c.getJSON(ctx, cred, path, md); err != nil {
		return nil, err
	}
	return md, nil
}

// SetTaskPublic flags a task as public and returns the updated task as sent by WebODM
func (c *Client) SetTaskPublic(ctx context.Context, cred Credential, projectID int, taskID string) (json.RawMessage, error) {
	path := fmt.Sprintf("/api/projects/%d/tasks/%s/", projectID, url.PathEscape(taskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader([]byte(`{"public":true}`)))
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.baseURL+"/")
	setCredential(req, cred)
	if token := csrfToken(cred); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &TransportError{Cause: fmt.Errorf("invalid JSON in response to PATCH %s", path)}
	}
	return json.RawMessage(body), nil
}

// PointCloudMetadataPath is the ept.json location, also used as the tileset source
func PointCloudMetadataPath(projectID int, taskID string) string {
	return fmt.Sprintf("/api/projects/%d/tasks/%s/assets/entwine_pointcloud/ept.json", projectID, url.PathEscape(taskID))
}

func (c *Client) getJSON(ctx context.Context, cred Credential, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &TransportError{Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	setCredential(req, cred)

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Cause: fmt.Errorf("failed to decode %s: %w", path, err)}
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(errBody),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("failed to read response body: %w", err)}
	}
	return body, nil
}

func setCredential(req *http.Request, cred Credential) {
	if cred != "" {
		req.Header.Set("Cookie", string(cred))
	}
}

// csrfToken extracts the Django csrftoken cookie, empty if absent
func csrfToken(cred Credential) string {
	cookies, err := http.ParseCookie(string(cred))
	if err != nil {
		// A single malformed pair makes ParseCookie bail, fall back to a lenient scan
		for _, part := range strings.Split(string(cred), ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
			if ok && name == "csrftoken" {
				return strings.TrimSpace(value)
			}
		}
		return ""
	}
	for _, ck := range cookies {
		if ck.Name == "csrftoken" {
			return ck.Value
		}
	}
	return ""
}

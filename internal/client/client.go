// Package client implements the HTTP contract of the remote analysis service.
// All requests are form-encoded POSTs; responses are JSON. The service is an
// opaque collaborator: this package never interprets review content beyond
// decoding it into the domain types.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crview/crview/internal/models"
)

const defaultTimeout = 120 * time.Second

// FilePayload is one file attached to an upload request.
type FilePayload struct {
	Filename string
	Content  []byte
}

// Service is the remote API surface the controller depends on. The concrete
// Client talks HTTP; tests substitute fakes.
type Service interface {
	Login(ctx context.Context, username, password string) (models.Session, error)
	Register(ctx context.Context, username, password string) (models.Session, error)
	UploadFile(ctx context.Context, userID string, file FilePayload) (*models.ReviewResult, error)
	UploadFiles(ctx context.Context, userID string, files []FilePayload) (*models.ReviewResult, error)
	UploadArchive(ctx context.Context, userID string, archive FilePayload) (*models.ReviewResult, error)
	FetchHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error)
}

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL. A zero timeout falls back
// to the default; uploads of whole archives can take a while, so the default
// is generous.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

var _ Service = (*Client)(nil)

// authResponse is the envelope of the login/register endpoints.
type authResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	User    struct {
		UserID   string `json:"userid"`
		Username string `json:"username"`
	} `json:"user"`
}

// historyResponse is the envelope of the history endpoint.
type historyResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    []models.HistoryRecord `json:"data"`
}

// errorBody covers the failure shapes the service emits: an envelope with a
// message, or a bare detail field.
type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	return c.auth(ctx, "/auth/login/", username, password)
}

func (c *Client) Register(ctx context.Context, username, password string) (models.Session, error) {
	return c.auth(ctx, "/auth/register/", username, password)
}

func (c *Client) auth(ctx context.Context, path, username, password string) (models.Session, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return models.Session{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := c.do(req)
	if err != nil {
		return models.Session{}, err
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Session{}, &TransportError{StatusCode: status, Message: "malformed auth response"}
	}
	if status < 200 || status >= 300 || resp.Status != "success" {
		return models.Session{}, &TransportError{StatusCode: status, Message: serverMessage(body, resp.Message)}
	}
	return models.Session{UserID: resp.User.UserID, Username: resp.User.Username}, nil
}

func (c *Client) UploadFile(ctx context.Context, userID string, file FilePayload) (*models.ReviewResult, error) {
	return c.upload(ctx, "/upload/file/", userID, "file", []FilePayload{file})
}

func (c *Client) UploadFiles(ctx context.Context, userID string, files []FilePayload) (*models.ReviewResult, error) {
	return c.upload(ctx, "/upload/files/", userID, "files", files)
}

func (c *Client) UploadArchive(ctx context.Context, userID string, archive FilePayload) (*models.ReviewResult, error) {
	return c.upload(ctx, "/upload/folder/", userID, "zip_file", []FilePayload{archive})
}

// upload posts a multipart form with the session user id and the file
// payload(s) under the endpoint's field name, then decodes the result
// document. The canonical identity key on every path is user_id.
func (c *Client) upload(ctx context.Context, path, userID, field string, files []FilePayload) (*models.ReviewResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("user_id", userID); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("building form: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("building form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &TransportError{StatusCode: status, Message: serverMessage(body, "")}
	}

	var result models.ReviewResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &TransportError{StatusCode: status, Message: fmt.Sprintf("malformed review result: %v", err)}
	}
	// The service marks degenerate results (e.g. an archive with no
	// reviewable files) in the embedded metadata rather than the HTTP status.
	if result.Metadata.Status != "" && result.Metadata.Status != "success" {
		return nil, &TransportError{StatusCode: status, Message: serverMessage(body, result.Metadata.Message)}
	}
	return &result, nil
}

func (c *Client) FetchHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	form := url.Values{}
	form.Set("user_id", userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/user/uploads/",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{StatusCode: status, Message: "malformed history response"}
	}
	if status < 200 || status >= 300 || resp.Status != "success" {
		return nil, &TransportError{StatusCode: status, Message: serverMessage(body, resp.Message)}
	}
	return resp.Data, nil
}

// do executes the request and reads the body. Transport-level failures come
// back as TransportError; the caller interprets status codes.
func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &TransportError{StatusCode: resp.StatusCode, Message: "reading response"}
	}
	return body, resp.StatusCode, nil
}

// serverMessage extracts the failure message the server sent, preferring an
// already-decoded one. Surfaced verbatim to the user.
func serverMessage(body []byte, decoded string) string {
	if decoded != "" {
		return decoded
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Detail != "" {
			return eb.Detail
		}
	}
	return ""
}

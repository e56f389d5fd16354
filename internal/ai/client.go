package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client implements Gateway over the gateway's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a gateway client. Analysis calls can run for
// minutes, so the timeout is caller-configured rather than fixed.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("AI_GATEWAY_URL is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type uploadResponse struct {
	FileID string `json:"fileId"`
}

// EnsureUploaded sends the file as multipart form data with its
// fingerprint; the gateway deduplicates on fingerprint and returns
// the existing file ID for repeated content.
func (c *Client) EnsureUploaded(ctx context.Context, fileName, fingerprint string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("fingerprint", fingerprint); err != nil {
		return "", err
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var parsed uploadResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	if parsed.FileID == "" {
		return "", fmt.Errorf("%w: upload response missing fileId", ErrUnavailable)
	}
	return parsed.FileID, nil
}

type textResponse struct {
	Text string `json:"text"`
}

func (c *Client) Analyze(ctx context.Context, fileID string) (string, error) {
	return c.fileOperation(ctx, fileID, "analyze")
}

func (c *Client) Summarize(ctx context.Context, fileID string) (string, error) {
	return c.fileOperation(ctx, fileID, "summary")
}

func (c *Client) Insights(ctx context.Context, fileID string) (string, error) {
	return c.fileOperation(ctx, fileID, "insights")
}

type queryRequest struct {
	Prompt string `json:"prompt"`
}

func (c *Client) Query(ctx context.Context, fileID, prompt string) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/v1/files/"+fileID+"/query", queryRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	var parsed textResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	return parsed.Text, nil
}

func (c *Client) fileOperation(ctx context.Context, fileID, operation string) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/v1/files/"+fileID+"/"+operation, nil)
	if err != nil {
		return "", err
	}
	var parsed textResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	return parsed.Text, nil
}

type searchRequest struct {
	Query   string   `json:"query"`
	FileIDs []string `json:"fileIds,omitempty"`
}

func (c *Client) Search(ctx context.Context, query string, fileIDs []string) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/v1/search", searchRequest{Query: query, FileIDs: fileIDs})
	if err != nil {
		return "", err
	}
	var parsed textResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	return parsed.Text, nil
}

type chatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/v1/chat", chatRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	var parsed textResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	return parsed.Text, nil
}

func (c *Client) Health(ctx context.Context) error {
	req, err := c.jsonRequest(ctx, http.MethodGet, "/v1/health", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

type gatewayError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// do runs the request with the API key attached and maps gateway
// failures onto the package sentinels.
func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return fmt.Errorf("%w: request timeout: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		message := strings.TrimSpace(string(body))
		var parsed gatewayError
		if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, message)
		}
		return fmt.Errorf("%w: status %d: %s", ErrBadRequest, resp.StatusCode, message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: response parse: %v", ErrUnavailable, err)
	}
	return nil
}

var _ Gateway = (*Client)(nil)

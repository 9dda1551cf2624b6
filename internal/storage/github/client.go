// Package github talks to the GitHub contents API, which TaskFlow uses as a
// dumb versioned file store: one JSON document per board, guarded by the
// content SHA for optimistic concurrency.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// File is a fetched repository file. SHA is the opaque concurrency token the
// contents API requires on updates; callers pass it back via SaveFile.
type File struct {
	Content string
	SHA     string
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string
	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
	// Logger receives request diagnostics. Defaults to stderr.
	Logger *log.Logger
}

// Client is a minimal GitHub contents-API client scoped to one repository.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// NewClient creates a client for the repository in cfg. The client is usable
// even when cfg is incomplete; operations then fail with ErrNotConfigured.
func NewClient(cfg Config, opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[github] ", log.LstdFlags)
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		logger:  opts.Logger,
	}
}

// IsConfigured reports whether the client has a token and repository.
func (c *Client) IsConfigured() bool {
	return c.cfg.IsConfigured()
}

// Repo returns the "owner/name" the client is bound to.
func (c *Client) Repo() string {
	return c.cfg.Repo
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// GetFile fetches path from the configured branch. Returns ErrNotFound when
// the file does not exist yet.
func (c *Client) GetFile(ctx context.Context, path string) (*File, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	u := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s",
		c.baseURL, c.cfg.Repo, path, url.QueryEscape(c.cfg.Branch))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, c.apiError("fetch", path, resp)
	}

	var body contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode contents response: %w", err)
	}

	// The API base64-encodes content with embedded newlines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}
	return &File{Content: string(decoded), SHA: body.SHA}, nil
}

// SaveFile writes content to path with a commit message. sha is the token
// from the last GetFile; pass "" when creating the file. A mismatched sha
// means someone else pushed since the fetch, reported as ErrStaleContent.
func (c *Client) SaveFile(ctx context.Context, path, content, message, sha string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  c.cfg.Branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode save request: %w", err)
	}

	u := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, c.cfg.Repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// 409 and 422 both signal a sha mismatch depending on how the file
		// changed upstream.
		return fmt.Errorf("failed to save %s: %w", path, ErrStaleContent)
	default:
		return c.apiError("save", path, resp)
	}
}

// TestConnection verifies the token can see the configured repository.
func (c *Client) TestConnection(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	u := fmt.Sprintf("%s/repos/%s", c.baseURL, c.cfg.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach GitHub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError("access", c.cfg.Repo, resp)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

func (c *Client) apiError(op, path string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.logger.Printf("%s %s: HTTP %d: %s", op, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	return fmt.Errorf("failed to %s %s: HTTP %d", op, path, resp.StatusCode)
}

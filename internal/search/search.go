// SPDX-License-Identifier: MPL-2.0

// Package search queries the GitHub repository search API for content
// packages. Packages are discovered by the acp-package marker in repository
// names, descriptions, and topics.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"acp-cli/internal/issue"
)

const (
	// packageMarker narrows searches to repositories that advertise
	// themselves as content packages.
	packageMarker = "acp-package"

	// maxResponseBytes caps how much of a search response body is decoded.
	maxResponseBytes = 4 << 20

	// defaultLimit is the result count when the caller does not set one.
	defaultLimit = 20
)

type (
	// Repository is one search hit.
	Repository struct {
		FullName    string
		Description string
		Stars       int
		UpdatedAt   time.Time
		HTMLURL     string
		Topics      []string
	}

	// Query is a composed search request.
	Query struct {
		// Text is the free-text portion of the search.
		Text string
		// Tag restricts results to repositories carrying the topic.
		Tag string
		// User restricts results to a user's repositories.
		User string
		// Org restricts results to an organization's repositories.
		Org string
		// Sort orders results: "stars", "updated", or "" for best match.
		Sort string
		// Limit caps the number of results returned.
		Limit int
	}

	// githubSearchResponse is the JSON wire format for a repository search.
	githubSearchResponse struct {
		TotalCount int          `json:"total_count"`
		Items      []githubRepo `json:"items"`
	}

	// githubRepo is the JSON wire format for one repository item.
	githubRepo struct {
		FullName    string   `json:"full_name"`
		Description string   `json:"description"`
		Stars       int      `json:"stargazers_count"`
		UpdatedAt   string   `json:"updated_at"`
		HTMLURL     string   `json:"html_url"`
		Topics      []string `json:"topics"`
	}

	// githubErrorResponse is the JSON wire format for an API error body.
	githubErrorResponse struct {
		Message string `json:"message"`
	}

	// Client queries the GitHub search API.
	Client struct {
		httpClient *http.Client
		baseURL    string // API base URL (default: "https://api.github.com", overridable for tests)
		token      string // Optional GITHUB_TOKEN for authenticated requests
		userAgent  string // User-Agent header value
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy
// configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *Client) {
		s.httpClient = c
	}
}

// WithBaseURL overrides the GitHub API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(s *Client) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets a GitHub personal access token for authenticated requests.
// Authenticated requests have a higher rate limit.
func WithToken(token string) ClientOption {
	return func(s *Client) {
		s.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(s *Client) {
		s.userAgent = ua
	}
}

// NewClient creates a Client with sensible defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    "https://api.github.com",
		userAgent:  "acp/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a repository search and returns up to q.Limit hits.
func (c *Client) Search(ctx context.Context, q Query) ([]Repository, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	params := url.Values{}
	params.Set("q", composeQuery(q))
	params.Set("per_page", strconv.Itoa(limit))
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	reqURL := fmt.Sprintf("%s/search/repositories?%s", c.baseURL, params.Encode())

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindNetwork).
			WithOperation("search packages").
			WithSuggestion("Check your network connection").
			Wrap(err).
			BuildError()
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body.

	body := io.LimitReader(resp.Body, maxResponseBytes)

	if resp.StatusCode != http.StatusOK {
		return nil, searchError(resp, body)
	}

	var raw githubSearchResponse
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	repos := make([]Repository, 0, len(raw.Items))
	for _, item := range raw.Items {
		repos = append(repos, toRepository(item))
	}
	if len(repos) > limit {
		repos = repos[:limit]
	}
	return repos, nil
}

// composeQuery builds the GitHub search query string, scoping the free text
// to package repositories and appending the optional qualifiers.
func composeQuery(q Query) string {
	parts := []string{}
	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, text)
	}
	parts = append(parts, packageMarker, "in:name,description,topics")
	if q.Tag != "" {
		parts = append(parts, "topic:"+q.Tag)
	}
	if q.User != "" {
		parts = append(parts, "user:"+q.User)
	}
	if q.Org != "" {
		parts = append(parts, "org:"+q.Org)
	}
	return strings.Join(parts, " ")
}

// doRequest creates and executes an HTTP request with common GitHub API headers.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// searchError turns a non-200 search response into an actionable error,
// surfacing rate limit details when the quota is exhausted.
func searchError(resp *http.Response, body io.Reader) error {
	var apiErr githubErrorResponse
	_ = json.NewDecoder(body).Decode(&apiErr) //nolint:errcheck // Best-effort message extraction.

	if rateLimited(resp) {
		msg := "GitHub API rate limit exceeded"
		if reset := resetTime(resp); !reset.IsZero() {
			msg = fmt.Sprintf("%s (resets at %s)", msg, reset.UTC().Format("15:04 UTC"))
		}
		return issue.NewErrorContext().
			WithKind(issue.KindNetwork).
			WithOperation("search packages").
			WithSuggestion("Wait for the rate limit to reset").
			WithSuggestion("Set GITHUB_TOKEN for a higher quota").
			Wrap(fmt.Errorf("%s", msg)).
			BuildError()
	}

	detail := apiErr.Message
	if detail == "" {
		detail = resp.Status
	}
	return issue.NewErrorContext().
		WithKind(issue.KindNetwork).
		WithOperation("search packages").
		Wrap(fmt.Errorf("GitHub API: %s", detail)).
		BuildError()
}

// rateLimited reports whether the response indicates an exhausted quota.
// Only the header value is examined, not the status code.
func rateLimited(resp *http.Response) bool {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return false
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil {
		return false
	}
	return rem == 0
}

// resetTime parses the X-RateLimit-Reset header, zero time when absent.
func resetTime(resp *http.Response) time.Time {
	unix, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil || unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

// toRepository converts the wire format to the public type.
func toRepository(r githubRepo) Repository {
	updated, _ := time.Parse(time.RFC3339, r.UpdatedAt) //nolint:errcheck // Zero time for malformed stamps.
	return Repository{
		FullName:    r.FullName,
		Description: r.Description,
		Stars:       r.Stars,
		UpdatedAt:   updated,
		HTMLURL:     r.HTMLURL,
		Topics:      r.Topics,
	}
}

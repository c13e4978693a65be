// Package indiankanoon wraps the outbound Indian Kanoon search API: a
// paginated full-text search call plus a fetch-full-document-by-id call.
// The two calls have deliberately different failure contracts.  Search is
// best-effort and never returns an error (a failed page is an empty page the
// orchestrator may retry); FetchDetail returns typed errors so callers can
// count and isolate per-record failures.
package indiankanoon

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

	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"

	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
)

// DefaultTimeout bounds every provider call.
const DefaultTimeout = 30 * time.Second

// ErrNoResponse is returned by FetchDetail when the request never produced an
// HTTP response (DNS failure, refused connection, timeout).
var ErrNoResponse = appErrors.New(appErrors.ErrCodeProviderNoResponse, "no response from search provider")

// ProviderError is returned by FetchDetail when the provider answered with a
// non-2xx status.  The body is retained (truncated) for diagnostics.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// SearchDoc is one result row of the provider's search response.
type SearchDoc struct {
	TID         int64  `json:"tid"`
	Title       string `json:"title"`
	Headline    string `json:"headline"`
	DocSource   string `json:"docsource"`
	PublishDate string `json:"publishdate"`
	DocSize     int    `json:"docsize"`
	NumCitedBy  int    `json:"numcitedby"`
}

// SearchResponse is the provider's search envelope.  Found is a display
// string like "1 - 10 of 4521", not a number.
type SearchResponse struct {
	Docs  []SearchDoc `json:"docs"`
	Found string      `json:"found"`
}

// DocResponse is the provider's full-document response.
type DocResponse struct {
	TID        int64  `json:"tid"`
	Doc        string `json:"doc"`
	NumCites   int    `json:"numcites"`
	NumCitedBy int    `json:"numcitedby"`
	CiteTID    string `json:"citetid"`
	DivType    string `json:"divtype"`
	CourtCopy  bool   `json:"courtcopy"`
	Agreement  bool   `json:"agreement"`
	QueryAlert string `json:"queryAlert"`
}

// Client talks to the Indian Kanoon API.  Construct with NewClient.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.  Used by tests and by
// deployments that need custom transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient builds a provider client for the given API endpoint and
// bearer token.
func NewClient(endpoint, token string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search issues one paginated search call and returns the matching summary
// rows.  The optional year is appended to the query text as a literal token
// (the provider has no structured year filter).  Any failure, transport,
// HTTP or parse, yields an empty slice and a warn log entry; Search never
// returns an error so callers retry or skip rather than abort.
func (c *Client) Search(ctx context.Context, query string, page int, year string) []SearchDoc {
	formInput := query
	if year != "" {
		formInput = query + " " + year
	}

	form := url.Values{}
	form.Set("formInput", formInput)
	form.Set("pagenum", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/search/", strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Warn("search request build failed", logging.Err(err))
		return nil
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("search call failed",
			logging.String("query", formInput),
			logging.Int("page", page),
			logging.Err(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readBody(resp.Body)
		c.logger.Warn("search returned non-2xx status",
			logging.Int("status", resp.StatusCode),
			logging.Int("page", page),
			logging.String("body", body))
		return nil
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		c.logger.Warn("search response parse failed",
			logging.Int("page", page),
			logging.Err(err))
		return nil
	}
	return sr.Docs
}

// FetchDetail retrieves the full document for a TID.  It validates tid > 0
// up front, classifies transport failures as ErrNoResponse, and surfaces
// non-2xx answers as *ProviderError.  No caching happens at this layer.
func (c *Client) FetchDetail(ctx context.Context, tid int64) (*DocResponse, error) {
	if tid <= 0 {
		return nil, appErrors.New(appErrors.ErrCodeCaseInvalidTID,
			fmt.Sprintf("tid must be positive, got %d", tid))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/doc/%d/", c.endpoint, tid), nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeProviderUnavailable, "failed to build detail request")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch detail tid=%d: %w", tid, ErrNoResponse)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}

	var dr DocResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeProviderParseError,
			fmt.Sprintf("failed to parse detail response for tid %d", tid))
	}
	if dr.TID == 0 {
		dr.TID = tid
	}
	return &dr, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost && req.Body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
}

// readBody drains up to 2 KiB of a response body for error reporting.
func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(b))
}

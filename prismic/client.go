// Package prismic is a small client for the Prismic REST API v2. It covers
// the queries a read-only front-end needs: list documents of a type, fetch a
// document by UID and follow a next_page link.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("prismic: document not found")

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prismic: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("prismic: unexpected status %d: %s", e.StatusCode, e.Message)
}

const maxErrorBody = 4 << 10

// Client talks to a single Prismic repository.
type Client struct {
	endpoint    string
	accessToken string
	ref         string
	httpClient  *http.Client
	log         *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sets the token sent with every request.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRef pins queries to ref instead of looking up the master ref.
func WithRef(ref string) Option {
	return func(c *Client) {
		c.ref = ref
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a Client for the API endpoint, e.g.
// "https://my-repo.cdn.prismic.io/api/v2".
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the API endpoint the client was created with.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ref returns the pinned ref or looks up the repository's master ref.
func (c *Client) Ref(ctx context.Context) (string, error) {
	if c.ref != "" {
		return c.ref, nil
	}
	var api API
	if err := c.get(ctx, c.withToken(c.endpoint), &api); err != nil {
		return "", fmt.Errorf("prismic: read api: %w", err)
	}
	for _, r := range api.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", fmt.Errorf("prismic: no master ref in api document")
}

// ListByType returns one page of documents of the given type.
func (c *Client) ListByType(ctx context.Context, docType string, q Query) (*Response, error) {
	return c.search(ctx, At("document.type", docType), q)
}

// GetByUID returns the document of the given type with the given UID.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (*Document, error) {
	resp, err := c.search(ctx, At("my."+docType+".uid", uid), Query{PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// FetchPage follows a next_page URL from a previous response.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Response, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("prismic: empty page url")
	}
	var resp Response
	if err := c.get(ctx, c.withToken(pageURL), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) search(ctx context.Context, predicate string, q Query) (*Response, error) {
	ref, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := c.get(ctx, c.searchURL(ref, predicate, q), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) searchURL(ref, predicate string, q Query) string {
	v := url.Values{}
	v.Set("ref", ref)
	v.Set("q", "["+predicate+"]")
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if len(q.Fetch) > 0 {
		v.Set("fetch", strings.Join(q.Fetch, ","))
	}
	if q.Orderings != "" {
		v.Set("orderings", q.Orderings)
	}
	if c.accessToken != "" {
		v.Set("access_token", c.accessToken)
	}
	return c.endpoint + "/documents/search?" + v.Encode()
}

// withToken adds the access token to rawURL unless it already carries one.
func (c *Client) withToken(rawURL string) string {
	if c.accessToken == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	v := u.Query()
	if v.Get("access_token") != "" {
		return rawURL
	}
	v.Set("access_token", c.accessToken)
	u.RawQuery = v.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	c.log.WithFields(logrus.Fields{
		"path":    req.URL.Path,
		"status":  res.StatusCode,
		"latency": time.Since(start),
	}).Debug("prismic request")

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &APIError{StatusCode: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("prismic: decode response: %w", err)
	}
	return nil
}

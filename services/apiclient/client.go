package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/gimvicurnik/urnik/core"
)

type forceKey struct{}

// Force marks `ctx` so that requests made with it bypass cached responses.
func Force(ctx context.Context) context.Context {
	return context.WithValue(ctx, forceKey{}, true)
}

func IsForced(ctx context.Context) bool {
	forced, _ := ctx.Value(forceKey{}).(bool)
	return forced
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Path   string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.Path, e.Status)
}

// IsNotFound reports whether err is an HTTPError with status 404.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	rest    *rest.Client
	schemas *Schemas
}

var _ core.Fetcher = (*Client)(nil)

// New returns a Client for the API at `baseURL`. Requests go through `httpClient`, so its
// transport decides whether responses come from a cache.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(baseURL, "baseURL"),
		vala.IsNotNil(httpClient, "httpClient"),
	).Check(); err != nil {
		return nil, err
	}

	schemas, err := LoadSchemas()
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: httpClient},
		schemas: schemas,
	}, nil
}

func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Get fetches `path`, validates the payload when a schema is known for it and decodes it into
// `dst`.
func (c *Client) Get(ctx context.Context, path string, dst interface{}) error {
	headers := map[string]string{"Accept": "application/json"}
	if IsForced(ctx) {
		headers["Cache-Control"] = "no-cache"
	}
	req := rest.Request{
		Method:  rest.Get,
		BaseURL: c.URL(path),
		Headers: headers,
	}

	resp, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Path: path, Status: resp.StatusCode}
	}

	body := []byte(resp.Body)
	if err = c.schemas.Validate(path, body); err != nil {
		return err
	}
	if err = json.Unmarshal(body, dst); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}

package remote

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/fieldsync/internal/model"
)

//go:embed schema.graphql
var schemaSource string

//go:embed customers.graphql
var customersQuery string

var tracer = otel.Tracer("github.com/roach88/fieldsync/internal/remote")

// DefaultTimeout bounds a single fetch when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// ErrNoEndpoint is returned by NewClient when the endpoint is empty.
var ErrNoEndpoint = errors.New("remote: no graphql endpoint configured")

// Client talks to the backend GraphQL endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    http.Header
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers.Add(key, value) }
}

// NewClient builds a client for endpoint after checking the embedded query
// documents against the embedded schema.
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if err := validateQueries(customersQuery); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		headers:    http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// validateQueries parses each query document against the schema.
func validateQueries(queries ...string) error {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSource})
	if err != nil {
		return fmt.Errorf("load graphql schema: %w", err)
	}
	for _, q := range queries {
		if _, errs := gqlparser.LoadQuery(schema, q); len(errs) > 0 {
			return fmt.Errorf("invalid graphql query: %w", errs)
		}
	}
	return nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type customersResponse struct {
	Data struct {
		Customer []model.RemoteCustomer `json:"Customer"`
	} `json:"data"`
	Errors gqlerror.List `json:"errors"`
}

// FetchCustomers returns every customer of companyID.
// GraphQL errors and non-2xx statuses are returned as errors.
func (c *Client) FetchCustomers(ctx context.Context, companyID int64) ([]model.RemoteCustomer, error) {
	ctx, span := tracer.Start(ctx, "remote.FetchCustomers",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int64("company.id", companyID)),
	)
	defer span.End()

	var resp customersResponse
	if err := c.do(ctx, customersQuery, map[string]any{"companyId": companyID}, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch customers: %w", err)
	}
	if len(resp.Errors) > 0 {
		span.RecordError(resp.Errors)
		span.SetStatus(codes.Error, "graphql errors")
		return nil, fmt.Errorf("fetch customers: %w", resp.Errors)
	}

	span.SetAttributes(attribute.Int("customers.count", len(resp.Data.Customer)))
	return resp.Data.Customer, nil
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Code: res.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, body)
}

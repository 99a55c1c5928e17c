package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/resilience"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/retry"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
)

const maxResponseBytes = 10 << 20

// Executor runs one GraphQL document against a shop's Admin API and decodes
// the data object into out.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]any, out any) error
}

type GraphQLError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		if ge.Extensions.Code != "" {
			msgs = append(msgs, fmt.Sprintf("%s (%s)", ge.Message, ge.Extensions.Code))
			continue
		}
		msgs = append(msgs, ge.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors GraphQLErrors   `json:"errors"`
}

// StatusError is a non-2xx answer from Shopify.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shopify responded %d: %s", e.Status, e.Body)
}

func (e *StatusError) StatusCode() int {
	return e.Status
}

type ClientConfig struct {
	APIVersion string
	Timeout    time.Duration
	Breaker    *resilience.CircuitBreaker
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	apiVersion string
	breaker    *resilience.CircuitBreaker
	endpoint   func(shop, apiVersion string) string
	log        *logger.Logger
}

func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient: hc,
		apiVersion: cfg.APIVersion,
		breaker:    cfg.Breaker,
		endpoint:   adminEndpoint,
		log:        log,
	}
}

func adminEndpoint(shop, apiVersion string) string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, apiVersion)
}

// ForShop binds the client to one shop and its offline access token.
func (c *Client) ForShop(shop, accessToken string) *ShopClient {
	return &ShopClient{client: c, shop: shop, accessToken: accessToken}
}

type ShopClient struct {
	client      *Client
	shop        string
	accessToken string
}

func (s *ShopClient) Shop() string {
	return s.shop
}

func (s *ShopClient) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	operation := OperationName(query)
	start := time.Now()

	call := func(ctx context.Context) error {
		return s.do(ctx, query, variables, out)
	}

	var err error
	if s.client.breaker != nil {
		err = s.client.breaker.Call(ctx, call)
	} else {
		err = call(ctx)
	}

	metrics.ShopifyRequestDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	metrics.ShopifyRequestsTotal.WithLabelValues(operation, resultLabel(err)).Inc()

	if err != nil {
		s.client.log.WithFields(ctx, logger.Fields{
			"shop":      s.shop,
			"operation": operation,
			"action":    "shopify_graphql_failed",
		}).Warnf("shopify graphql call failed: %v", err)
		return classify(err)
	}
	return nil
}

func (s *ShopClient) do(ctx context.Context, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.endpoint(s.shop, s.client.apiVersion), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", s.accessToken)

	res, err := s.client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{Status: res.StatusCode, Body: truncate(string(raw), 512)}
	}

	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return gr.Errors
	}
	if out == nil || len(gr.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

// classify maps transport outcomes onto the shared error taxonomy.
func classify(err error) error {
	if commonerrors.IsDomainError(err) {
		return err
	}
	if retry.IsTimeout(err) {
		return commonerrors.ErrUpstreamTimeout.WithCause(err)
	}
	return commonerrors.ErrUpstream.WithCause(err)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var gqlErrs GraphQLErrors
	var statusErr *StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, commonerrors.ErrCircuitOpen):
		return "circuit_open"
	case retry.IsTimeout(err):
		return "timeout"
	case errors.As(err, &gqlErrs):
		return "graphql_error"
	case errors.As(err, &statusErr):
		return "http_error"
	case errors.As(err, &netErr):
		return "network_error"
	default:
		return "error"
	}
}

var operationNameRegex = regexp.MustCompile(`^\s*(?:query|mutation)\s+([A-Za-z_][A-Za-z0-9_]*)`)

func OperationName(query string) string {
	if m := operationNameRegex.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return "anonymous"
}

// IsBreakerFailure counts only failures that say something about Shopify
// itself. The breaker is shared by every shop, so caller cancellations,
// GraphQL errors and per-shop 4xx answers (revoked token, missing scope)
// do not open it. 429 still counts.
func IsBreakerFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var gqlErrs GraphQLErrors
	if errors.As(err, &gqlErrs) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == http.StatusTooManyRequests || statusErr.Status >= 500
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Query is a typed convenience over Executor.
func Query[T any](ctx context.Context, exec Executor, query string, variables map[string]any) (T, error) {
	var out T
	err := exec.Execute(ctx, query, variables, &out)
	return out, err
}

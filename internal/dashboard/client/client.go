package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/config"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/retry"
	storedomain "github.com/AlibekovAA/shop-dash/backend/internal/store/domain"
	userdomain "github.com/AlibekovAA/shop-dash/backend/internal/user/domain"
)

const maxBodyBytes = 4 << 20

// APIError is a non-2xx answer from the admin backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *APIError) StatusCode() int {
	return e.Status
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client reads dashboard data from the admin backend. Timed-out fetches
// are retried according to its policy.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     retry.Policy
	sleep      retry.Sleeper
	log        *logger.Logger
}

func New(cfg config.DashboardConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.SessionToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy:     retry.DashboardPolicy(cfg.RetryAttempts, cfg.RetryDelay),
		log:        log,
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	op := func(ctx context.Context) error { return c.fetch(ctx, path, out) }
	if c.sleep != nil {
		return retry.DoWithSleeper(ctx, c.log, "GET "+path, c.policy, c.sleep, op)
	}
	return retry.Do(ctx, c.log, "GET "+path, c.policy, op)
}

func (c *Client) fetch(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s: %w", path, decodeErr)
	}
	if !env.Success {
		return errors.New("admin backend reported failure without an error body")
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) Summary(ctx context.Context) (storedomain.Summary, error) {
	var sum storedomain.Summary
	err := c.get(ctx, "/api/dashboard/summary", &sum)
	return sum, err
}

func (c *Client) Orders(ctx context.Context) ([]storedomain.Order, error) {
	var out struct {
		Orders []storedomain.Order `json:"orders"`
	}
	err := c.get(ctx, "/api/orders/all", &out)
	return out.Orders, err
}

func (c *Client) Products(ctx context.Context) ([]storedomain.Product, error) {
	var out struct {
		Products []storedomain.Product `json:"products"`
	}
	err := c.get(ctx, "/api/products/all", &out)
	return out.Products, err
}

func (c *Client) Users(ctx context.Context) ([]userdomain.RegisteredUser, error) {
	var out struct {
		Users []userdomain.RegisteredUser `json:"users"`
	}
	err := c.get(ctx, "/api/users", &out)
	return out.Users, err
}

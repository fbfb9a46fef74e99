package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"shiptrack/internal/config"
	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
	"shiptrack/internal/metrics"
)

const maxBodyBytes = 4 << 20

// Client talks to the shop-scoped commerce API with bearer authentication.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.ShopConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Get fetches a JSON resource; non-2xx responses and transport failures both
// come back as UpstreamError.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, status, _, err := c.do(ctx, path, query)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		metrics.UpstreamRequests.WithLabelValues("http_error").Inc()
		return nil, apperrors.NewUpstreamError(
			fmt.Sprintf("upstream returned %d for %s", status, path), status, nil)
	}
	metrics.UpstreamRequests.WithLabelValues("ok").Inc()
	return body, nil
}

// GetRaw fetches a resource without interpreting the status code. Used by the
// shape diagnostics, which mirror whatever the upstream answered.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) (body []byte, status int, contentType string, err error) {
	return c.do(ctx, path, query)
}

// GetOrder fetches a single order by id through the envelope normalizer.
func (c *Client) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	body, err := c.Get(ctx, "/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.Order{}, err
	}
	return UnwrapOrder(body), nil
}

// GetOrders fetches an order listing through the envelope normalizer and
// returns the last-page hint alongside it.
func (c *Client) GetOrders(ctx context.Context, query url.Values) ([]domain.Order, int, error) {
	body, err := c.Get(ctx, "/orders", query)
	if err != nil {
		return nil, 1, err
	}
	orders, lastPage := UnwrapOrderList(body)
	return orders, lastPage, nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values) ([]byte, int, string, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, "", apperrors.NewUpstreamError("building upstream request", 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("network_error").Inc()
		c.logger.Warn("upstream request failed", zap.String("path", path), zap.Error(err))
		return nil, 0, "", apperrors.NewUpstreamError("upstream request failed", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("network_error").Inc()
		return nil, 0, "", apperrors.NewUpstreamError("reading upstream response", 0, err)
	}

	return body, resp.StatusCode, resp.Header.Get("Content-Type"), nil
}

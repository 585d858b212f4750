package g2apay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	liveCheckoutURL    = "https://checkout.pay.g2a.com"
	sandboxCheckoutURL = "https://checkout.test.pay.g2a.com"
	liveRestURL        = "https://pay.g2a.com"
	sandboxRestURL     = "https://www.test.pay.g2a.com"

	statusOK = "ok"
)

// QuoteResponse is the processor reply to createQuote and refund calls.
type QuoteResponse struct {
	Status        string `json:"status"`
	Token         string `json:"token"`
	TransactionID string `json:"transactionId"`
}

// OK reports whether the processor accepted the request.
func (r *QuoteResponse) OK() bool {
	return strings.EqualFold(r.Status, statusOK)
}

// ClientOptions override the processor base URLs, used for sandboxes
// behind proxies and for tests.
type ClientOptions struct {
	CheckoutURL string
	RestURL     string
}

// Client is the REST client for the payment processor. All calls run
// through a circuit breaker so a degraded processor fails fast instead
// of tying up request handlers.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	opts       ClientOptions
	logger     logger.Logger
}

func NewClient(opts ClientOptions, logger logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "g2apay-rest",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
		opts:       opts,
		logger:     logger,
	}
}

// CheckoutURL returns the hosted checkout base for the credential's
// environment.
func (c *Client) CheckoutURL(cfg settings.PaymentSettings) string {
	if c.opts.CheckoutURL != "" {
		return c.opts.CheckoutURL
	}
	if cfg.UseSandbox {
		return sandboxCheckoutURL
	}
	return liveCheckoutURL
}

func (c *Client) restURL(cfg settings.PaymentSettings) string {
	if c.opts.RestURL != "" {
		return c.opts.RestURL
	}
	if cfg.UseSandbox {
		return sandboxRestURL
	}
	return liveRestURL
}

// CreateQuote opens a hosted checkout session and returns the session
// token to redirect the payer with.
func (c *Client) CreateQuote(ctx context.Context, cfg settings.PaymentSettings, params url.Values) (*QuoteResponse, error) {
	endpoint := fmt.Sprintf("%s/index/createQuote", c.CheckoutURL(cfg))

	resp, err := c.do(ctx, http.MethodPost, endpoint, cfg, params)
	if err != nil {
		return nil, fmt.Errorf("createQuote request failed: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("createQuote rejected: status is %s", resp.Status)
	}
	return resp, nil
}

// Refund asks the processor to refund a captured transaction. The local
// order state is settled later by the matching IPN.
func (c *Client) Refund(ctx context.Context, cfg settings.PaymentSettings, captureTransactionID string, params url.Values) error {
	endpoint := fmt.Sprintf("%s/rest/transactions/%s", c.restURL(cfg), captureTransactionID)

	resp, err := c.do(ctx, http.MethodPut, endpoint, cfg, params)
	if err != nil {
		return fmt.Errorf("refund request failed: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("refund rejected: transaction status is %s", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, cfg settings.PaymentSettings, params url.Values) (*QuoteResponse, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", AuthHeader(cfg))

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("processor returned %d: %s", httpResp.StatusCode, body)
		}

		var resp QuoteResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("malformed processor response: %w", err)
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*QuoteResponse), nil
}

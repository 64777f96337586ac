package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const statusSuccess = "success"

// TransportError marks a failure to get an answer out of the gateway: network
// errors, timeouts, and non-2xx responses. It is retryable from the caller's
// point of view, unlike a gateway-reported business failure which arrives as a
// well-formed 2xx response with Result.OK unset.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InitializeRequest is the payload for starting a transaction with the gateway.
type InitializeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Email       string          `json:"email"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	TxRef       string          `json:"tx_ref"`
	CallbackURL string          `json:"callback_url"`
	ReturnURL   string          `json:"return_url"`
	Description string          `json:"description,omitempty"`
}

// Result is the gateway's answer. Raw carries the response body verbatim so
// callers can pass it through untouched; OK reflects the body's status field.
type Result struct {
	OK     bool
	Status string
	Raw    json.RawMessage
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Config struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	ReturnURL   string
	Timeout     time.Duration
}

// Client talks to the payment gateway. It holds no transaction state; every
// call is a plain request/response exchange.
type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	returnURL   string
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		returnURL:   cfg.ReturnURL,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Initialize starts a transaction. A nil error with r.OK unset means the
// gateway answered but rejected the transaction.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*Result, error) {
	if req.CallbackURL == "" {
		req.CallbackURL = c.callbackURL
	}
	if req.ReturnURL == "" {
		req.ReturnURL = c.returnURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "initialize", Err: fmt.Errorf("marshal request: %w", err)}
	}

	c.logger.Info("initializing gateway transaction",
		"tx_ref", req.TxRef,
		"amount", req.Amount.String(),
		"currency", req.Currency)

	url := fmt.Sprintf("%s/v1/transaction/initialize", c.baseURL)
	return c.post(ctx, "initialize", url, body)
}

// Verify asks the gateway for the authoritative state of a transaction.
func (c *Client) Verify(ctx context.Context, txRef string) (*Result, error) {
	c.logger.Info("verifying gateway transaction", "tx_ref", txRef)

	url := fmt.Sprintf("%s/v1/transaction/verify/%s", c.baseURL, txRef)
	return c.get(ctx, "verify", url)
}

func (c *Client) post(ctx context.Context, op, url string, body []byte) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(op, httpReq)
}

func (c *Client) get(ctx context.Context, op, url string) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(op, httpReq)
}

func (c *Client) do(op string, httpReq *http.Request) (*Result, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("gateway request failed", "op", op, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("gateway returned error status",
			"op", op,
			"status_code", resp.StatusCode,
			"response", string(respBody))
		return nil, &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	result := &Result{
		OK:     env.Status == statusSuccess,
		Status: env.Status,
		Raw:    json.RawMessage(respBody),
	}

	if !result.OK {
		c.logger.Warn("gateway reported failure",
			"op", op,
			"gateway_status", env.Status,
			"gateway_message", env.Message)
	}

	return result, nil
}

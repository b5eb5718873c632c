package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"nanowallet/core/types"
	"nanowallet/observability"
)

// DefaultPageSize is the number of confirmed transactions requested per page.
const DefaultPageSize = 25

// TransactionsQuery selects a page of confirmed transactions for an address.
type TransactionsQuery struct {
	Address string
	Limit   int
	Offset  int
	Filter  types.Filter
	OrderBy string
}

// Count is the total reported by a listing call. Peers emit it as either a
// JSON number or a numeric string.
type Count string

// UnmarshalJSON accepts numbers, strings and null.
func (c *Count) UnmarshalJSON(data []byte) error {
	var raw types.Amount
	if err := raw.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("count: %w", err)
	}
	*c = Count(raw)
	return nil
}

// Int parses the leading base-10 integer of the count, so "2.0" and "1e3"
// read as 2 and 1. A count with no leading digits is an error.
func (c Count) Int() (int, error) {
	trimmed := strings.TrimSpace(string(c))
	if trimmed == "" {
		return 0, fmt.Errorf("count missing")
	}
	end := 0
	if trimmed[0] == '-' || trimmed[0] == '+' {
		end = 1
	}
	digits := end
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("parse count %q: no digits", trimmed)
	}
	value, err := strconv.ParseInt(trimmed[:end], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", trimmed, err)
	}
	return int(value), nil
}

// TransactionsPage is one page of confirmed transactions.
type TransactionsPage struct {
	Transactions []types.Transaction `json:"transactions"`
	Count        Count               `json:"count"`
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type unconfirmedResponse struct {
	Transactions []types.Transaction `json:"transactions"`
}

type accountResponse struct {
	Account *types.Account `json:"account"`
}

type delegateResponse struct {
	Delegate *types.Delegate `json:"delegate"`
}

type transactionResponse struct {
	Transaction *types.Transaction `json:"transaction"`
}

// Client issues single-attempt requests against a peer's REST API.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	metrics   *observability.WalletMetrics
	userAgent string
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used as is.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithRateLimit caps outbound calls per second. A non-positive rate disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMetrics records request latency into the supplied metrics set.
func WithMetrics(metrics *observability.WalletMetrics) Option {
	return func(c *Client) { c.metrics = metrics }
}

// WithUserAgent sets the User-Agent header sent to peers.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(agent); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// NewClient constructs a peer client with traced transport.
func NewClient(opts ...Option) *Client {
	client := &Client{
		http:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		userAgent: "walletd",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Transactions lists confirmed transactions for the query's address.
func (c *Client) Transactions(ctx context.Context, node *Node, query TransactionsQuery) (*TransactionsPage, error) {
	params := url.Values{}
	address := strings.TrimSpace(query.Address)
	switch query.Filter {
	case types.FilterIncoming:
		params.Set("recipientId", address)
	case types.FilterOutgoing:
		params.Set("senderId", address)
	default:
		params.Set("senderId", address)
		params.Set("recipientId", address)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	params.Set("limit", strconv.Itoa(limit))
	if query.Offset > 0 {
		params.Set("offset", strconv.Itoa(query.Offset))
	}
	orderBy := query.OrderBy
	if orderBy == "" {
		orderBy = "timestamp:desc"
	}
	params.Set("orderBy", orderBy)

	var page TransactionsPage
	if err := c.get(ctx, node, "transactions", "/api/transactions", params, &page); err != nil {
		return nil, err
	}
	if page.Transactions == nil {
		page.Transactions = []types.Transaction{}
	}
	return &page, nil
}

// UnconfirmedTransactions lists the peer's unconfirmed pool for an address.
func (c *Client) UnconfirmedTransactions(ctx context.Context, node *Node, address string) ([]types.Transaction, error) {
	params := url.Values{}
	params.Set("senderId", strings.TrimSpace(address))
	params.Set("recipientId", strings.TrimSpace(address))
	var resp unconfirmedResponse
	if err := c.get(ctx, node, "unconfirmed", "/api/transactions/unconfirmed", params, &resp); err != nil {
		return nil, err
	}
	if resp.Transactions == nil {
		return []types.Transaction{}, nil
	}
	return resp.Transactions, nil
}

// Account fetches the account state. An unknown account is reported as an
// empty account with a zero balance.
func (c *Client) Account(ctx context.Context, node *Node, address string) (*types.Account, error) {
	address = strings.TrimSpace(address)
	params := url.Values{}
	params.Set("address", address)
	var resp accountResponse
	err := c.get(ctx, node, "account", "/api/accounts", params, &resp)
	if errors.Is(err, ErrNotFound) {
		return &types.Account{Address: address, Balance: "0"}, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Account == nil {
		return nil, fmt.Errorf("peer account: response missing account")
	}
	return resp.Account, nil
}

// Delegate resolves the delegate registered under a public key.
func (c *Client) Delegate(ctx context.Context, node *Node, publicKey string) (*types.Delegate, error) {
	params := url.Values{}
	params.Set("publicKey", strings.TrimSpace(publicKey))
	var resp delegateResponse
	if err := c.get(ctx, node, "delegate", "/api/delegates/get", params, &resp); err != nil {
		return nil, err
	}
	if resp.Delegate == nil {
		return nil, fmt.Errorf("peer delegate: response missing delegate")
	}
	return resp.Delegate, nil
}

// Transaction fetches a single transaction by id.
func (c *Client) Transaction(ctx context.Context, node *Node, id string) (*types.Transaction, error) {
	params := url.Values{}
	params.Set("id", strings.TrimSpace(id))
	var resp transactionResponse
	if err := c.get(ctx, node, "transaction", "/api/transactions/get", params, &resp); err != nil {
		return nil, err
	}
	if resp.Transaction == nil {
		return nil, fmt.Errorf("peer transaction: response missing transaction")
	}
	return resp.Transaction, nil
}

func (c *Client) get(ctx context.Context, node *Node, operation, path string, params url.Values, out any) (err error) {
	if c == nil {
		return fmt.Errorf("peer client is nil")
	}
	start := time.Now()
	defer func() {
		c.metrics.ObservePeer(operation, err, time.Since(start))
	}()

	endpoint, err := node.endpoint(path, params)
	if err != nil {
		return err
	}
	if c.limiter != nil {
		if err = c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("peer %s: rate limit: %w", operation, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("peer %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Operation: operation, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var raw json.RawMessage
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("peer %s: decode response: %w", operation, err)
	}
	var env envelope
	if err = json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("peer %s: decode envelope: %w", operation, err)
	}
	if env.Success != nil && !*env.Success {
		message := strings.TrimSpace(env.Error)
		if message == "" {
			message = strings.TrimSpace(env.Message)
		}
		if message == "" {
			message = "request rejected"
		}
		return &APIError{Operation: operation, Message: message}
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("peer %s: decode result: %w", operation, err)
	}
	return nil
}

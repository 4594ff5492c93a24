package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/meadowhq/mdwd/transaction"
)

const defaultRequestTimeout = 15 * time.Second

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client talks JSON-RPC over HTTP to a registry node. It implements
// transaction.StatusLookup for the ledger's refresh rounds.
type Client struct {
	cfg    Config
	http   *resty.Client
	nextID uint64
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}

	httpClient := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		cfg:  cfg,
		http: httpClient,
	}, nil
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcErrorObj    `json:"error,omitempty"`
}

type rpcErrorObj struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	req := &rpcRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&c.nextID, 1),
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post("/")
	if err != nil {
		return err
	}
	if httpResp.IsError() {
		return fmt.Errorf("client: node returned HTTP %d for %s", httpResp.StatusCode(), method)
	}
	if resp.Error != nil {
		return fmt.Errorf("client: %s failed: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
	}
	if result != nil && resp.Result != nil {
		return json.Unmarshal(resp.Result, result)
	}
	return nil
}

// SubmitTx sends a signed transaction to the node and returns the hash
// the ledger tracks it under, plus the status reported at submission
// time. A transaction already mined by submission time comes back
// Included directly.
func (c *Client) SubmitTx(ctx context.Context, signed SignedTx) (SubmitResult, error) {
	params := submitTxParams{TxMsg: signed.Tx.wire(), Signature: signed.Sig}

	var res submitTxResponse
	if err := c.call(ctx, "tx.submit", params, &res); err != nil {
		return SubmitResult{}, err
	}
	if !res.Ok {
		return SubmitResult{}, fmt.Errorf("client: submit failed: %s", res.Error)
	}

	status, ok := statusFromCode(res.Status)
	if !ok {
		status = transaction.StatusAwaitingInclusion
	}
	return SubmitResult{TxHash: res.TxHash, Status: status}, nil
}

// LookupStatus queries the node for the current inclusion state of a
// transaction. An unknown hash or an unrecognized status code is "no
// new information", not an error.
func (c *Client) LookupStatus(ctx context.Context, txHash string) (transaction.Status, bool, error) {
	var res txStatusResponse
	if err := c.call(ctx, "tx.getstatus", txStatusRequest{TxHash: txHash}, &res); err != nil {
		return "", false, err
	}
	if !res.Found {
		return "", false, nil
	}
	status, ok := statusFromCode(res.Status)
	if !ok {
		return "", false, nil
	}
	return status, true, nil
}

func (c *Client) CheckHealth(ctx context.Context) error {
	var res healthCheckResponse
	if err := c.call(ctx, "health.check", nil, &res); err != nil {
		return err
	}
	if !res.Ok {
		return fmt.Errorf("client: node reported unhealthy")
	}
	return nil
}

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	defaultConfirmTimeout = 60 * time.Second
	defaultConfirmPoll    = 500 * time.Millisecond
	defaultHTTPTimeout    = 30 * time.Second
)

// ErrTransactionFailed is returned by ConfirmTransaction when the cluster reports an on-chain error.
var ErrTransactionFailed = errors.New("transaction failed on chain")

// AccountInfo is the subset of an account we care about
type AccountInfo struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// SolanaClient is a client for one Solana RPC endpoint
type SolanaClient struct {
	rpcClient      *rpc.Client
	rpcURL         string
	httpClient     *http.Client
	confirmTimeout time.Duration
	confirmPoll    time.Duration
	requestID      atomic.Uint64
}

// Option configures SolanaClient
type Option func(*SolanaClient)

// WithHTTPClient sets the http.Client used for raw JSON-RPC calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *SolanaClient) {
		c.httpClient = hc
	}
}

// WithConfirmTimeout bounds how long ConfirmTransaction waits
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *SolanaClient) {
		if d > 0 {
			c.confirmTimeout = d
		}
	}
}

// WithConfirmPollInterval sets how often signature statuses are polled
func WithConfirmPollInterval(d time.Duration) Option {
	return func(c *SolanaClient) {
		if d > 0 {
			c.confirmPoll = d
		}
	}
}

// NewSolanaClient creates a new Solana client for the given RPC endpoint.
func NewSolanaClient(rpcURL string, opts ...Option) *SolanaClient {
	c := &SolanaClient{
		rpcClient:      rpc.New(rpcURL),
		rpcURL:         rpcURL,
		httpClient:     &http.Client{Timeout: defaultHTTPTimeout},
		confirmTimeout: defaultConfirmTimeout,
		confirmPoll:    defaultConfirmPoll,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the RPC URL this client talks to
func (c *SolanaClient) Endpoint() string {
	return c.rpcURL
}

// GetBalance gets SOL balance in lamports
func (c *SolanaClient) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	balance, err := c.rpcClient.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// GetAccountInfo fetches an account through the RPC library.
// Returns nil, nil when the account does not exist.
func (c *SolanaClient) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*AccountInfo, error) {
	out, err := c.rpcClient.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}

	info := &AccountInfo{
		Owner:    out.Value.Owner,
		Lamports: out.Value.Lamports,
	}
	if out.Value.Data != nil {
		info.Data = out.Value.Data.GetBinary()
	}
	return info, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

type rawAccountResult struct {
	Value *struct {
		Data     []string `json:"data"`
		Lamports uint64   `json:"lamports"`
		Owner    string   `json:"owner"`
	} `json:"value"`
}

// GetAccountInfoRaw fetches an account with a hand-built getAccountInfo call (base64 encoding).
// Some providers return data the library decoder rejects; this path only needs owner and bytes.
// Returns nil, nil when the account does not exist.
func (c *SolanaClient) GetAccountInfoRaw(ctx context.Context, address solana.PublicKey) (*AccountInfo, error) {
	params := []any{
		address.String(),
		map[string]string{"encoding": "base64", "commitment": "confirmed"},
	}

	var result rawAccountResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, nil
	}
	if len(result.Value.Data) == 0 {
		return nil, errors.New("failed to read account data: empty data field")
	}

	owner, err := solana.PublicKeyFromBase58(result.Value.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid account owner: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode account data: %w", err)
	}

	return &AccountInfo{
		Owner:    owner,
		Lamports: result.Value.Lamports,
		Data:     data,
	}, nil
}

func (c *SolanaClient) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to call %s: status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}
	return nil
}

// SendTransaction submits a fully signed transaction
func (c *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false, // Transaction validation before node
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status until it is confirmed or finalized.
func (c *SolanaClient) ConfirmTransaction(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.confirmPoll)
	defer ticker.Stop()

	for {
		out, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to confirm transaction %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// LatestBlockhash gets the latest finalized blockhash (GetRecentBlockhash is deprecated)
func (c *SolanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	return recent.Value.Blockhash, nil
}

// MinimumBalanceForRentExemption gets the minimum lamports for an account of dataSize bytes
func (c *SolanaClient) MinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := c.rpcClient.GetMinimumBalanceForRentExemption(ctx, dataSize, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get rent exemption: %w", err)
	}
	return lamports, nil
}

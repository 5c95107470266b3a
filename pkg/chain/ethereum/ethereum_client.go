// SPDX-License-Identifier: Apache-2.0

package ethereum

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/xataio/csv2chain/internal/backoff"
	"github.com/xataio/csv2chain/pkg/chain"
	"github.com/xataio/csv2chain/pkg/conversion"
	loglib "github.com/xataio/csv2chain/pkg/log"
	tlslib "github.com/xataio/csv2chain/pkg/tls"
)

// Client submits function calls to an Ethereum node through its JSON-RPC
// API. Transactions are signed by the node, using one of its unlocked
// accounts.
type Client struct {
	logger          loglib.Logger
	rpc             rpcCaller
	receipts        receiptFetcher
	backoffProvider backoff.Provider
	gasLimit        uint64
	closeFn         func()
}

type rpcCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

type receiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type Option func(*Client)

// sendTxArgs are the eth_sendTransaction parameters.
type sendTxArgs struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Data hexutil.Bytes   `json:"data"`
	Gas  *hexutil.Uint64 `json:"gas,omitempty"`
}

var (
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrReceiptTimeout      = errors.New("timed out waiting for transaction receipt")

	errNoSender        = errors.New("no account to send from")
	errInvalidContract = errors.New("invalid contract address")
	errReceiptPending  = errors.New("receipt not available yet")
)

var _ chain.Client = (*Client)(nil)

func NewClient(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	tlsConfig, err := tlslib.NewConfig(&cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("building tls config: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig
	}

	rpcClient, err := rpc.DialOptions(ctx, cfg.URL, rpc.WithHTTPClient(&http.Client{Transport: transport}))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.URL, err)
	}

	c := newClient(rpcClient, ethclient.NewClient(rpcClient), cfg, opts...)
	c.closeFn = rpcClient.Close
	return c, nil
}

func newClient(caller rpcCaller, receipts receiptFetcher, cfg *Config, opts ...Option) *Client {
	c := &Client{
		logger:   loglib.NewNoopLogger(),
		rpc:      caller,
		receipts: receipts,
		gasLimit: cfg.GasLimit,
		backoffProvider: backoff.NewProvider(&backoff.Config{
			Constant: &backoff.ConstantConfig{
				Interval:   cfg.receiptPollInterval(),
				MaxRetries: cfg.receiptMaxRetries(),
			},
		}),
		closeFn: func() {},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithLogger(l loglib.Logger) Option {
	return func(c *Client) {
		c.logger = loglib.WithModule(l, "ethereum_client")
	}
}

func withBackoffProvider(p backoff.Provider) Option {
	return func(c *Client) {
		c.backoffProvider = p
	}
}

func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	addresses := make([]string, 0, len(accounts))
	for _, a := range accounts {
		addresses = append(addresses, a.Hex())
	}
	return addresses, nil
}

// Call sends a transaction invoking the function and waits until it's been
// mined. Any failure is returned as a *chain.CallError.
func (c *Client) Call(ctx context.Context, req *chain.CallRequest) error {
	if req.From == "" {
		return chain.NewCallError(req.Function, errNoSender)
	}
	if !common.IsHexAddress(req.Address) {
		return chain.NewCallError(req.Function, fmt.Errorf("%w: %q", errInvalidContract, req.Address))
	}

	data, err := packCall(req.Contract, req.Function, req.Args)
	if err != nil {
		return chain.NewCallError(req.Function, err)
	}

	args := sendTxArgs{
		From: req.From,
		To:   req.Address,
		Data: data,
	}
	if c.gasLimit > 0 {
		gas := hexutil.Uint64(c.gasLimit)
		args.Gas = &gas
	}

	var txHash common.Hash
	if err := c.rpc.CallContext(ctx, &txHash, "eth_sendTransaction", args); err != nil {
		return chain.NewCallError(req.Function, err)
	}

	logger := c.logger.WithFields(loglib.Fields{
		loglib.FunctionField: req.Function,
		loglib.AccountField:  req.From,
		"tx_hash":            txHash.Hex(),
	})
	logger.Debug("transaction sent")

	receipt, err := c.waitForReceipt(ctx, txHash)
	if err != nil {
		return chain.NewCallError(req.Function, err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return chain.NewCallError(req.Function, ErrTransactionReverted)
	}

	logger.Debug("transaction mined", loglib.Fields{"block": receipt.BlockNumber.Uint64()})
	return nil
}

func (c *Client) Utilities() conversion.Utilities {
	return Utilities{}
}

func (c *Client) Close() {
	c.closeFn()
}

func (c *Client) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	var fetchErr error
	err := c.backoffProvider(ctx).RetryNotify(func() error {
		r, err := c.receipts.TransactionReceipt(ctx, txHash)
		switch {
		case errors.Is(err, geth.NotFound):
			return errReceiptPending
		case err != nil:
			fetchErr = err
			return backoff.ErrPermanent
		}
		receipt = r
		return nil
	}, func(err error, d time.Duration) {
		c.logger.Trace("waiting for transaction receipt", loglib.Fields{
			"tx_hash": txHash.Hex(),
			"backoff": d,
		})
	})
	switch {
	case fetchErr != nil:
		return nil, fmt.Errorf("fetching transaction receipt: %w", fetchErr)
	case errors.Is(err, errReceiptPending):
		return nil, fmt.Errorf("%w: %s", ErrReceiptTimeout, txHash.Hex())
	case err != nil:
		return nil, err
	}
	return receipt, nil
}

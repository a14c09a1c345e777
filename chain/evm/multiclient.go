package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/osnap-tools/governor-client/pkg/logger"
)

const (
	// Default retry configuration for RPC calls.
	defaultRetryAttempts = 2
	defaultRetryDelay    = 500 * time.Millisecond
	defaultCallTimeout   = 10 * time.Second

	// Default timeouts for dialing and health checking endpoints.
	defaultDialTimeout        = 10 * time.Second
	defaultHealthCheckTimeout = 2 * time.Second
)

// RetryConfig controls per-endpoint retry behavior inside the MultiClient.
type RetryConfig struct {
	Attempts    uint
	Delay       time.Duration
	CallTimeout time.Duration
	DialTimeout time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:    defaultRetryAttempts,
		Delay:       defaultRetryDelay,
		CallTimeout: defaultCallTimeout,
		DialTimeout: defaultDialTimeout,
	}
}

var (
	_ OnchainClient = &MultiClient{}
	_ BatchCaller   = &MultiClient{}
)

// MultiClient fans a single logical chain connection out over one primary and
// any number of backup RPC endpoints. Every operation retries on the primary
// first, then walks the backups; a backup that serves a call is promoted so
// a flapping primary does not tax every subsequent operation.
type MultiClient struct {
	retryCfg  RetryConfig
	lggr      logger.Logger
	chainName string

	mu      sync.RWMutex
	clients []*ethclient.Client
}

// MultiClientOpt mutates the MultiClient during construction.
type MultiClientOpt func(*MultiClient)

// WithRetryConfig overrides the default retry configuration.
func WithRetryConfig(cfg RetryConfig) MultiClientOpt {
	return func(mc *MultiClient) { mc.retryCfg = cfg }
}

// NewMultiClient dials every configured endpoint, health checks it, and keeps
// the survivors in configuration order. At least one endpoint must pass.
func NewMultiClient(ctx context.Context, lggr logger.Logger, cfg RPCConfig, opts ...MultiClientOpt) (*MultiClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	details, ok := chainsel.ChainBySelector(cfg.ChainSelector)
	if !ok {
		return nil, fmt.Errorf("chain with selector %d not found", cfg.ChainSelector)
	}

	mc := &MultiClient{
		retryCfg:  defaultRetryConfig(),
		lggr:      logger.Named(lggr, "MultiClient"),
		chainName: details.Name,
	}
	for _, opt := range opts {
		opt(mc)
	}

	for _, r := range cfg.RPCs {
		client, err := mc.dial(ctx, r)
		if err != nil {
			mc.lggr.Warnw("Skipping RPC endpoint", "chain", mc.chainName, "rpc", r.Name, "err", err)
			continue
		}
		if err := mc.healthCheck(ctx, client); err != nil {
			mc.lggr.Warnw("RPC endpoint failed health check", "chain", mc.chainName, "rpc", r.Name, "err", err)
			client.Close()

			continue
		}
		mc.clients = append(mc.clients, client)
	}
	if len(mc.clients) == 0 {
		return nil, fmt.Errorf("no usable RPC endpoints for chain %s", mc.chainName)
	}

	return mc, nil
}

// ChainName returns the resolved chain name.
func (mc *MultiClient) ChainName() string { return mc.chainName }

func (mc *MultiClient) dial(ctx context.Context, r RPC) (*ethclient.Client, error) {
	endpoint, err := r.Endpoint()
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, mc.retryCfg.DialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %q: %w", r.Name, err)
	}

	return client, nil
}

func (mc *MultiClient) healthCheck(ctx context.Context, client *ethclient.Client) error {
	hcCtx, cancel := context.WithTimeout(ctx, defaultHealthCheckTimeout)
	defer cancel()

	if _, err := client.BlockNumber(hcCtx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	return nil
}

func (mc *MultiClient) snapshotClients() []*ethclient.Client {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make([]*ethclient.Client, len(mc.clients))
	copy(out, mc.clients)

	return out
}

// promote moves the client at index to the front so it serves the next call
// first. Failed predecessors shift back one slot each.
func (mc *MultiClient) promote(index int) {
	if index == 0 {
		return
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if index >= len(mc.clients) {
		return
	}
	winner := mc.clients[index]
	copy(mc.clients[1:index+1], mc.clients[:index])
	mc.clients[0] = winner
}

// call runs op against each endpoint in order, retrying per endpoint, until
// one succeeds.
func callWithBackups[T any](
	ctx context.Context, mc *MultiClient, opName string,
	op func(context.Context, *ethclient.Client) (T, error),
) (T, error) {
	var (
		result  T
		lastErr error
		traceID = uuid.New()
	)

	for i, client := range mc.snapshotClients() {
		err := retry.Do(func() error {
			callCtx, cancel := ensureTimeout(ctx, mc.retryCfg.CallTimeout)
			defer cancel()

			var opErr error
			result, opErr = op(callCtx, client)

			return opErr
		},
			retry.Context(ctx),
			retry.Attempts(mc.retryCfg.Attempts),
			retry.Delay(mc.retryCfg.Delay),
			retry.LastErrorOnly(true),
		)
		if err == nil {
			mc.promote(i)

			return result, nil
		}
		lastErr = err
		mc.lggr.Warnw("RPC operation failed, trying next endpoint",
			"traceID", traceID.String(), "chain", mc.chainName, "op", opName,
			"clientIndex", i, "err", maybeDataErr(err))
	}

	return result, fmt.Errorf("all RPC endpoints failed for chain %s op %s: %w", mc.chainName, opName, lastErr)
}

func (mc *MultiClient) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return callWithBackups(ctx, mc, "CodeAt", func(ct context.Context, c *ethclient.Client) ([]byte, error) {
		return c.CodeAt(ct, account, blockNumber)
	})
}

func (mc *MultiClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return callWithBackups(ctx, mc, "CallContract", func(ct context.Context, c *ethclient.Client) ([]byte, error) {
		return c.CallContract(ct, msg, blockNumber)
	})
}

func (mc *MultiClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return callWithBackups(ctx, mc, "HeaderByNumber", func(ct context.Context, c *ethclient.Client) (*types.Header, error) {
		return c.HeaderByNumber(ct, number)
	})
}

func (mc *MultiClient) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return callWithBackups(ctx, mc, "PendingCodeAt", func(ct context.Context, c *ethclient.Client) ([]byte, error) {
		return c.PendingCodeAt(ct, account)
	})
}

func (mc *MultiClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return callWithBackups(ctx, mc, "PendingNonceAt", func(ct context.Context, c *ethclient.Client) (uint64, error) {
		return c.PendingNonceAt(ct, account)
	})
}

func (mc *MultiClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return callWithBackups(ctx, mc, "SuggestGasPrice", func(ct context.Context, c *ethclient.Client) (*big.Int, error) {
		return c.SuggestGasPrice(ct)
	})
}

func (mc *MultiClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return callWithBackups(ctx, mc, "SuggestGasTipCap", func(ct context.Context, c *ethclient.Client) (*big.Int, error) {
		return c.SuggestGasTipCap(ct)
	})
}

func (mc *MultiClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return callWithBackups(ctx, mc, "EstimateGas", func(ct context.Context, c *ethclient.Client) (uint64, error) {
		return c.EstimateGas(ct, call)
	})
}

func (mc *MultiClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	_, err := callWithBackups(ctx, mc, "SendTransaction", func(ct context.Context, c *ethclient.Client) (struct{}, error) {
		return struct{}{}, c.SendTransaction(ct, tx)
	})

	return err
}

func (mc *MultiClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return callWithBackups(ctx, mc, "FilterLogs", func(ct context.Context, c *ethclient.Client) ([]types.Log, error) {
		return c.FilterLogs(ct, q)
	})
}

func (mc *MultiClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return callWithBackups(ctx, mc, "SubscribeFilterLogs", func(ct context.Context, c *ethclient.Client) (ethereum.Subscription, error) {
		return c.SubscribeFilterLogs(ct, q, ch)
	})
}

func (mc *MultiClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return callWithBackups(ctx, mc, "TransactionReceipt", func(ct context.Context, c *ethclient.Client) (*types.Receipt, error) {
		return c.TransactionReceipt(ct, txHash)
	})
}

func (mc *MultiClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return callWithBackups(ctx, mc, "BalanceAt", func(ct context.Context, c *ethclient.Client) (*big.Int, error) {
		return c.BalanceAt(ct, account, blockNumber)
	})
}

func (mc *MultiClient) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return callWithBackups(ctx, mc, "NonceAt", func(ct context.Context, c *ethclient.Client) (uint64, error) {
		return c.NonceAt(ct, account, blockNumber)
	})
}

// BatchCallContext submits all batch elements in one JSON-RPC round trip.
// Element-level errors are left in place for the caller to inspect.
func (mc *MultiClient) BatchCallContext(ctx context.Context, b []rpc.BatchElem) error {
	_, err := callWithBackups(ctx, mc, "BatchCallContext", func(ct context.Context, c *ethclient.Client) (struct{}, error) {
		return struct{}{}, c.Client().BatchCallContext(ct, b)
	})

	return err
}

// WaitMined races all endpoints for the receipt of tx and returns the first
// one found. No retry wrapping here; the caller bounds the wait with ctx.
func (mc *MultiClient) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	mc.lggr.Debugw("Waiting for transaction to be mined", "tx", tx.Hash().Hex(), "chain", mc.chainName)

	resultCh := make(chan *types.Receipt)
	doneCh := make(chan struct{})

	for _, client := range mc.snapshotClients() {
		go func(c *ethclient.Client) {
			receipt, err := bind.WaitMined(ctx, c, tx)
			if err != nil {
				mc.lggr.Warnw("WaitMined failed on one endpoint", "chain", mc.chainName, "err", err)
				return
			}
			select {
			case resultCh <- receipt:
			case <-doneCh:
			}
		}(client)
	}

	select {
	case receipt := <-resultCh:
		close(doneCh)

		return receipt, nil
	case <-ctx.Done():
		close(doneCh)

		return nil, ctx.Err()
	}
}

// ensureTimeout derives a cancelable context, adding the given timeout only
// when the parent carries no deadline of its own.
func ensureTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := parent.Deadline(); hasDeadline {
		return context.WithCancel(parent)
	}

	return context.WithTimeout(parent, timeout)
}

// maybeDataErr surfaces the data payload of JSON-RPC errors, which carries the
// revert information for failed eth_calls.
func maybeDataErr(err error) error {
	var d rpc.DataError
	if errors.As(err, &d) {
		return fmt.Errorf("%s: %v", d.Error(), d.ErrorData())
	}

	return err
}

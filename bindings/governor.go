// Package bindings wraps the three contracts the module talks to: the
// optimistic governor module itself, the optimistic oracle it defers to, and
// the ERC-20 collateral token. The wrappers are hand-bound over trimmed ABIs
// so no code generation step is required.
package bindings

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/osnap-tools/governor-client/chain/evm"
)

// ModuleTransaction is the wire shape of a single call inside a proposal, as
// the governor contract encodes it. Operation 0 is call, 1 is delegatecall.
type ModuleTransaction struct {
	To        common.Address `json:"to"`
	Operation uint8          `json:"operation"`
	Value     *big.Int       `json:"value"`
	Data      []byte         `json:"data"`
}

// GovernorConfig is the module configuration read in one batched round trip.
type GovernorConfig struct {
	Avatar     common.Address
	Oracle     common.Address
	Collateral common.Address
	Rules      string
	BondAmount *big.Int
	Liveness   uint64
}

// TransactionsProposedEvent mirrors the module's TransactionsProposed log.
type TransactionsProposedEvent struct {
	Proposer     common.Address
	ProposalTime *big.Int
	ProposalHash [32]byte
	Explanation  []byte

	Raw types.Log
}

// ProposalExecutedEvent mirrors the module's ProposalExecuted log.
type ProposalExecutedEvent struct {
	ProposalHash [32]byte
	ProposalTime *big.Int

	Raw types.Log
}

// Governor wraps the optimistic governor module contract.
type Governor struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	backend  evm.OnchainClient
}

// NewGovernor binds the governor module at address to the given backend.
func NewGovernor(address common.Address, backend evm.OnchainClient) (*Governor, error) {
	parsed, err := abi.JSON(strings.NewReader(governorABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse governor ABI: %w", err)
	}

	return &Governor{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
	}, nil
}

// Address returns the bound module address.
func (g *Governor) Address() common.Address { return g.address }

// Config reads avatar, optimisticOracle, collateral, rules, bondAmount and
// liveness in a single JSON-RPC batch. A failure of any element fails the
// whole read; a partially populated config is never returned.
func (g *Governor) Config(ctx context.Context, caller evm.BatchCaller) (GovernorConfig, error) {
	methods := []string{"avatar", "optimisticOracle", "collateral", "rules", "bondAmount", "liveness"}

	elems := make([]rpc.BatchElem, len(methods))
	results := make([]hexutil.Bytes, len(methods))
	for i, method := range methods {
		data, err := g.abi.Pack(method)
		if err != nil {
			return GovernorConfig{}, fmt.Errorf("failed to pack %s call: %w", method, err)
		}
		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []any{
				map[string]any{"to": g.address, "data": hexutil.Bytes(data)},
				"latest",
			},
			Result: &results[i],
		}
	}

	if err := caller.BatchCallContext(ctx, elems); err != nil {
		return GovernorConfig{}, fmt.Errorf("governor config batch call failed: %w", err)
	}
	for i, elem := range elems {
		if elem.Error != nil {
			return GovernorConfig{}, fmt.Errorf("governor %s call failed: %w", methods[i], elem.Error)
		}
	}

	var (
		cfg GovernorConfig
		err error
	)
	if cfg.Avatar, err = unpackAddress(g.abi, "avatar", results[0]); err != nil {
		return GovernorConfig{}, err
	}
	if cfg.Oracle, err = unpackAddress(g.abi, "optimisticOracle", results[1]); err != nil {
		return GovernorConfig{}, err
	}
	if cfg.Collateral, err = unpackAddress(g.abi, "collateral", results[2]); err != nil {
		return GovernorConfig{}, err
	}

	rulesOut, err := g.abi.Unpack("rules", results[3])
	if err != nil {
		return GovernorConfig{}, fmt.Errorf("failed to unpack rules: %w", err)
	}
	cfg.Rules = *abi.ConvertType(rulesOut[0], new(string)).(*string)

	bondOut, err := g.abi.Unpack("bondAmount", results[4])
	if err != nil {
		return GovernorConfig{}, fmt.Errorf("failed to unpack bondAmount: %w", err)
	}
	cfg.BondAmount = *abi.ConvertType(bondOut[0], new(*big.Int)).(**big.Int)

	livenessOut, err := g.abi.Unpack("liveness", results[5])
	if err != nil {
		return GovernorConfig{}, fmt.Errorf("failed to unpack liveness: %w", err)
	}
	cfg.Liveness = *abi.ConvertType(livenessOut[0], new(uint64)).(*uint64)

	return cfg, nil
}

func unpackAddress(contractABI abi.ABI, method string, data []byte) (common.Address, error) {
	out, err := contractABI.Unpack(method, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack %s: %w", method, err)
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// ProposalTimestamp returns proposalHashes[hash]: the block timestamp at which
// this exact batch was first proposed, or zero if it never was.
func (g *Governor) ProposalTimestamp(ctx context.Context, hash [32]byte) (*big.Int, error) {
	var out []any
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "proposalHashes", hash); err != nil {
		return nil, fmt.Errorf("proposalHashes read failed: %w", err)
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// FilterTransactionsProposed returns all TransactionsProposed events emitted
// by the module.
func (g *Governor) FilterTransactionsProposed(ctx context.Context) ([]TransactionsProposedEvent, error) {
	logs, err := g.filterLogs(ctx, "TransactionsProposed", nil)
	if err != nil {
		return nil, err
	}

	events := make([]TransactionsProposedEvent, 0, len(logs))
	for _, lg := range logs {
		var ev TransactionsProposedEvent
		if err := g.contract.UnpackLog(&ev, "TransactionsProposed", lg); err != nil {
			return nil, fmt.Errorf("failed to unpack TransactionsProposed log: %w", err)
		}
		ev.Raw = lg
		events = append(events, ev)
	}

	return events, nil
}

// FilterProposalExecuted returns all ProposalExecuted events for the given
// proposal hash.
func (g *Governor) FilterProposalExecuted(ctx context.Context, hash [32]byte) ([]ProposalExecutedEvent, error) {
	logs, err := g.filterLogs(ctx, "ProposalExecuted", [][]common.Hash{{common.Hash(hash)}})
	if err != nil {
		return nil, err
	}

	events := make([]ProposalExecutedEvent, 0, len(logs))
	for _, lg := range logs {
		var ev ProposalExecutedEvent
		if err := g.contract.UnpackLog(&ev, "ProposalExecuted", lg); err != nil {
			return nil, fmt.Errorf("failed to unpack ProposalExecuted log: %w", err)
		}
		ev.Raw = lg
		events = append(events, ev)
	}

	return events, nil
}

func (g *Governor) filterLogs(ctx context.Context, event string, indexed [][]common.Hash) ([]types.Log, error) {
	topics := append([][]common.Hash{{g.abi.Events[event].ID}}, indexed...)
	q := ethereum.FilterQuery{
		Addresses: []common.Address{g.address},
		Topics:    topics,
	}

	logs, err := g.backend.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s log query failed: %w", event, err)
	}

	return logs, nil
}

// ProposeTransactions broadcasts a proposeTransactions transaction.
func (g *Governor) ProposeTransactions(opts *bind.TransactOpts, txs []ModuleTransaction, explanation []byte) (*types.Transaction, error) {
	return g.contract.Transact(opts, "proposeTransactions", txs, explanation)
}

// ExecuteProposal broadcasts an executeProposal transaction.
func (g *Governor) ExecuteProposal(opts *bind.TransactOpts, txs []ModuleTransaction) (*types.Transaction, error) {
	return g.contract.Transact(opts, "executeProposal", txs)
}

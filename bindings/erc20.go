package bindings

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/osnap-tools/governor-client/chain/evm"
)

// ERC20 wraps the collateral token contract.
type ERC20 struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewERC20 binds the token at address to the given backend.
func NewERC20(address common.Address, backend evm.OnchainClient) (*ERC20, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}

	return &ERC20{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound token address.
func (t *ERC20) Address() common.Address { return t.address }

// Symbol returns the token symbol.
func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	var out []any
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "symbol"); err != nil {
		return "", fmt.Errorf("symbol read failed: %w", err)
	}

	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Decimals returns the token decimal precision.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	var out []any
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("decimals read failed: %w", err)
	}

	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// Allowance returns the amount spender may transfer on behalf of owner.
func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []any
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("allowance read failed: %w", err)
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// BalanceOf returns the token balance of account.
func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []any
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account); err != nil {
		return nil, fmt.Errorf("balanceOf read failed: %w", err)
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Approve broadcasts an approve transaction for spender to draw up to amount.
func (t *ERC20) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "approve", spender, amount)
}

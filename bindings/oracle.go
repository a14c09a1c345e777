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
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/osnap-tools/governor-client/chain/evm"
)

// ZodiacIdentifier is the price identifier the governor module registers its
// oracle requests under.
var ZodiacIdentifier = func() [32]byte {
	var id [32]byte
	copy(id[:], "ZODIAC")

	return id
}()

// OracleRequestState is the oracle's view of one price request.
type OracleRequestState struct {
	Proposer       common.Address
	Disputer       common.Address
	Settled        bool
	ResolvedPrice  *big.Int
	ExpirationTime *big.Int
}

// ProposePriceEvent mirrors the oracle's ProposePrice log.
type ProposePriceEvent struct {
	Requester           common.Address
	Identifier          [32]byte
	Timestamp           *big.Int
	AncillaryData       []byte
	ExpirationTimestamp *big.Int

	Raw types.Log
}

// Oracle wraps the optimistic oracle contract.
type Oracle struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	backend  evm.OnchainClient
}

// NewOracle binds the optimistic oracle at address to the given backend.
func NewOracle(address common.Address, backend evm.OnchainClient) (*Oracle, error) {
	parsed, err := abi.JSON(strings.NewReader(oracleABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse oracle ABI: %w", err)
	}

	return &Oracle{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
	}, nil
}

// Address returns the bound oracle address.
func (o *Oracle) Address() common.Address { return o.address }

// GetRequest reads the oracle's request record for the given correlation key.
func (o *Oracle) GetRequest(
	ctx context.Context,
	requester common.Address,
	identifier [32]byte,
	timestamp *big.Int,
	ancillaryData []byte,
) (OracleRequestState, error) {
	var out []any
	err := o.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getRequest",
		requester, identifier, timestamp, ancillaryData)
	if err != nil {
		return OracleRequestState{}, fmt.Errorf("getRequest read failed: %w", err)
	}

	return *abi.ConvertType(out[0], new(OracleRequestState)).(*OracleRequestState), nil
}

// FilterProposePrice returns all ProposePrice events where the requester is
// the given address.
func (o *Oracle) FilterProposePrice(ctx context.Context, requester common.Address) ([]ProposePriceEvent, error) {
	q := ethereum.FilterQuery{
		Addresses: []common.Address{o.address},
		Topics: [][]common.Hash{
			{o.abi.Events["ProposePrice"].ID},
			{common.BytesToHash(requester.Bytes())},
		},
	}

	logs, err := o.backend.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ProposePrice log query failed: %w", err)
	}

	events := make([]ProposePriceEvent, 0, len(logs))
	for _, lg := range logs {
		var ev ProposePriceEvent
		if err := o.contract.UnpackLog(&ev, "ProposePrice", lg); err != nil {
			return nil, fmt.Errorf("failed to unpack ProposePrice log: %w", err)
		}
		ev.Raw = lg
		events = append(events, ev)
	}

	return events, nil
}

package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyedWallet is a Wallet backed by a raw private key. A key can sign for any
// chain, so SwitchChain always succeeds by retargeting the signer.
type KeyedWallet struct {
	key     *ecdsa.PrivateKey
	account common.Address

	mu      sync.Mutex
	chainID *big.Int
}

// NewKeyedWallet builds a wallet from a hex-encoded private key, initially
// targeting chainID.
func NewKeyedWallet(hexKey string, chainID *big.Int) (*KeyedWallet, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &KeyedWallet{
		key:     key,
		account: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
	}, nil
}

func (w *KeyedWallet) Account() common.Address { return w.account }

func (w *KeyedWallet) ChainID(_ context.Context) (*big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return new(big.Int).Set(w.chainID), nil
}

func (w *KeyedWallet) SwitchChain(_ context.Context, chainID *big.Int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.chainID = new(big.Int).Set(chainID)

	return nil
}

func (w *KeyedWallet) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(w.key, chainID)
}

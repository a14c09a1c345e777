// Package commands provides the cobra commands for the governor CLI.
//
// Usage:
//
//	cmds := commands.New(lggr)
//	root.AddCommand(
//	    cmds.Status(),
//	    cmds.ApproveBond(),
//	    cmds.Propose(),
//	    cmds.Execute(),
//	)
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/spf13/cobra"

	"github.com/osnap-tools/governor-client/chain/evm"
	"github.com/osnap-tools/governor-client/config"
	"github.com/osnap-tools/governor-client/pkg/logger"
	"github.com/osnap-tools/governor-client/proposal"
)

// keyEnvVar names the environment variable holding the signing key for the
// action commands. Keys never pass through flags so they stay out of shell
// history and process listings.
const keyEnvVar = "GOVERNOR_PRIVATE_KEY"

// Commands is a factory for the CLI commands, sharing one logger.
type Commands struct {
	lggr logger.Logger
}

// New creates a Commands factory with the given logger.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// env is everything a command needs after configuration is loaded.
type env struct {
	cfg        config.Config
	chain      evm.Chain
	client     *evm.MultiClient
	reconciler *proposal.Reconciler
}

func (c *Commands) loadEnv(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	client, err := evm.NewMultiClient(ctx, c.lggr, cfg.Network)
	if err != nil {
		return nil, err
	}

	details, ok := chainsel.ChainBySelector(cfg.Network.ChainSelector)
	if !ok {
		return nil, fmt.Errorf("chain with selector %d not found", cfg.Network.ChainSelector)
	}

	chain := evm.Chain{
		Selector: cfg.Network.ChainSelector,
		Name:     details.Name,
		ID:       new(big.Int).SetUint64(details.EvmChainID),
		Client:   client,
		Batch:    client,
	}

	reconciler, err := proposal.NewReconciler(c.lggr, client, client, cfg.ModuleAddress())
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, chain: chain, client: client, reconciler: reconciler}, nil
}

func (c *Commands) loadWallet(e *env) (*evm.KeyedWallet, error) {
	hexKey := os.Getenv(keyEnvVar)
	if hexKey == "" {
		return nil, fmt.Errorf("%s is not set", keyEnvVar)
	}

	wallet, err := evm.NewKeyedWallet(hexKey, e.chain.ID)
	if err != nil {
		return nil, err
	}

	e.chain.Confirm = evm.NewConfirmFunc(
		e.client, wallet.Account(), e.cfg.Confirm.WaitMinedTimeout, e.cfg.Confirm.TickInterval)

	return wallet, nil
}

func (c *Commands) newDriver(e *env, wallet *evm.KeyedWallet) (*proposal.Driver, error) {
	return proposal.NewDriver(c.lggr, e.chain, wallet, e.cfg.ModuleAddress(), nil)
}

// statusReport is the JSON document the status command prints.
type statusReport struct {
	Chain  string                   `json:"chain"`
	Module common.Address           `json:"module"`
	State  proposal.State           `json:"state"`
	Action proposal.Action          `json:"action"`
	Status *proposal.ProposalStatus `json:"status"`
}

// Status creates the read-only status command.
func (c *Commands) Status() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Reconcile and print the proposal status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			e, batch, explanation, err := c.loadBatchEnv(cmd)
			if err != nil {
				return err
			}

			snap := proposal.WalletSnapshot{}
			if account != "" {
				if !common.IsHexAddress(account) {
					return fmt.Errorf("account %q is not a valid address", account)
				}
				snap = proposal.WalletSnapshot{
					Connected: true,
					Account:   common.HexToAddress(account),
					ChainID:   e.chain.ID,
				}
			}

			status, rerr := e.reconciler.ProposalStatus(ctx, snap, batch, explanation)
			state := proposal.DeriveState(snap, status, rerr)
			if rerr != nil && !errors.Is(rerr, proposal.ErrIndeterminate) {
				return rerr
			}

			report := statusReport{
				Chain:  e.chain.Name,
				Module: e.cfg.ModuleAddress(),
				State:  state,
				Action: proposal.PermittedAction(state, status),
				Status: status,
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))

			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Account to report bond allowance and balance for")

	return cmd
}

// ApproveBond creates the bond approval command. Without --amount it approves
// exactly the module's minimum bond.
func (c *Commands) ApproveBond() *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "approve-bond",
		Short: "Approve the collateral bond for the governor module",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			e, err := c.loadEnv(ctx, configPath(cmd))
			if err != nil {
				return err
			}
			wallet, err := c.loadWallet(e)
			if err != nil {
				return err
			}

			snap := proposal.WalletSnapshot{Connected: true, Account: wallet.Account(), ChainID: e.chain.ID}
			status, err := e.reconciler.ProposalStatus(ctx, snap, nil, "")
			if err != nil {
				return err
			}

			bond := status.MinimumBond
			if amount != "" {
				parsed, ok := new(big.Int).SetString(amount, 10)
				if !ok {
					return fmt.Errorf("amount %q is not a valid integer", amount)
				}
				bond = parsed
			}

			driver, err := c.newDriver(e, wallet)
			if err != nil {
				return err
			}

			return driver.ApproveBond(ctx, status.Bond.Token, bond)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Allowance in base token units (default: the module's minimum bond)")

	return cmd
}

// Propose creates the proposal submission command.
func (c *Commands) Propose() *cobra.Command {
	return &cobra.Command{
		Use:   "propose",
		Short: "Propose the transaction batch to the governor module",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			e, batch, explanation, err := c.loadBatchEnv(cmd)
			if err != nil {
				return err
			}
			wallet, err := c.loadWallet(e)
			if err != nil {
				return err
			}
			driver, err := c.newDriver(e, wallet)
			if err != nil {
				return err
			}

			return driver.ProposeTransactions(ctx, batch, explanation)
		},
	}
}

// Execute creates the proposal execution command.
func (c *Commands) Execute() *cobra.Command {
	return &cobra.Command{
		Use:   "execute",
		Short: "Execute an approved transaction batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			e, batch, _, err := c.loadBatchEnv(cmd)
			if err != nil {
				return err
			}
			wallet, err := c.loadWallet(e)
			if err != nil {
				return err
			}
			driver, err := c.newDriver(e, wallet)
			if err != nil {
				return err
			}

			return driver.ExecuteProposal(ctx, batch)
		},
	}
}

// loadBatchEnv loads the environment plus the batch manifest and explanation
// from the persistent flags.
func (c *Commands) loadBatchEnv(cmd *cobra.Command) (*env, proposal.TransactionBatch, string, error) {
	e, err := c.loadEnv(cmd.Context(), configPath(cmd))
	if err != nil {
		return nil, nil, "", err
	}

	batchPath, _ := cmd.Flags().GetString("batch")
	explanation, _ := cmd.Flags().GetString("explanation")

	var batch proposal.TransactionBatch
	if batchPath != "" {
		if batch, err = proposal.LoadBatch(batchPath); err != nil {
			return nil, nil, "", err
		}
	}

	return e, batch, explanation, nil
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")

	return path
}

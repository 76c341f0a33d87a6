/*
Package deploy provides deployment of the Payment Relay contract to a Neo
network.
*/
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/callflag"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/emit"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/nspcc-dev/relay-contract/rpc/relay"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for the Relay deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)

	// RPCPollingWaiter makes actor.Actor able to await sent transactions over
	// plain RPC.
	actor.RPCPollingWaiter
}

// CommonDeployPrm groups common deployment parameters of the smart contract.
type CommonDeployPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// RelayPrm groups parameters of the Relay contract deployment procedure.
type RelayPrm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy the contract to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	// It is also the contract sender, so it determines the contract address.
	LocalAccount *wallet.Account

	Common CommonDeployPrm

	// Minimum amount accepted by deposit, must not be negative.
	MinDeposit *big.Int
	// Makes transfer produce Transfer notifications.
	EmitEvents bool

	// NEP-17 asset managed by the contract.
	Asset util.Uint160
	// Account allowed to deposit and withdraw escrow funds.
	Admin util.Uint160
}

// ErrInitializedDifferently is returned by DeployRelay when the contract is
// already deployed with another minimum deposit or events setting, or
// initialized with another asset or administrator.
var ErrInitializedDifferently = errors.New("contract is initialized with different settings")

// DeployRelay makes the Relay contract deployed and initialized with the
// asset and administrator from prm. The contract is deployed and initialized
// within a single transaction, so no one can initialize it in between.
//
// If the contract is already deployed, DeployRelay only checks its settings
// (initializing the contract if it is not yet). Returns the contract address.
func DeployRelay(ctx context.Context, prm RelayPrm) (util.Uint160, error) {
	if prm.MinDeposit == nil {
		prm.MinDeposit = new(big.Int)
	}
	if prm.MinDeposit.Sign() < 0 {
		return util.Uint160{}, fmt.Errorf("%w: negative minimum deposit %s", relay.ErrInvalidAmount, prm.MinDeposit)
	}

	sender := prm.LocalAccount.Contract.ScriptHash()
	addr := state.CreateContractHash(sender, prm.Common.NEF.Checksum, prm.Common.Manifest.Name)
	log := prm.Logger.With(zap.Stringer("address", addr))

	deployed, err := isDeployed(prm.Blockchain, addr)
	if err != nil {
		return addr, err
	}

	var script []byte

	if deployed {
		log.Info("Relay contract is already deployed, checking settings...")

		reader := relay.NewReader(invoker.New(prm.Blockchain, nil), addr)

		initialized, err := checkSettings(reader, prm)
		if err != nil {
			return addr, err
		}
		if initialized {
			log.Info("Relay contract is already initialized")
			return addr, nil
		}

		log.Info("Relay contract is not initialized yet, initializing...")

		script, err = initializeScript(addr, prm.Asset, prm.Admin)
	} else {
		log.Info("Relay contract is missing on the chain, deploying...")

		script, err = deployScript(prm, addr)
	}
	if err != nil {
		return addr, fmt.Errorf("build script: %w", err)
	}

	act, err := newActor(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return addr, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	txHash, vub, err := act.SendRun(script)
	if err != nil {
		return addr, fmt.Errorf("send transaction: %w", err)
	}

	log.Info("transaction sent, waiting for it to be accepted...",
		zap.Stringer("tx", txHash), zap.Uint32("vub", vub))

	res, err := act.WaitAny(ctx, vub, txHash)
	if err != nil {
		return addr, fmt.Errorf("wait for transaction %s: %w", txHash.StringLE(), err)
	}
	if err = relay.ExecError(res); err != nil {
		return addr, err
	}

	log.Info("Relay contract successfully deployed and initialized",
		zap.Stringer("asset", prm.Asset), zap.Stringer("admin", prm.Admin),
		zap.Stringer("minDeposit", prm.MinDeposit), zap.Bool("events", prm.EmitEvents))

	return addr, nil
}

// NewActor returns actor.Actor for the given signers. Test invocations
// faulted by the Relay contract are resolved to relay errors, so callers can
// check them with errors.Is before anything is sent.
func NewActor(b actor.RPCActor, signers []actor.SignerAccount) (*actor.Actor, error) {
	return actor.NewTuned(b, signers, actor.Options{
		CheckerModifier: relayCheckerModifier,
	})
}

func newActor(b actor.RPCActor, acc *wallet.Account) (*actor.Actor, error) {
	return NewActor(b, []actor.SignerAccount{{
		Signer: transaction.Signer{
			Account: acc.Contract.ScriptHash(),
			Scopes:  transaction.CalledByEntry,
		},
		Account: acc,
	}})
}

// relayCheckerModifier is actor.TransactionCheckerModifier which checks that
// invocation finished with 'HALT' state and returns typed relay error
// otherwise.
func relayCheckerModifier(r *result.Invoke, tx *transaction.Transaction) error {
	return relay.ResolveError(actor.DefaultCheckerModifier(r, tx))
}

func isDeployed(b Blockchain, addr util.Uint160) (bool, error) {
	_, err := b.GetContractStateByHash(addr)
	if err == nil {
		return true, nil
	}
	if strings.Contains(err.Error(), "Unknown contract") {
		return false, nil
	}

	return false, fmt.Errorf("get contract state: %w", err)
}

// checkSettings returns true if the contract is deployed and initialized with
// the settings from prm, false if it is not initialized and an error
// otherwise.
func checkSettings(r *relay.ContractReader, prm RelayPrm) (bool, error) {
	// uninitialized contract returns Null which can't be unwrapped as
	// Uint160, so check the version first to distinguish network errors.
	if _, err := r.Version(); err != nil {
		return false, fmt.Errorf("read contract version: %w", err)
	}

	minDeposit, err := r.MinDeposit()
	if err != nil {
		return false, fmt.Errorf("read minimum deposit: %w", err)
	}
	if minDeposit.Cmp(prm.MinDeposit) != 0 {
		return false, fmt.Errorf("%w: minimum deposit %s", ErrInitializedDifferently, minDeposit)
	}

	events, err := r.EventsEnabled()
	if err != nil {
		return false, fmt.Errorf("read events flag: %w", err)
	}
	if events != prm.EmitEvents {
		return false, fmt.Errorf("%w: events enabled %t", ErrInitializedDifferently, events)
	}

	onChainAsset, err := r.Token()
	if err != nil {
		return false, nil
	}

	onChainAdmin, err := r.Admin()
	if err != nil {
		return false, fmt.Errorf("read admin: %w", err)
	}

	if !onChainAsset.Equals(prm.Asset) || !onChainAdmin.Equals(prm.Admin) {
		return false, fmt.Errorf("%w: asset %s, admin %s", ErrInitializedDifferently,
			onChainAsset.StringLE(), onChainAdmin.StringLE())
	}

	return true, nil
}

func deployScript(prm RelayPrm, addr util.Uint160) ([]byte, error) {
	nefBytes, err := prm.Common.NEF.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode NEF: %w", err)
	}

	manifestBytes, err := json.Marshal(prm.Common.Manifest)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	w := io.NewBufBinWriter()
	emit.AppCall(w.BinWriter, management.Hash, "deploy", callflag.All,
		nefBytes, manifestBytes, []any{prm.MinDeposit, prm.EmitEvents})
	emit.AppCall(w.BinWriter, addr, "initialize", callflag.All, prm.Asset, prm.Admin)
	if w.Err != nil {
		return nil, w.Err
	}

	return w.Bytes(), nil
}

func initializeScript(addr, asset, admin util.Uint160) ([]byte, error) {
	w := io.NewBufBinWriter()
	emit.AppCall(w.BinWriter, addr, "initialize", callflag.All, asset, admin)
	if w.Err != nil {
		return nil, w.Err
	}

	return w.Bytes(), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/nspcc-dev/relay-contract/contracts"
	"github.com/nspcc-dev/relay-contract/deploy"
	"github.com/nspcc-dev/relay-contract/internal/dump"
	"github.com/nspcc-dev/relay-contract/rpc/relay"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// cmdEnv groups resources shared by the commands talking to the chain.
type cmdEnv struct {
	ctx    context.Context
	cancel context.CancelFunc

	log   *zap.Logger
	chain *remoteBlockchain
}

func newCmdEnv(c *cli.Context) (*cmdEnv, error) {
	endpoint := c.GlobalString(rpcFlag)
	if endpoint == "" {
		return nil, errors.New("missing Neo RPC endpoint")
	}

	log, err := newLogger(c.GlobalBool(debugFlag))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	timeout := c.GlobalDuration(timeoutFlag)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	b, err := newRemoteBlockChain(ctx, endpoint, timeout)
	if err != nil {
		cancel()
		_ = log.Sync()
		return nil, fmt.Errorf("init remote blockchain: %w", err)
	}

	return &cmdEnv{
		ctx:    ctx,
		cancel: cancel,
		log:    log,
		chain:  b,
	}, nil
}

func (x *cmdEnv) close() {
	x.chain.close()
	x.cancel()
	_ = x.log.Sync()
}

func (x *cmdEnv) reader(h util.Uint160) *relay.ContractReader {
	return relay.NewReader(invoker.New(x.chain.rpc, nil), h)
}

// await waits for the transaction sent by act to be accepted and returns an
// error if its execution failed.
func (x *cmdEnv) await(act *actor.Actor, txHash util.Uint256, vub uint32, err error) (*state.AppExecResult, error) {
	if err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	x.log.Debug("waiting for transaction", zap.Stringer("tx", txHash), zap.Uint32("vub", vub))

	res, err := act.WaitAny(x.ctx, vub, txHash)
	if err != nil {
		return nil, fmt.Errorf("wait for transaction %s: %w", txHash.StringLE(), err)
	}

	err = relay.ExecError(res)
	if err != nil {
		return res, err
	}

	x.log.Info("transaction accepted", zap.Stringer("tx", txHash))

	return res, nil
}

// signer opens the wallet and unlocks the account selected by global flags.
func signer(c *cli.Context) (*wallet.Wallet, *wallet.Account, error) {
	w, err := openWallet(c.GlobalString(walletFlag))
	if err != nil {
		return nil, nil, err
	}

	acc, err := unlockAccount(w, c.GlobalString(addressFlag), c.GlobalString(passwordFlag))
	if err != nil {
		w.Close()
		return nil, nil, err
	}

	return w, acc, nil
}

func contractHash(c *cli.Context) (util.Uint160, error) {
	s := c.GlobalString(contractFlag)
	if s == "" {
		return util.Uint160{}, errors.New("missing contract address")
	}
	return parseAddress(s)
}

func requiredAddress(c *cli.Context, flag string) (util.Uint160, error) {
	s := c.String(flag)
	if s == "" {
		return util.Uint160{}, fmt.Errorf("missing --%s", flag)
	}
	return parseAddress(s)
}

func signerAccount(acc *wallet.Account, scopes transaction.WitnessScope, allowed ...util.Uint160) actor.SignerAccount {
	return actor.SignerAccount{
		Signer: transaction.Signer{
			Account:          acc.Contract.ScriptHash(),
			Scopes:           scopes,
			AllowedContracts: allowed,
		},
		Account: acc,
	}
}

// sendRelay sends the transaction produced by send using the actor of the
// given signers and waits for it.
func (x *cmdEnv) sendRelay(contract util.Uint160, signers []actor.SignerAccount,
	send func(*relay.Contract) (util.Uint256, uint32, error)) (*state.AppExecResult, error) {
	act, err := deploy.NewActor(x.chain.rpc, signers)
	if err != nil {
		return nil, fmt.Errorf("init actor: %w", err)
	}

	txHash, vub, err := send(relay.New(act, contract))

	return x.await(act, txHash, vub, err)
}

// assetOf returns the asset configured in the contract.
func (x *cmdEnv) assetOf(contract util.Uint160) (util.Uint160, error) {
	asset, err := x.reader(contract).Token()
	if err != nil {
		return asset, fmt.Errorf("read asset (contract may be not initialized): %w", relay.ResolveError(err))
	}
	return asset, nil
}

func deployAction(c *cli.Context) error {
	asset, err := requiredAddress(c, assetFlag)
	if err != nil {
		return err
	}

	minDeposit, err := parseAmount(c.String(minDepositFlag))
	if err != nil {
		return err
	}

	ctr, err := contracts.Read(os.DirFS(c.String(contractDir)), ".")
	if err != nil {
		return err
	}

	w, acc, err := signer(c)
	if err != nil {
		return err
	}
	defer w.Close()

	admin := acc.Contract.ScriptHash()
	if c.String(adminFlag) != "" {
		admin, err = parseAddress(c.String(adminFlag))
		if err != nil {
			return err
		}
	}

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	addr, err := deploy.DeployRelay(x.ctx, deploy.RelayPrm{
		Logger:       x.log,
		Blockchain:   x.chain.rpc,
		LocalAccount: acc,
		Common: deploy.CommonDeployPrm{
			NEF:      ctr.NEF,
			Manifest: ctr.Manifest,
		},
		MinDeposit: minDeposit,
		EmitEvents: c.Bool(eventsFlag),
		Asset:      asset,
		Admin:      admin,
	})
	if err != nil {
		return fmt.Errorf("deploy Relay contract: %w", err)
	}

	fmt.Fprintln(c.App.Writer, addr.StringLE())
	return nil
}

func initializeAction(c *cli.Context) error {
	h, err := contractHash(c)
	if err != nil {
		return err
	}
	asset, err := requiredAddress(c, assetFlag)
	if err != nil {
		return err
	}
	admin, err := requiredAddress(c, adminFlag)
	if err != nil {
		return err
	}

	w, acc, err := signer(c)
	if err != nil {
		return err
	}
	defer w.Close()

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	_, err = x.sendRelay(h, []actor.SignerAccount{signerAccount(acc, transaction.CalledByEntry)},
		func(r *relay.Contract) (util.Uint256, uint32, error) {
			return r.Initialize(asset, admin)
		})
	return err
}

func transferAction(c *cli.Context) error {
	h, err := contractHash(c)
	if err != nil {
		return err
	}
	to, err := requiredAddress(c, toFlag)
	if err != nil {
		return err
	}
	amount, err := parseAmount(c.String(amountFlag))
	if err != nil {
		return err
	}

	w, acc, err := signer(c)
	if err != nil {
		return err
	}
	defer w.Close()

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	asset, err := x.assetOf(h)
	if err != nil {
		return err
	}

	// owner witness is checked by both the relay and the asset
	res, err := x.sendRelay(h, []actor.SignerAccount{signerAccount(acc, transaction.CustomContracts, h, asset)},
		func(r *relay.Contract) (util.Uint256, uint32, error) {
			return r.Transfer(acc.Contract.ScriptHash(), to, amount)
		})
	if err != nil {
		return err
	}

	events, err := relay.TransferEventsFromApplicationLog(&result.ApplicationLog{
		Container:  res.Container,
		Executions: []state.Execution{res.Execution},
	}, h)
	if err != nil {
		return fmt.Errorf("decode Transfer notifications: %w", err)
	}

	for _, te := range events {
		fmt.Fprintf(c.App.Writer, "Transfer: %s -> %s %s\n",
			address.Uint160ToString(te.From), address.Uint160ToString(te.To), te.Amount)
	}

	return nil
}

func depositAction(c *cli.Context) error {
	h, err := contractHash(c)
	if err != nil {
		return err
	}
	amount, err := parseAmount(c.String(amountFlag))
	if err != nil {
		return err
	}

	w, admin, err := signer(c)
	if err != nil {
		return err
	}
	defer w.Close()

	depositor := admin
	if s := c.String(depositorFlag); s != "" {
		depositor, err = unlockAccount(w, s, c.String(depositorPasswordFlag))
		if err != nil {
			return fmt.Errorf("depositor must co-sign the deposit: %w", err)
		}
	}

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	asset, err := x.assetOf(h)
	if err != nil {
		return err
	}

	var signers []actor.SignerAccount
	if depositor.Contract.ScriptHash().Equals(admin.Contract.ScriptHash()) {
		signers = append(signers, signerAccount(admin, transaction.CustomContracts, h, asset))
	} else {
		signers = append(signers,
			signerAccount(admin, transaction.CalledByEntry),
			// depositor witness is checked by the asset only
			signerAccount(depositor, transaction.CustomContracts, asset),
		)
	}

	_, err = x.sendRelay(h, signers, func(r *relay.Contract) (util.Uint256, uint32, error) {
		return r.Deposit(depositor.Contract.ScriptHash(), amount)
	})
	return err
}

func withdrawAction(c *cli.Context) error {
	h, err := contractHash(c)
	if err != nil {
		return err
	}
	to, err := requiredAddress(c, toFlag)
	if err != nil {
		return err
	}
	amount, err := parseAmount(c.String(amountFlag))
	if err != nil {
		return err
	}

	w, acc, err := signer(c)
	if err != nil {
		return err
	}
	defer w.Close()

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	_, err = x.sendRelay(h, []actor.SignerAccount{signerAccount(acc, transaction.CalledByEntry)},
		func(r *relay.Contract) (util.Uint256, uint32, error) {
			return r.Withdraw(to, amount)
		})
	return err
}

func balanceAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one address argument")
	}
	user, err := parseAddress(c.Args().First())
	if err != nil {
		return err
	}
	h, err := contractHash(c)
	if err != nil {
		return err
	}

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	b, err := x.reader(h).Balance(user)
	if err != nil {
		return fmt.Errorf("read balance: %w", relay.ResolveError(err))
	}

	fmt.Fprintln(c.App.Writer, b)
	return nil
}

func canTransferAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("expected address and amount arguments")
	}
	from, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	amount, err := parseAmount(c.Args().Get(1))
	if err != nil {
		return err
	}
	h, err := contractHash(c)
	if err != nil {
		return err
	}

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	ok, err := x.reader(h).CanTransfer(from, amount)
	if err != nil {
		return fmt.Errorf("check transfer: %w", relay.ResolveError(err))
	}

	fmt.Fprintln(c.App.Writer, ok)
	return nil
}

func infoAction(c *cli.Context) error {
	h, err := contractHash(c)
	if err != nil {
		return err
	}

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	r := x.reader(h)

	version, err := r.Version()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	minDeposit, err := r.MinDeposit()
	if err != nil {
		return fmt.Errorf("read minimum deposit: %w", err)
	}
	events, err := r.EventsEnabled()
	if err != nil {
		return fmt.Errorf("read events flag: %w", err)
	}
	escrow, err := r.EscrowBalance()
	if err != nil {
		return fmt.Errorf("read escrow balance: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Version:     %s\n", version)
	fmt.Fprintf(out, "Min deposit: %s\n", minDeposit)
	fmt.Fprintf(out, "Events:      %t\n", events)
	fmt.Fprintf(out, "Escrow:      %s\n", escrow)

	asset, err := r.Token()
	if err != nil {
		fmt.Fprintln(out, "Asset:       not initialized")
		return nil
	}
	admin, err := r.Admin()
	if err != nil {
		return fmt.Errorf("read admin: %w", err)
	}

	fmt.Fprintf(out, "Asset:       %s\n", asset.StringLE())
	fmt.Fprintf(out, "Admin:       %s\n", address.Uint160ToString(admin))
	return nil
}

func dumpAction(c *cli.Context) error {
	label := c.String(labelFlag)
	if label == "" {
		return errors.New("missing blockchain label")
	}
	h, err := contractHash(c)
	if err != nil {
		return err
	}

	x, err := newCmdEnv(c)
	if err != nil {
		return err
	}
	defer x.close()

	count, err := x.chain.rpc.GetBlockCount()
	if err != nil {
		return fmt.Errorf("get number of the latest block: %w", err)
	}
	height := count - 1

	st, err := x.chain.contractState(h)
	if err != nil {
		return err
	}

	s := &dump.Snapshot{
		ID:       dump.ID{Label: label, Block: height},
		Contract: *st,
	}

	err = x.chain.iterateContractStorage(h, height, s.Add)
	if err != nil {
		return fmt.Errorf("iterate contract storage: %w", err)
	}

	p, err := dump.Write(c.String(dirFlag), s)
	if err != nil {
		return err
	}

	x.log.Info("contract dumped", zap.String("file", p), zap.Int("items", len(s.Storage)))
	return nil
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one dump file argument")
	}

	s, err := dump.Read(c.Args().First())
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Dump:        %s\n", s.ID)
	fmt.Fprintf(out, "Contract:    %s (%s)\n", s.Contract.Hash.StringLE(), s.Contract.Manifest.Name)

	settings, err := s.Settings()
	fmt.Fprintf(out, "Min deposit: %s\n", settings.MinDeposit)
	fmt.Fprintf(out, "Events:      %t\n", settings.EmitEvents)
	if errors.Is(err, dump.ErrNotInitialized) {
		fmt.Fprintln(out, "Asset:       not initialized")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Asset:       %s\n", settings.Asset.StringLE())
	fmt.Fprintf(out, "Admin:       %s\n", address.Uint160ToString(settings.Admin))
	return nil
}

package relay

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/relay-contract/common"
	"github.com/nspcc-dev/relay-contract/contracts/relay/relayconst"
)

const (
	tokenKey      = relayconst.TokenKey
	adminKey      = relayconst.AdminKey
	minDepositKey = relayconst.MinDepositKey
	notifyKey     = relayconst.NotifyKey
)

// settings are the values written by Initialize.
type settings struct {
	asset interop.Hash160
	admin interop.Hash160
}

// nolint:unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		minDeposit int
		emitEvents bool
	})

	if args.minDeposit < 0 {
		panic(relayconst.ErrInvalidAmount + ": negative minimum deposit")
	}

	ctx := storage.GetContext()
	storage.Put(ctx, minDepositKey, args.minDeposit)
	storage.Put(ctx, notifyKey, args.emitEvents)

	runtime.Log("relay contract deployed")
}

// Update method updates contract source code and manifest. It can be invoked
// only by the administrator of an initialized contract.
func Update(nefFile, manifest []byte, data any) {
	s := mustSettings(storage.GetReadOnlyContext())
	common.CheckAdminWitness(s.admin)

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("relay contract updated")
}

// Initialize sets the asset managed by the contract and the administrator
// allowed to deposit and withdraw escrow funds. It can be called once,
// repeated calls fail.
func Initialize(asset, admin interop.Hash160) {
	if len(asset) != interop.Hash160Len || len(admin) != interop.Hash160Len {
		panic(relayconst.ErrInvalidAddress)
	}

	ctx := storage.GetContext()
	if storage.Get(ctx, tokenKey) != nil {
		panic(relayconst.ErrAlreadyInitialized)
	}

	storage.Put(ctx, tokenKey, asset)
	storage.Put(ctx, adminKey, admin)

	runtime.Log("relay contract initialized")
}

// Transfer moves amount of the asset from one account to another. It must be
// witnessed by the source account.
//
// Produces Transfer notification if notifications were enabled at deployment.
func Transfer(from, to interop.Hash160, amount int) {
	ctx := storage.GetReadOnlyContext()
	s := mustSettings(ctx)

	common.CheckOwnerWitness(from)
	checkAmount(amount)

	if from.Equals(to) {
		panic(relayconst.ErrSelfTransfer)
	}

	// the asset checks balance too, this one gives a readable error
	if balanceOf(s.asset, from) < amount {
		panic(relayconst.ErrInsufficientFunds)
	}

	moveFunds(s.asset, from, to, amount)

	if notificationsEnabled(ctx) {
		runtime.Notify("Transfer", from, to, amount)
	}
}

// Deposit moves amount of the asset from depositor to the contract account.
// It must be witnessed by the administrator. The asset contract still requires
// the depositor's witness for the underlying transfer.
func Deposit(depositor interop.Hash160, amount int) {
	ctx := storage.GetReadOnlyContext()
	s := mustSettings(ctx)

	common.CheckAdminWitness(s.admin)
	checkAmount(amount)

	if amount < getMinDeposit(ctx) {
		panic(relayconst.ErrBelowMinDeposit)
	}

	moveFunds(s.asset, depositor, runtime.GetExecutingScriptHash(), amount)
	runtime.Log("funds deposited to escrow")
}

// Withdraw moves amount of the asset from the contract account to the
// specified one. It must be witnessed by the administrator.
func Withdraw(to interop.Hash160, amount int) {
	ctx := storage.GetReadOnlyContext()
	s := mustSettings(ctx)

	common.CheckAdminWitness(s.admin)
	checkAmount(amount)

	escrow := runtime.GetExecutingScriptHash()
	if balanceOf(s.asset, escrow) < amount {
		panic(relayconst.ErrInsufficientFunds)
	}

	moveFunds(s.asset, escrow, to, amount)
	runtime.Log("funds withdrawn from escrow")
}

// OnNEP17Payment is a callback for NEP-17 compatible asset contracts. Only
// the configured asset is accepted.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	asset := storage.Get(storage.GetReadOnlyContext(), tokenKey)
	if asset == nil {
		panic(relayconst.ErrNotInitialized)
	}

	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(asset) {
		panic(relayconst.ErrUnexpectedAsset)
	}
}

// Balance returns asset balance of the specified account. It returns 0 if
// the contract is not initialized.
func Balance(user interop.Hash160) int {
	asset := storage.Get(storage.GetReadOnlyContext(), tokenKey)
	if asset == nil {
		return 0
	}

	return balanceOf(asset.(interop.Hash160), user)
}

// CanTransfer checks whether Transfer of amount from the account would pass
// amount and balance checks. It returns false if the contract is not
// initialized.
func CanTransfer(from interop.Hash160, amount int) bool {
	if amount <= 0 {
		return false
	}

	asset := storage.Get(storage.GetReadOnlyContext(), tokenKey)
	if asset == nil {
		return false
	}

	return balanceOf(asset.(interop.Hash160), from) >= amount
}

// EscrowBalance returns asset balance of the contract account. It returns 0
// if the contract is not initialized.
func EscrowBalance() int {
	return Balance(runtime.GetExecutingScriptHash())
}

// Token returns the configured asset contract hash or nil.
func Token() interop.Hash160 {
	return getHash(storage.GetReadOnlyContext(), tokenKey)
}

// Admin returns the configured administrator or nil.
func Admin() interop.Hash160 {
	return getHash(storage.GetReadOnlyContext(), adminKey)
}

// MinDeposit returns the minimum amount accepted by Deposit.
func MinDeposit() int {
	return getMinDeposit(storage.GetReadOnlyContext())
}

// EventsEnabled returns true if Transfer produces notifications.
func EventsEnabled() bool {
	return notificationsEnabled(storage.GetReadOnlyContext())
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func mustSettings(ctx storage.Context) settings {
	asset := storage.Get(ctx, tokenKey)
	admin := storage.Get(ctx, adminKey)
	if asset == nil || admin == nil {
		panic(relayconst.ErrNotInitialized)
	}

	return settings{
		asset: asset.(interop.Hash160),
		admin: admin.(interop.Hash160),
	}
}

func checkAmount(amount int) {
	if amount <= 0 {
		panic(relayconst.ErrInvalidAmount + ": must be positive")
	}
}

func balanceOf(asset, holder interop.Hash160) int {
	return contract.Call(asset, "balanceOf", contract.ReadStates, holder).(int)
}

func moveFunds(asset, from, to interop.Hash160, amount int) {
	ok := contract.Call(asset, "transfer", contract.All, from, to, amount, nil).(bool)
	if !ok {
		panic(relayconst.ErrTransferFailed)
	}
}

func getHash(ctx storage.Context, key string) interop.Hash160 {
	h := storage.Get(ctx, key)
	if h == nil {
		return nil
	}

	return h.(interop.Hash160)
}

func getMinDeposit(ctx storage.Context) int {
	v := storage.Get(ctx, minDepositKey)
	if v == nil {
		return 0
	}

	return v.(int)
}

func notificationsEnabled(ctx storage.Context) bool {
	v := storage.Get(ctx, notifyKey)
	return v != nil && v.(bool)
}

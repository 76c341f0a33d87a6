package relay_test

import (
	"encoding/json"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/relay-contract/common"
	"github.com/nspcc-dev/relay-contract/contracts/relay/relayconst"
	"github.com/nspcc-dev/relay-contract/rpc/relay"
	"github.com/stretchr/testify/require"
)

const (
	relayPath = "."
	tokenPath = "../../internal/testcontracts/nep17token"

	minDeposit = 50
)

type env struct {
	e *neotest.Executor

	relay    *neotest.Contract
	relayInv *neotest.ContractInvoker
	token    *neotest.ContractInvoker

	admin neotest.Signer
}

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

// newEnv deploys the test token and the relay. The relay is initialized with
// the token as an asset unless initialize is false.
func newEnv(t *testing.T, emitEvents, initialize bool) *env {
	e := newExecutor(t)

	tokenCtr := neotest.CompileFile(t, e.CommitteeHash, tokenPath, path.Join(tokenPath, "config.yml"))
	e.DeployContract(t, tokenCtr, e.CommitteeHash)

	relayCtr := neotest.CompileFile(t, e.CommitteeHash, relayPath, path.Join(relayPath, "config.yml"))
	e.DeployContract(t, relayCtr, []any{int64(minDeposit), emitEvents})

	res := &env{
		e:        e,
		relay:    relayCtr,
		relayInv: e.CommitteeInvoker(relayCtr.Hash),
		token:    e.CommitteeInvoker(tokenCtr.Hash),
		admin:    e.NewAccount(t),
	}

	if initialize {
		res.relayInv.Invoke(t, stackitem.Null{}, "initialize", tokenCtr.Hash, res.admin.ScriptHash())
	}

	return res
}

func (x *env) mint(t *testing.T, to util.Uint160, amount int64) {
	x.token.Invoke(t, stackitem.Null{}, "mint", to, amount)
}

func (x *env) as(signers ...neotest.Signer) *neotest.ContractInvoker {
	return x.relayInv.WithSigners(signers...)
}

func (x *env) checkInt(t *testing.T, expected int64, method string, args ...any) {
	s, err := x.relayInv.TestInvoke(t, method, args...)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	require.EqualValues(t, expected, s.Pop().BigInt().Int64(), method)
}

// checkHash compares the result of a method returning Hash160. Such values
// are Buffer items on the stack, so only the bytes are compared.
func (x *env) checkHash(t *testing.T, expected util.Uint160, method string) {
	s, err := x.relayInv.TestInvoke(t, method)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	require.Equal(t, expected.BytesBE(), s.Pop().Bytes(), method)
}

func (x *env) checkBool(t *testing.T, expected bool, method string, args ...any) {
	s, err := x.relayInv.TestInvoke(t, method, args...)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	require.Equal(t, expected, s.Pop().Bool(), method)
}

// relayTransfers returns Transfer notifications thrown by the relay itself,
// ignoring the ones of the asset.
func (x *env) relayTransfers(t *testing.T, h util.Uint256) []*relay.TransferEvent {
	res := x.e.GetTxExecResult(t, h)

	events, err := relay.TransferEventsFromApplicationLog(&result.ApplicationLog{
		Container:  h,
		Executions: []state.Execution{res.Execution},
	}, x.relay.Hash)
	require.NoError(t, err)

	return events
}

// assetTransfers counts Transfer notifications thrown by the asset.
func (x *env) assetTransfers(t *testing.T, h util.Uint256) int {
	var n int
	for _, ev := range x.e.GetTxExecResult(t, h).Events {
		if ev.ScriptHash.Equals(x.token.Hash) && ev.Name == relayconst.TransferEventName {
			n++
		}
	}
	return n
}

func TestRelay_NotInitialized(t *testing.T) {
	x := newEnv(t, true, false)
	u, v := x.e.NewAccount(t), x.e.NewAccount(t)
	x.mint(t, u.ScriptHash(), 1000)

	x.checkInt(t, 0, "balance", u.ScriptHash())
	x.checkBool(t, false, "canTransfer", u.ScriptHash(), 10)
	x.checkInt(t, 0, "escrowBalance")
	x.checkInt(t, minDeposit, "minDeposit")
	x.relayInv.Invoke(t, stackitem.Null{}, "token")
	x.relayInv.Invoke(t, stackitem.Null{}, "admin")

	x.as(u).InvokeFail(t, relayconst.ErrNotInitialized, "transfer", u.ScriptHash(), v.ScriptHash(), 10)
	x.as(x.admin, u).InvokeFail(t, relayconst.ErrNotInitialized, "deposit", u.ScriptHash(), 100)
	x.as(x.admin).InvokeFail(t, relayconst.ErrNotInitialized, "withdraw", v.ScriptHash(), 10)
	x.as(x.admin).InvokeFail(t, relayconst.ErrNotInitialized, "update", []byte{1}, []byte("{}"), nil)

	// Not-initialized check precedes amount validation.
	x.as(u).InvokeFail(t, relayconst.ErrNotInitialized, "transfer", u.ScriptHash(), v.ScriptHash(), 0)
}

func TestRelay_Initialize(t *testing.T) {
	x := newEnv(t, true, false)
	tokenHash := x.token.Hash

	x.relayInv.InvokeFail(t, relayconst.ErrInvalidAddress, "initialize", []byte{1, 2, 3}, x.admin.ScriptHash())
	x.relayInv.InvokeFail(t, relayconst.ErrInvalidAddress, "initialize", tokenHash, []byte{1, 2, 3})

	x.relayInv.Invoke(t, stackitem.Null{}, "initialize", tokenHash, x.admin.ScriptHash())
	x.checkHash(t, tokenHash, "token")
	x.checkHash(t, x.admin.ScriptHash(), "admin")

	other := x.e.NewAccount(t)
	x.relayInv.InvokeFail(t, relayconst.ErrAlreadyInitialized, "initialize", tokenHash, other.ScriptHash())
	x.relayInv.InvokeFail(t, relayconst.ErrAlreadyInitialized, "initialize", other.ScriptHash(), x.admin.ScriptHash())
	x.checkHash(t, tokenHash, "token")
	x.checkHash(t, x.admin.ScriptHash(), "admin")
}

func TestRelay_Transfer(t *testing.T) {
	x := newEnv(t, true, true)
	u, v := x.e.NewAccount(t), x.e.NewAccount(t)
	x.mint(t, u.ScriptHash(), 500)

	t.Run("invalid amount", func(t *testing.T) {
		x.as(u).InvokeFail(t, relayconst.ErrInvalidAmount, "transfer", u.ScriptHash(), v.ScriptHash(), 0)
		x.as(u).InvokeFail(t, relayconst.ErrInvalidAmount, "transfer", u.ScriptHash(), v.ScriptHash(), -1)
	})
	t.Run("self transfer", func(t *testing.T) {
		x.as(u).InvokeFail(t, relayconst.ErrSelfTransfer, "transfer", u.ScriptHash(), u.ScriptHash(), 10)
		x.checkInt(t, 500, "balance", u.ScriptHash())
	})
	t.Run("insufficient funds", func(t *testing.T) {
		x.as(u).InvokeFail(t, relayconst.ErrInsufficientFunds, "transfer", u.ScriptHash(), v.ScriptHash(), 501)
		x.checkInt(t, 500, "balance", u.ScriptHash())
		x.checkInt(t, 0, "balance", v.ScriptHash())
	})
	t.Run("unauthorized", func(t *testing.T) {
		x.as(v).InvokeFail(t, relayconst.ErrUnauthorized, "transfer", u.ScriptHash(), v.ScriptHash(), 10)
		x.as(x.admin).InvokeFail(t, relayconst.ErrUnauthorized, "transfer", u.ScriptHash(), v.ScriptHash(), 10)
		// Missing witness wins over invalid amount.
		x.as(v).InvokeFail(t, relayconst.ErrUnauthorized, "transfer", u.ScriptHash(), v.ScriptHash(), 0)
		x.checkInt(t, 500, "balance", u.ScriptHash())
	})
	t.Run("whole balance", func(t *testing.T) {
		h := x.as(u).Invoke(t, stackitem.Null{}, "transfer", u.ScriptHash(), v.ScriptHash(), 500)
		x.checkInt(t, 0, "balance", u.ScriptHash())
		x.checkInt(t, 500, "balance", v.ScriptHash())

		events := x.relayTransfers(t, h)
		require.Len(t, events, 1)
		require.Equal(t, u.ScriptHash(), events[0].From)
		require.Equal(t, v.ScriptHash(), events[0].To)
		require.EqualValues(t, 500, events[0].Amount.Int64())
	})
}

func TestRelay_TransferEventsDisabled(t *testing.T) {
	x := newEnv(t, false, true)
	u, v := x.e.NewAccount(t), x.e.NewAccount(t)
	x.mint(t, u.ScriptHash(), 100)

	x.checkBool(t, false, "eventsEnabled")

	h := x.as(u).Invoke(t, stackitem.Null{}, "transfer", u.ScriptHash(), v.ScriptHash(), 40)
	require.Empty(t, x.relayTransfers(t, h))
	require.Equal(t, 1, x.assetTransfers(t, h))
	x.checkInt(t, 60, "balance", u.ScriptHash())
	x.checkInt(t, 40, "balance", v.ScriptHash())
}

func TestRelay_Deposit(t *testing.T) {
	x := newEnv(t, true, true)
	u := x.e.NewAccount(t)
	x.mint(t, u.ScriptHash(), 1000)

	t.Run("unauthorized", func(t *testing.T) {
		x.as(u).InvokeFail(t, relayconst.ErrUnauthorized, "deposit", u.ScriptHash(), 100)
		x.as(u).InvokeFail(t, relayconst.ErrUnauthorized, "deposit", u.ScriptHash(), 0)
	})
	t.Run("invalid amount", func(t *testing.T) {
		x.as(x.admin, u).InvokeFail(t, relayconst.ErrInvalidAmount, "deposit", u.ScriptHash(), 0)
		x.as(x.admin, u).InvokeFail(t, relayconst.ErrInvalidAmount, "deposit", u.ScriptHash(), -5)
	})
	t.Run("below minimum", func(t *testing.T) {
		x.as(x.admin, u).InvokeFail(t, relayconst.ErrBelowMinDeposit, "deposit", u.ScriptHash(), minDeposit-1)
		x.checkInt(t, 0, "escrowBalance")
		x.checkInt(t, 1000, "balance", u.ScriptHash())
	})
	t.Run("depositor did not sign", func(t *testing.T) {
		x.as(x.admin).InvokeFail(t, relayconst.ErrTransferFailed, "deposit", u.ScriptHash(), 100)
		x.checkInt(t, 1000, "balance", u.ScriptHash())
	})
	t.Run("more than depositor has", func(t *testing.T) {
		x.as(x.admin, u).InvokeFail(t, relayconst.ErrTransferFailed, "deposit", u.ScriptHash(), 1001)
		x.checkInt(t, 0, "escrowBalance")
		x.checkInt(t, 1000, "balance", u.ScriptHash())
	})
	t.Run("minimum", func(t *testing.T) {
		h := x.as(x.admin, u).Invoke(t, stackitem.Null{}, "deposit", u.ScriptHash(), minDeposit)
		// the asset notifies about the movement, the relay does not
		require.Equal(t, 1, x.assetTransfers(t, h))
		require.Empty(t, x.relayTransfers(t, h))
		x.checkInt(t, minDeposit, "escrowBalance")
		x.checkInt(t, 1000-minDeposit, "balance", u.ScriptHash())
	})
}

func TestRelay_Withdraw(t *testing.T) {
	x := newEnv(t, true, true)
	u, v := x.e.NewAccount(t), x.e.NewAccount(t)
	x.mint(t, u.ScriptHash(), 300)
	x.as(x.admin, u).Invoke(t, stackitem.Null{}, "deposit", u.ScriptHash(), 200)

	x.as(v).InvokeFail(t, relayconst.ErrUnauthorized, "withdraw", v.ScriptHash(), 10)
	x.as(x.admin).InvokeFail(t, relayconst.ErrInvalidAmount, "withdraw", v.ScriptHash(), 0)
	x.as(x.admin).InvokeFail(t, relayconst.ErrInsufficientFunds, "withdraw", v.ScriptHash(), 201)
	x.checkInt(t, 200, "escrowBalance")

	x.as(x.admin).Invoke(t, stackitem.Null{}, "withdraw", v.ScriptHash(), 200)
	x.checkInt(t, 0, "escrowBalance")
	x.checkInt(t, 200, "balance", v.ScriptHash())
}

func TestRelay_CanTransfer(t *testing.T) {
	x := newEnv(t, true, true)
	u := x.e.NewAccount(t)
	x.mint(t, u.ScriptHash(), 100)

	for _, tc := range []struct {
		amount   int64
		expected bool
	}{
		{-1, false},
		{0, false},
		{1, true},
		{100, true},
		{101, false},
	} {
		x.checkBool(t, tc.expected, "canTransfer", u.ScriptHash(), tc.amount)
	}
	x.checkBool(t, false, "canTransfer", x.admin.ScriptHash(), 1)
}

func TestRelay_Scenario(t *testing.T) {
	x := newEnv(t, true, true)
	u, v := x.e.NewAccount(t), x.e.NewAccount(t)
	x.mint(t, u.ScriptHash(), 2000)

	x.as(x.admin, u).Invoke(t, stackitem.Null{}, "deposit", u.ScriptHash(), 1000)
	x.checkInt(t, 1000, "escrowBalance")
	x.checkInt(t, 1000, "balance", u.ScriptHash())

	x.as(u).Invoke(t, stackitem.Null{}, "transfer", u.ScriptHash(), v.ScriptHash(), 100)
	x.checkInt(t, 900, "balance", u.ScriptHash())
	x.checkInt(t, 100, "balance", v.ScriptHash())
	x.checkInt(t, 1000, "escrowBalance")

	x.as(x.admin).Invoke(t, stackitem.Null{}, "withdraw", v.ScriptHash(), 900)
	x.checkInt(t, 100, "escrowBalance")
	x.checkInt(t, 1000, "balance", v.ScriptHash())
	x.checkInt(t, 900, "balance", u.ScriptHash())
}

func TestRelay_OnNEP17Payment(t *testing.T) {
	x := newEnv(t, true, false)
	acc := x.e.NewAccount(t)

	gas := x.e.NewInvoker(x.e.NativeHash(t, nativenames.Gas), acc)
	gas.InvokeFail(t, relayconst.ErrNotInitialized, "transfer", acc.ScriptHash(), x.relay.Hash, 1, nil)

	x.relayInv.Invoke(t, stackitem.Null{}, "initialize", x.token.Hash, x.admin.ScriptHash())
	gas.InvokeFail(t, relayconst.ErrUnexpectedAsset, "transfer", acc.ScriptHash(), x.relay.Hash, 1, nil)

	x.mint(t, acc.ScriptHash(), 10)
	x.token.WithSigners(acc).Invoke(t, true, "transfer", acc.ScriptHash(), x.relay.Hash, 10, nil)
	x.checkInt(t, 10, "escrowBalance")
}

func TestRelay_Update(t *testing.T) {
	x := newEnv(t, true, true)

	nefBytes, err := x.relay.NEF.Bytes()
	require.NoError(t, err)
	manifestBytes, err := json.Marshal(x.relay.Manifest)
	require.NoError(t, err)

	x.relayInv.InvokeFail(t, relayconst.ErrUnauthorized, "update", nefBytes, manifestBytes, nil)
	x.as(x.admin).InvokeFail(t, common.ErrAlreadyUpdated, "update", nefBytes, manifestBytes, nil)

	x.checkInt(t, common.Version, "version")
}

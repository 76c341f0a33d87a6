// Package nep17token implements a minimal mintable NEP-17 token used as the
// asset of Relay contract in tests.
package nep17token

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	decimals = 7

	ownerKey      = "owner"
	supplyKey     = "supply"
	balancePrefix = 'b'
)

// nolint:unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		return
	}

	owner := data.(interop.Hash160)
	if len(owner) != interop.Hash160Len {
		panic("invalid owner")
	}

	storage.Put(storage.GetContext(), ownerKey, owner)
}

func Symbol() string {
	return "RLT"
}

func Decimals() int {
	return decimals
}

func TotalSupply() int {
	return getInt(storage.GetReadOnlyContext(), supplyKey)
}

func BalanceOf(account interop.Hash160) int {
	if len(account) != interop.Hash160Len {
		panic("invalid account")
	}

	return getInt(storage.GetReadOnlyContext(), append([]byte{balancePrefix}, account...))
}

func Transfer(from, to interop.Hash160, amount int, data any) bool {
	if len(from) != interop.Hash160Len || len(to) != interop.Hash160Len {
		panic("invalid address")
	}

	if amount < 0 {
		panic("negative amount")
	}

	if !runtime.CheckWitness(from) && !from.Equals(runtime.GetCallingScriptHash()) {
		return false
	}

	ctx := storage.GetContext()
	fromKey := append([]byte{balancePrefix}, from...)

	fromBalance := getInt(ctx, fromKey)
	if fromBalance < amount {
		return false
	}

	if amount > 0 && !from.Equals(to) {
		toKey := append([]byte{balancePrefix}, to...)

		putInt(ctx, fromKey, fromBalance-amount)
		putInt(ctx, toKey, getInt(ctx, toKey)+amount)
	}

	runtime.Notify("Transfer", from, to, amount)
	postTransfer(from, to, amount, data)

	return true
}

// Mint issues new tokens to the account. It can be invoked only by the owner
// set at deployment.
func Mint(to interop.Hash160, amount int) {
	ctx := storage.GetContext()

	owner := storage.Get(ctx, ownerKey).(interop.Hash160)
	if !runtime.CheckWitness(owner) {
		panic("only owner can mint")
	}

	if amount <= 0 {
		panic("non-positive amount")
	}

	toKey := append([]byte{balancePrefix}, to...)
	putInt(ctx, toKey, getInt(ctx, toKey)+amount)
	putInt(ctx, supplyKey, getInt(ctx, supplyKey)+amount)

	var from interop.Hash160
	runtime.Notify("Transfer", from, to, amount)
	postTransfer(from, to, amount, nil)
}

func postTransfer(from, to interop.Hash160, amount int, data any) {
	if management.GetContract(to) != nil {
		contract.Call(to, "onNEP17Payment", contract.All, from, amount, data)
	}
}

func getInt(ctx storage.Context, key any) int {
	v := storage.Get(ctx, key)
	if v == nil {
		return 0
	}

	return v.(int)
}

func putInt(ctx storage.Context, key any, v int) {
	if v == 0 {
		storage.Delete(ctx, key)
		return
	}

	storage.Put(ctx, key, v)
}

package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

var errMissingAccount = errors.New("account is missing in the wallet")

// openWallet opens wallet file at the given path.
func openWallet(path string) (*wallet.Wallet, error) {
	if path == "" {
		return nil, errors.New("missing wallet path")
	}

	w, err := wallet.NewWalletFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}

	return w, nil
}

// unlockAccount returns decrypted wallet account with the given address. Empty
// address selects the default (change) account of the wallet.
func unlockAccount(w *wallet.Wallet, addr, password string) (*wallet.Account, error) {
	var h util.Uint160

	if addr == "" {
		h = w.GetChangeAddress()
	} else {
		var err error
		h, err = parseAddress(addr)
		if err != nil {
			return nil, err
		}
	}

	acc := w.GetAccount(h)
	if acc == nil {
		return nil, fmt.Errorf("%w: %s", errMissingAccount, address.Uint160ToString(h))
	}

	err := acc.Decrypt(password, w.Scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", address.Uint160ToString(h), err)
	}

	return acc, nil
}

// parseAddress decodes Neo address or LE hex-encoded script hash.
func parseAddress(s string) (util.Uint160, error) {
	h, err := address.StringToUint160(s)
	if err == nil {
		return h, nil
	}

	h, err = util.Uint160DecodeStringLE(s)
	if err != nil {
		return h, fmt.Errorf("invalid address or script hash '%s'", s)
	}

	return h, nil
}

// parseAmount decodes amount of the asset in its minimal units.
func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount '%s'", s)
	}

	return v, nil
}

package dump

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/relay-contract/contracts/relay/relayconst"
)

// ErrNotInitialized is returned by Settings for the contract without asset
// and administrator.
var ErrNotInitialized = errors.New(relayconst.ErrNotInitialized)

// Settings are the contract settings decoded from its storage.
type Settings struct {
	Asset      util.Uint160
	Admin      util.Uint160
	MinDeposit *big.Int
	EmitEvents bool
}

// Settings decodes contract settings from the snapshot storage. Deployment
// settings are returned along with ErrNotInitialized if the contract is not
// initialized.
func (x *Snapshot) Settings() (Settings, error) {
	var (
		res Settings
		err error
	)

	if v := x.Get(relayconst.MinDepositKey); v != nil {
		res.MinDeposit = bigint.FromBytes(v)
	} else {
		res.MinDeposit = new(big.Int)
	}

	notify := x.Get(relayconst.NotifyKey)
	res.EmitEvents = len(notify) > 0 && bigint.FromBytes(notify).Sign() != 0

	asset, admin := x.Get(relayconst.TokenKey), x.Get(relayconst.AdminKey)
	if asset == nil && admin == nil {
		return res, ErrNotInitialized
	}

	res.Asset, err = util.Uint160DecodeBytesBE(asset)
	if err != nil {
		return res, fmt.Errorf("decode asset: %w", err)
	}

	res.Admin, err = util.Uint160DecodeBytesBE(admin)
	if err != nil {
		return res, fmt.Errorf("decode admin: %w", err)
	}

	return res, nil
}

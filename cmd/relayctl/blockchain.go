package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// wrapper over Neo RPC client providing blockchain services needed for relayctl
// commands.
type remoteBlockchain struct {
	rpc *rpcclient.Client
}

// newRemoteBlockChain dials Neo RPC server and returns remoteBlockchain based
// on the opened connection. Connection and each request are limited by the
// given timeout.
func newRemoteBlockChain(ctx context.Context, endpoint string, timeout time.Duration) (*remoteBlockchain, error) {
	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{
		DialTimeout:    timeout,
		RequestTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	err = c.Init()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("RPC client init: %w", err)
	}

	return &remoteBlockchain{rpc: c}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

// contractState requests state.Contract of the contract with the given address.
func (x *remoteBlockchain) contractState(h util.Uint160) (*state.Contract, error) {
	st, err := x.rpc.GetContractStateByHash(h)
	if err != nil {
		return nil, fmt.Errorf("get state of the contract '%s': %w", h.StringLE(), err)
	}

	return st, nil
}

// iterateContractStorage iterates over all storage items of the Neo smart
// contract referenced by given address at the given height and passes them
// into f. iterateContractStorage breaks on any f's error and returns it.
func (x *remoteBlockchain) iterateContractStorage(contract util.Uint160, height uint32, f func(key, value []byte) error) error {
	stateRoot, err := x.rpc.GetStateRootByHeight(height)
	if err != nil {
		return fmt.Errorf("get state root at block #%d: %w", height, err)
	}

	var start []byte

	for {
		res, err := x.rpc.FindStates(stateRoot.Root, contract, nil, start, nil)
		if err != nil {
			return fmt.Errorf("get historical storage items of the contract at state root '%s': %w", stateRoot.Root, err)
		}

		for i := range res.Results {
			err = f(res.Results[i].Key, res.Results[i].Value)
			if err != nil {
				return err
			}
		}

		if !res.Truncated {
			return nil
		}

		start = res.Results[len(res.Results)-1].Key
	}
}

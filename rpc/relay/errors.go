package relay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/relay-contract/contracts/relay/relayconst"
)

// Errors returned by the contract, use errors.Is to check for them.
var (
	ErrNotInitialized     = errors.New(relayconst.ErrNotInitialized)
	ErrAlreadyInitialized = errors.New(relayconst.ErrAlreadyInitialized)
	ErrInvalidAddress     = errors.New(relayconst.ErrInvalidAddress)
	ErrInvalidAmount      = errors.New(relayconst.ErrInvalidAmount)
	ErrSelfTransfer       = errors.New(relayconst.ErrSelfTransfer)
	ErrInsufficientFunds  = errors.New(relayconst.ErrInsufficientFunds)
	ErrUnauthorized       = errors.New(relayconst.ErrUnauthorized)
	ErrTransferFailed     = errors.New(relayconst.ErrTransferFailed)
	ErrUnexpectedAsset    = errors.New(relayconst.ErrUnexpectedAsset)

	// ErrBelowMinimumDeposit is a kind of ErrInvalidAmount.
	ErrBelowMinimumDeposit = fmt.Errorf("%w: below minimum deposit", ErrInvalidAmount)
)

// ordered by specificity: longer messages share a prefix with shorter ones.
var knownErrors = []struct {
	msg string
	err error
}{
	{relayconst.ErrBelowMinDeposit, ErrBelowMinimumDeposit},
	{relayconst.ErrAlreadyInitialized, ErrAlreadyInitialized},
	{relayconst.ErrNotInitialized, ErrNotInitialized},
	{relayconst.ErrInvalidAddress, ErrInvalidAddress},
	{relayconst.ErrInvalidAmount, ErrInvalidAmount},
	{relayconst.ErrSelfTransfer, ErrSelfTransfer},
	{relayconst.ErrInsufficientFunds, ErrInsufficientFunds},
	{relayconst.ErrUnauthorized, ErrUnauthorized},
	{relayconst.ErrTransferFailed, ErrTransferFailed},
	{relayconst.ErrUnexpectedAsset, ErrUnexpectedAsset},
}

// matchException returns the sentinel error corresponding to the VM exception
// message or nil if the message is unknown.
func matchException(exception string) error {
	for i := range knownErrors {
		if strings.Contains(exception, knownErrors[i].msg) {
			return knownErrors[i].err
		}
	}
	return nil
}

// ResolveError wraps err with the contract error it carries, so it can be
// checked with errors.Is. Errors not coming from the contract are returned
// as is.
func ResolveError(err error) error {
	if err == nil {
		return nil
	}

	known := matchException(err.Error())
	if known == nil {
		return err
	}
	return fmt.Errorf("%w: %v", known, err)
}

// ExecError returns an error if the transaction failed. Faults caused by the
// contract are resolved like in ResolveError.
func ExecError(res *state.AppExecResult) error {
	if res == nil {
		return errors.New("nil execution result")
	}
	if res.VMState == vmstate.Halt {
		return nil
	}

	fault := fmt.Errorf("transaction %s failed with %s state: %s",
		res.Container.StringLE(), res.VMState, res.FaultException)

	known := matchException(res.FaultException)
	if known == nil {
		return fault
	}
	return fmt.Errorf("%w: %v", known, fault)
}

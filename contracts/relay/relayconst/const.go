/*
Package relayconst contains constants shared by the Relay contract and its
off-chain clients.

Every failure of the Relay contract aborts the invocation with an exception
whose message starts with one of the Err* values below, so clients can match
the exception text against them.
*/
package relayconst

const (
	// ErrNotInitialized is thrown when the asset and administrator are not
	// configured yet.
	ErrNotInitialized = "not initialized"

	// ErrAlreadyInitialized is thrown on repeated initialization.
	ErrAlreadyInitialized = "already initialized"

	// ErrInvalidAddress is thrown when an account argument is not a 20-byte
	// script hash.
	ErrInvalidAddress = "invalid address"

	// ErrInvalidAmount is thrown for non-positive amounts.
	ErrInvalidAmount = "invalid amount"

	// ErrBelowMinDeposit is thrown when a deposit is less than the minimum
	// deposit set at deployment. It is a kind of ErrInvalidAmount.
	ErrBelowMinDeposit = ErrInvalidAmount + ": below minimum deposit"

	// ErrSelfTransfer is thrown when source and destination of a transfer
	// are the same account.
	ErrSelfTransfer = "self transfer"

	// ErrInsufficientFunds is thrown when the source account (or escrow on
	// withdrawal) holds less than requested.
	ErrInsufficientFunds = "insufficient funds"

	// ErrUnauthorized is thrown when the required witness is missing.
	ErrUnauthorized = "unauthorized"

	// ErrTransferFailed is thrown when the asset contract declines a
	// transfer.
	ErrTransferFailed = "asset transfer failed"

	// ErrUnexpectedAsset is thrown when the contract receives tokens other
	// than the configured asset.
	ErrUnexpectedAsset = "unexpected asset"
)

// TransferEventName is the name of the notification produced on successful
// transfers when events are enabled.
const TransferEventName = "Transfer"

// Storage keys of the contract settings. Asset and administrator are written
// by initialize, minimum deposit and notification flag at deployment.
const (
	TokenKey      = "token"
	AdminKey      = "admin"
	MinDepositKey = "minDeposit"
	NotifyKey     = "notify"
)

package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/relay-contract/contracts/relay/relayconst"
)

const (
	// ErrOwnerWitnessFailed appears when the method must be called
	// by an owner of some assets but was not.
	ErrOwnerWitnessFailed = relayconst.ErrUnauthorized + ": owner witness check failed"
	// ErrAdminWitnessFailed appears when the method must be called
	// by the contract administrator but was not.
	ErrAdminWitnessFailed = relayconst.ErrUnauthorized + ": admin witness check failed"
)

// CheckOwnerWitness checks witness of the passed caller.
// It panics with ErrOwnerWitnessFailed message on fail.
func CheckOwnerWitness(caller []byte) {
	checkWitnessWithPanic(caller, ErrOwnerWitnessFailed)
}

// CheckAdminWitness checks witness of the configured administrator.
// It panics with ErrAdminWitnessFailed message on fail.
func CheckAdminWitness(admin []byte) {
	checkWitnessWithPanic(admin, ErrAdminWitnessFailed)
}

func checkWitnessWithPanic(caller []byte, panicMsg string) {
	if !runtime.CheckWitness(caller) {
		panic(panicMsg)
	}
}

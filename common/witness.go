package common

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

// ErrOwnerWitnessFailed appears when the method must be called
// by the bank owner but was not.
const ErrOwnerWitnessFailed = "owner witness check failed"

// CheckOwnerWitness checks witness of the passed owner account.
// It panics with ErrOwnerWitnessFailed message on fail.
func CheckOwnerWitness(owner []byte) {
	if !runtime.CheckWitness(owner) {
		panic(ErrOwnerWitnessFailed)
	}
}

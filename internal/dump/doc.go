/*
Package dump provides I/O operations for collected states of the Relay
contract.

A dump is a snapshot of the contract state (including its storage) taken at
some block of a particular network. It allows inspecting the contract
settings offline and comparing them between networks or versions.

Dumps are stored in the file system using human-readable JSON encoding, one
file per dump named '<label>-<block>-relay.json'.
*/
package dump

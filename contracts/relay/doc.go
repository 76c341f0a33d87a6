/*
Package relay implements Relay contract, a custodial payment relay for a
single NEP-17 asset.

Relay contract moves the configured asset between accounts on behalf of its
users and keeps an escrow balance under its own account. Two roles authorize
operations: an account owner authorizes its own outgoing transfers, and a
single administrator authorizes deposits into and withdrawals from the escrow.
The contract keeps no balances of its own, all of them are stored by the asset
contract and requested on every operation.

Deployment data is a two-element array: minimum deposit amount (Integer) and
a flag enabling Transfer notifications (Boolean). The asset and the
administrator are set once by Initialize method after deployment, every
mutating method fails with "not initialized" exception before that.

# Contract notifications

Transfer notification. It is produced on a successful transfer if
notifications were enabled at deployment.

	Transfer:
	  - name: from
	    type: Hash160
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
*/
package relay

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'token' -> interop.Hash160
   hash of the NEP-17 asset contract, written once by Initialize
 - 'admin' -> interop.Hash160
   administrator account, written once by Initialize
 - 'minDeposit' -> int
   minimum amount accepted by Deposit, written at deployment
 - 'notify' -> bool
   whether Transfer produces notifications, written at deployment

# Escrow
Escrow balance is the asset balance of the contract account. It is never
stored by the contract.
*/

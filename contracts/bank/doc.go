/*
Bank contract is a permissioned balance ledger for a single NEP-17 asset.

The bank is administered by two fixed roles. The owner is set at deploy time
and is the only account that may run Setup, which reconfigures the bank and
drops every ledger record. The manager runs day-to-day operations: opening
and closing the bank, depositing to and withdrawing from accounts and
crediting account balances. Any account may debit its own ledger record.

A ledger record is created on the first successful deposit for an account
and lives until the next Setup. The number of records is bounded by the
maximum accounts value, checked only when a record is created. Balances are
bounded to the 128-bit unsigned range.

Operational outcomes are reported through the BankingEvent notification
rather than return values. An authorization failure, a closed bank, a missed
account lookup, an insufficient or frozen balance and a credit overflow all
leave the transaction in HALT state and surface only as an error status in
the event stream. A deposit overflow and a failed asset transfer during
withdrawal fault the transaction instead, rolling back every change it made
and emitting nothing.

# Contract notifications

BankingEvent notification. This is produced exactly once by every mutating
method that completes normally, whether the logical outcome was a success
or an error.

	BankingEvent:
	  - name: operator
	    type: Hash160
	  - name: status
	    type: String

The operator is the account that sent the transaction. The status is one of
the codes listed in the bankconst package.
*/
package bank

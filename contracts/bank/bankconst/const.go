/*
Package bankconst contains constants of the Bank contract that are shared
with client-side code: notification status codes and stored state values.
*/
package bankconst

// BankingEventName is the name of the notification thrown by every mutating
// Bank contract method that completes normally.
const BankingEventName = "BankingEvent"

// Success status codes of the BankingEvent notification.
const (
	BankSetupSuccess         = "BankSetupSuccess"
	BankOpenSuccess          = "BankOpenSuccess"
	BankCloseSuccess         = "BankCloseSuccess"
	AccountDepositSuccess    = "AccountDepositSuccess"
	AccountWithdrawalSuccess = "AccountWithdrawalSuccess"
	AccountCreditSuccess     = "AccountCreditSuccess"
	AccountDebitSuccess      = "AccountDebitSuccess"
)

// Error status codes of the BankingEvent notification. These accompany a
// HALTed transaction: the call succeeds at the transport level and the event
// stream is the only place the outcome is visible.
const (
	BadOrigin                  = "BadOrigin"
	BankIsClose                = "BankIsClose"
	BankAccountMaxOut          = "BankAccountMaxOut"
	AccountNotFound            = "AccountNotFound"
	AccountBalanceInsufficient = "AccountBalanceInsufficient"
	AccountFrozen              = "AccountFrozen"
	AccountBalanceOverflow     = "AccountBalanceOverflow"
)

// Bank status values stored under the bank status key.
const (
	BankOpen   = 0
	BankClosed = 1
)

// Ledger status values.
const (
	LedgerFrozen = 0
	LedgerLiquid = 1
)

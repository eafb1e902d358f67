package bank

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/permbank/bank-contract/common"
	"github.com/permbank/bank-contract/contracts/bank/bankconst"
)

type (
	// Bank holds the bank configuration as returned by the Get method.
	Bank struct {
		// Script hash of the NEP-17 contract whose asset the bank administers.
		Asset interop.Hash160
		// Account that may reconfigure the bank, fixed at deploy.
		Owner interop.Hash160
		// Account that runs day-to-day operations.
		Manager interop.Hash160
		// Upper bound on the number of ledger records.
		MaximumAccounts int
		// Bank status (0-Open, 1-Closed).
		Status int
	}

	// Ledger is a single account record of the bank.
	Ledger struct {
		// Account address
		Account interop.Hash160
		// Amount held for the account in the bank's asset
		Balance int
		// Ledger status (0-Frozen, 1-Liquid)
		Status int
	}
)

const (
	assetKey       = 'a'
	ownerKey       = 'o'
	managerKey     = 'm'
	maxAccountsKey = 'x'
	bankStatusKey  = 's'
	ledgersKey     = 'l'
)

// maxBalance bounds every ledger balance to the 128-bit unsigned range.
// NeoVM integers are 256-bit wide, so the bound has to be enforced on every
// addition.
var maxBalance int

func init() {
	one := 1
	maxBalance = one<<128 - 1
}

// nolint:unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		owner           interop.Hash160
		asset           interop.Hash160
		maximumAccounts int
	})

	if len(args.owner) != interop.Hash160Len || len(args.asset) != interop.Hash160Len {
		panic("incorrect length of account script hash")
	}
	if args.maximumAccounts < 0 {
		panic("negative maximum accounts")
	}

	storage.Put(ctx, ownerKey, args.owner)
	storage.Put(ctx, managerKey, args.owner)
	storage.Put(ctx, assetKey, args.asset)
	storage.Put(ctx, maxAccountsKey, args.maximumAccounts)
	storage.Put(ctx, bankStatusKey, bankconst.BankOpen)
	putLedgers(ctx, []Ledger{})

	runtime.Log("bank contract initialized")
}

// OnNEP17Payment is a callback for NEP-17 compatible asset contracts. The
// bank account accepts only the asset it administers, everything else is
// rejected.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(getAsset(storage.GetReadOnlyContext())) {
		common.AbortWithMessage("bank contract accepts the administered asset only")
	}
}

// Update method updates contract source code and manifest. It can be invoked
// only by the bank owner.
func Update(nefFile, manifest []byte, data any) {
	ctx := storage.GetReadOnlyContext()
	common.CheckOwnerWitness(getOwner(ctx))

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("bank contract updated")
}

// Setup overwrites the bank configuration: administered asset, manager
// account and the ledger capacity. It drops every existing ledger record and
// reopens the bank. It can be invoked only by the bank owner; any other
// caller gets a BadOrigin event and the state is left intact.
//
// It produces BankingEvent notification.
func Setup(asset, manager interop.Hash160, maximumAccounts int) {
	ctx := storage.GetContext()
	operator := caller()

	if !isOwner(ctx, operator) {
		notifyStatus(operator, bankconst.BadOrigin)
		return
	}

	if len(asset) != interop.Hash160Len || len(manager) != interop.Hash160Len {
		panic("incorrect length of account script hash")
	}
	if maximumAccounts < 0 {
		panic("negative maximum accounts")
	}

	storage.Put(ctx, assetKey, asset)
	storage.Put(ctx, managerKey, manager)
	storage.Put(ctx, maxAccountsKey, maximumAccounts)
	storage.Put(ctx, bankStatusKey, bankconst.BankOpen)
	putLedgers(ctx, []Ledger{})

	notifyStatus(operator, bankconst.BankSetupSuccess)
}

// Get returns the bank configuration record.
func Get() Bank {
	ctx := storage.GetReadOnlyContext()
	return Bank{
		Asset:           getAsset(ctx),
		Owner:           getOwner(ctx),
		Manager:         getManager(ctx),
		MaximumAccounts: storage.Get(ctx, maxAccountsKey).(int),
		Status:          getBankStatus(ctx),
	}
}

// Ledgers returns every ledger record of the bank in insertion order.
func Ledgers() []Ledger {
	return getLedgers(storage.GetReadOnlyContext())
}

// GetBalance returns the ledger record of the specified account. Unlike other
// lookups it fails the whole call if the account is unknown.
func GetBalance(account interop.Hash160) Ledger {
	if len(account) != interop.Hash160Len {
		panic("incorrect length of account script hash")
	}

	ledgers := getLedgers(storage.GetReadOnlyContext())
	i := findLedger(ledgers, account)
	if i < 0 {
		panic("account not found")
	}

	return ledgers[i]
}

// Open reopens the bank for deposit, withdraw, credit and debit operations.
// It can be invoked only by the bank manager.
//
// It produces BankingEvent notification.
func Open() {
	ctx := storage.GetContext()
	operator := caller()

	if !isManager(ctx, operator) {
		notifyStatus(operator, bankconst.BadOrigin)
		return
	}

	storage.Put(ctx, bankStatusKey, bankconst.BankOpen)
	notifyStatus(operator, bankconst.BankOpenSuccess)
}

// Close suspends deposit, withdraw, credit and debit operations. It can be
// invoked only by the bank manager.
//
// It produces BankingEvent notification.
func Close() {
	ctx := storage.GetContext()
	operator := caller()

	if !isManager(ctx, operator) {
		notifyStatus(operator, bankconst.BadOrigin)
		return
	}

	storage.Put(ctx, bankStatusKey, bankconst.BankClosed)
	notifyStatus(operator, bankconst.BankCloseSuccess)
}

// Deposit adds amount to the account's ledger record, creating the record on
// first deposit. Creation is refused with a BankAccountMaxOut event once the
// ledger capacity is reached. A balance overflow here faults the whole call.
// It can be invoked only by the bank manager while the bank is open.
//
// It produces BankingEvent notification.
func Deposit(account interop.Hash160, amount int) {
	ctx := storage.GetContext()
	operator := caller()

	if !isManager(ctx, operator) {
		notifyStatus(operator, bankconst.BadOrigin)
		return
	}
	if getBankStatus(ctx) != bankconst.BankOpen {
		notifyStatus(operator, bankconst.BankIsClose)
		return
	}

	if len(account) != interop.Hash160Len {
		panic("incorrect length of account script hash")
	}
	if amount < 0 {
		panic("negative amount")
	}

	ledgers := getLedgers(ctx)
	i := findLedger(ledgers, account)
	if i < 0 {
		if len(ledgers) >= storage.Get(ctx, maxAccountsKey).(int) {
			notifyStatus(operator, bankconst.BankAccountMaxOut)
			return
		}
		if amount > maxBalance {
			panic("account balance overflow")
		}

		ledgers = append(ledgers, Ledger{
			Account: account,
			Balance: amount,
			Status:  bankconst.LedgerLiquid,
		})
	} else {
		l := ledgers[i]
		if amount > maxBalance-l.Balance {
			panic("account balance overflow")
		}

		l.Balance += amount
		ledgers[i] = l
	}

	putLedgers(ctx, ledgers)
	notifyStatus(operator, bankconst.AccountDepositSuccess)
}

// Withdraw removes amount from the account's ledger record and transfers the
// same amount of the administered asset from the contract address to the
// account. A failed asset transfer faults the whole call, reverting the
// ledger decrement. It can be invoked only by the bank manager while the
// bank is open.
//
// It produces BankingEvent notification.
func Withdraw(account interop.Hash160, amount int) {
	ctx := storage.GetContext()
	operator := caller()

	if !isManager(ctx, operator) {
		notifyStatus(operator, bankconst.BadOrigin)
		return
	}
	if getBankStatus(ctx) != bankconst.BankOpen {
		notifyStatus(operator, bankconst.BankIsClose)
		return
	}

	if len(account) != interop.Hash160Len {
		panic("incorrect length of account script hash")
	}
	if amount < 0 {
		panic("negative amount")
	}

	ledgers := getLedgers(ctx)
	i := findLedger(ledgers, account)
	if i < 0 {
		notifyStatus(operator, bankconst.AccountNotFound)
		return
	}

	l := ledgers[i]
	if l.Balance < amount {
		notifyStatus(operator, bankconst.AccountBalanceInsufficient)
		return
	}

	l.Balance -= amount
	ledgers[i] = l
	putLedgers(ctx, ledgers)

	from := runtime.GetExecutingScriptHash()
	transferred := contract.Call(getAsset(ctx), "transfer",
		contract.All, from, account, amount, nil).(bool)
	if !transferred {
		panic("failed to transfer assets, aborting")
	}

	notifyStatus(operator, bankconst.AccountWithdrawalSuccess)
}

// Credit adds amount to the account's ledger record without touching the
// underlying asset. Unlike Deposit it never creates a record and reports a
// balance overflow as an AccountBalanceOverflow event instead of a fault.
// It can be invoked only by the bank manager while the bank is open.
//
// It produces BankingEvent notification.
func Credit(account interop.Hash160, amount int) {
	ctx := storage.GetContext()
	operator := caller()

	if !isManager(ctx, operator) {
		notifyStatus(operator, bankconst.BadOrigin)
		return
	}
	if getBankStatus(ctx) != bankconst.BankOpen {
		notifyStatus(operator, bankconst.BankIsClose)
		return
	}

	if len(account) != interop.Hash160Len {
		panic("incorrect length of account script hash")
	}
	if amount < 0 {
		panic("negative amount")
	}

	ledgers := getLedgers(ctx)
	i := findLedger(ledgers, account)
	if i < 0 {
		notifyStatus(operator, bankconst.AccountNotFound)
		return
	}

	l := ledgers[i]
	if l.Status == bankconst.LedgerFrozen {
		notifyStatus(operator, bankconst.AccountFrozen)
		return
	}
	if amount > maxBalance-l.Balance {
		notifyStatus(operator, bankconst.AccountBalanceOverflow)
		return
	}

	l.Balance += amount
	ledgers[i] = l
	putLedgers(ctx, ledgers)

	notifyStatus(operator, bankconst.AccountCreditSuccess)
}

// Debit removes amount from the caller's own ledger record without touching
// the underlying asset. Any account may debit itself while the bank is open,
// no role is required.
//
// It produces BankingEvent notification.
func Debit(amount int) {
	ctx := storage.GetContext()
	operator := caller()

	if getBankStatus(ctx) != bankconst.BankOpen {
		notifyStatus(operator, bankconst.BankIsClose)
		return
	}

	if amount < 0 {
		panic("negative amount")
	}

	ledgers := getLedgers(ctx)
	i := findLedger(ledgers, operator)
	if i < 0 {
		notifyStatus(operator, bankconst.AccountNotFound)
		return
	}

	l := ledgers[i]
	if l.Status == bankconst.LedgerFrozen {
		notifyStatus(operator, bankconst.AccountFrozen)
		return
	}
	if l.Balance < amount {
		notifyStatus(operator, bankconst.AccountBalanceInsufficient)
		return
	}

	l.Balance -= amount
	ledgers[i] = l
	putLedgers(ctx, ledgers)

	notifyStatus(operator, bankconst.AccountDebitSuccess)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// caller returns the account the platform authenticated for the current
// invocation.
func caller() interop.Hash160 {
	return runtime.GetScriptContainer().Sender
}

func isOwner(ctx storage.Context, acc interop.Hash160) bool {
	return acc.Equals(getOwner(ctx))
}

func isManager(ctx storage.Context, acc interop.Hash160) bool {
	return acc.Equals(getManager(ctx))
}

func notifyStatus(operator interop.Hash160, status string) {
	runtime.Notify(bankconst.BankingEventName, operator, status)
}

func getOwner(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, ownerKey).(interop.Hash160)
}

func getManager(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, managerKey).(interop.Hash160)
}

func getAsset(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, assetKey).(interop.Hash160)
}

func getBankStatus(ctx storage.Context) int {
	return storage.Get(ctx, bankStatusKey).(int)
}

func getLedgers(ctx storage.Context) []Ledger {
	data := storage.Get(ctx, ledgersKey)
	if data != nil {
		return std.Deserialize(data.([]byte)).([]Ledger)
	}

	return []Ledger{}
}

func putLedgers(ctx storage.Context, ledgers []Ledger) {
	common.SetSerialized(ctx, ledgersKey, ledgers)
}

// findLedger returns the position of the account's record in the ledger
// sequence or -1. First match wins, records are unique by account.
func findLedger(ledgers []Ledger, account interop.Hash160) int {
	for i := range ledgers {
		if ledgers[i].Account.Equals(account) {
			return i
		}
	}

	return -1
}

// Package bank contains RPC wrappers for the Permissioned Bank contract.
package bank

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/permbank/bank-contract/contracts/bank/bankconst"
)

// Bank is a contract-specific bank.Bank type used by its methods.
type Bank struct {
	Asset           util.Uint160
	Owner           util.Uint160
	Manager         util.Uint160
	MaximumAccounts *big.Int
	Status          *big.Int
}

// Ledger is a contract-specific bank.Ledger type used by its methods.
type Ledger struct {
	Account util.Uint160
	Balance *big.Int
	Status  *big.Int
}

// BankingEvent represents "BankingEvent" event emitted by the contract.
type BankingEvent struct {
	Operator util.Uint160
	Status   string
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract
// hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and
// the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Get invokes `get` method of contract.
func (c *ContractReader) Get() (*Bank, error) {
	return itemToBank(unwrap.Item(c.invoker.Call(c.hash, "get")))
}

// GetBalance invokes `getBalance` method of contract.
func (c *ContractReader) GetBalance(account util.Uint160) (*Ledger, error) {
	return itemToLedger(unwrap.Item(c.invoker.Call(c.hash, "getBalance", account)))
}

// Ledgers invokes `ledgers` method of contract.
func (c *ContractReader) Ledgers() ([]*Ledger, error) {
	items, err := unwrap.Array(c.invoker.Call(c.hash, "ledgers"))
	if err != nil {
		return nil, err
	}

	res := make([]*Ledger, 0, len(items))
	for i := range items {
		l, err := itemToLedger(items[i], nil)
		if err != nil {
			return nil, fmt.Errorf("ledger #%d: %w", i, err)
		}
		res = append(res, l)
	}

	return res, nil
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// Setup creates a transaction invoking `setup` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Setup(asset, manager util.Uint160, maximumAccounts *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "setup", asset, manager, maximumAccounts)
}

// SetupTransaction creates a transaction invoking `setup` method of the
// contract. This transaction is signed, but not sent to the network,
// instead it's returned to the caller.
func (c *Contract) SetupTransaction(asset, manager util.Uint160, maximumAccounts *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "setup", asset, manager, maximumAccounts)
}

// Open creates a transaction invoking `open` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Open() (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "open")
}

// OpenTransaction creates a transaction invoking `open` method of the
// contract. This transaction is signed, but not sent to the network,
// instead it's returned to the caller.
func (c *Contract) OpenTransaction() (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "open")
}

// Close creates a transaction invoking `close` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Close() (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "close")
}

// CloseTransaction creates a transaction invoking `close` method of the
// contract. This transaction is signed, but not sent to the network,
// instead it's returned to the caller.
func (c *Contract) CloseTransaction() (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "close")
}

// Deposit creates a transaction invoking `deposit` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Deposit(account util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "deposit", account, amount)
}

// DepositTransaction creates a transaction invoking `deposit` method of the
// contract. This transaction is signed, but not sent to the network,
// instead it's returned to the caller.
func (c *Contract) DepositTransaction(account util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "deposit", account, amount)
}

// Withdraw creates a transaction invoking `withdraw` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Withdraw(account util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "withdraw", account, amount)
}

// WithdrawTransaction creates a transaction invoking `withdraw` method of the
// contract. This transaction is signed, but not sent to the network,
// instead it's returned to the caller.
func (c *Contract) WithdrawTransaction(account util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "withdraw", account, amount)
}

// Credit creates a transaction invoking `credit` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Credit(account util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "credit", account, amount)
}

// CreditTransaction creates a transaction invoking `credit` method of the
// contract. This transaction is signed, but not sent to the network,
// instead it's returned to the caller.
func (c *Contract) CreditTransaction(account util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "credit", account, amount)
}

// Debit creates a transaction invoking `debit` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Debit(amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "debit", amount)
}

// DebitTransaction creates a transaction invoking `debit` method of the
// contract. This transaction is signed, but not sent to the network,
// instead it's returned to the caller.
func (c *Contract) DebitTransaction(amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "debit", amount)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nefFile, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", nefFile, manifest, data)
}

func itemToBank(item stackitem.Item, err error) (*Bank, error) {
	if err != nil {
		return nil, err
	}

	res := new(Bank)
	if err := res.FromStackItem(item); err != nil {
		return nil, err
	}
	return res, nil
}

// FromStackItem retrieves fields of Bank from the given [stackitem.Item]
// or returns an error if it's not possible to do to so.
func (res *Bank) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 5 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	if res.Asset, err = scriptHashField(arr[0]); err != nil {
		return fmt.Errorf("field Asset: %w", err)
	}
	if res.Owner, err = scriptHashField(arr[1]); err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}
	if res.Manager, err = scriptHashField(arr[2]); err != nil {
		return fmt.Errorf("field Manager: %w", err)
	}
	if res.MaximumAccounts, err = arr[3].TryInteger(); err != nil {
		return fmt.Errorf("field MaximumAccounts: %w", err)
	}
	if res.Status, err = arr[4].TryInteger(); err != nil {
		return fmt.Errorf("field Status: %w", err)
	}

	return nil
}

func itemToLedger(item stackitem.Item, err error) (*Ledger, error) {
	if err != nil {
		return nil, err
	}

	res := new(Ledger)
	if err := res.FromStackItem(item); err != nil {
		return nil, err
	}
	return res, nil
}

// FromStackItem retrieves fields of Ledger from the given [stackitem.Item]
// or returns an error if it's not possible to do to so.
func (res *Ledger) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	if res.Account, err = scriptHashField(arr[0]); err != nil {
		return fmt.Errorf("field Account: %w", err)
	}
	if res.Balance, err = arr[1].TryInteger(); err != nil {
		return fmt.Errorf("field Balance: %w", err)
	}
	if res.Status, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Status: %w", err)
	}

	return nil
}

// BankingEventsFromApplicationLog retrieves a set of all emitted events
// with "BankingEvent" name from the provided [result.ApplicationLog].
func BankingEventsFromApplicationLog(log *result.ApplicationLog) ([]*BankingEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*BankingEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != bankconst.BankingEventName {
				continue
			}
			event := new(BankingEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize BankingEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to BankingEvent or
// returns an error if it's not possible to do to so.
func (e *BankingEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	if e.Operator, err = scriptHashField(arr[0]); err != nil {
		return fmt.Errorf("field Operator: %w", err)
	}

	b, err := arr[1].TryBytes()
	if err != nil {
		return fmt.Errorf("field Status: %w", err)
	}
	e.Status = string(b)

	return nil
}

func scriptHashField(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}

	return util.Uint160DecodeBytesBE(b)
}

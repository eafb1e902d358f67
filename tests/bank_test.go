package tests

import (
	"math/big"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/permbank/bank-contract/contracts/bank/bankconst"
	bankrpc "github.com/permbank/bank-contract/rpc/bank"
	"github.com/stretchr/testify/require"
)

const bankPath = "../contracts/bank"

// maxBalance is the largest value a ledger balance may hold, 2^128-1.
var maxBalance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

type bankTestContext struct {
	e       *neotest.Executor
	hash    util.Uint160
	gasHash util.Uint160

	// owner invoker signs with the committee account the contract was
	// deployed with.
	owner *neotest.ContractInvoker

	manager     *neotest.ContractInvoker
	managerHash util.Uint160
}

// newBank deploys the bank contract administering native GAS with the
// committee account as the owner, then hands day-to-day operations to a
// dedicated manager account via setup.
func newBank(t *testing.T, maximumAccounts int64) *bankTestContext {
	e := newExecutor(t)
	gasHash := e.NativeHash(t, nativenames.Gas)

	ctr := neotest.CompileFile(t, e.CommitteeHash, bankPath, path.Join(bankPath, "config.yml"))
	e.DeployContract(t, ctr, []interface{}{e.CommitteeHash, gasHash, maximumAccounts})

	owner := e.CommitteeInvoker(ctr.Hash)
	managerAcc := owner.NewAccount(t)
	manager := owner.WithSigners(managerAcc)

	owner.Invoke(t, stackitem.Null{}, "setup", gasHash, managerAcc.ScriptHash(), maximumAccounts)

	return &bankTestContext{
		e:           e,
		hash:        ctr.Hash,
		gasHash:     gasHash,
		owner:       owner,
		manager:     manager,
		managerHash: managerAcc.ScriptHash(),
	}
}

// checkBankingEvent asserts that index-th notification of the transaction is
// a BankingEvent with the given operator and status code.
func (c *bankTestContext) checkBankingEvent(t *testing.T, h util.Uint256, index int, operator util.Uint160, status string) {
	c.e.CheckTxNotificationEvent(t, h, index, state.NotificationEvent{
		ScriptHash: c.hash,
		Name:       bankconst.BankingEventName,
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.NewByteArray(operator.BytesBE()),
			stackitem.NewByteArray([]byte(status)),
		}),
	})
}

func (c *bankTestContext) getBank(t *testing.T) *bankrpc.Bank {
	s, err := c.owner.TestInvoke(t, "get")
	require.NoError(t, err)

	res := new(bankrpc.Bank)
	require.NoError(t, res.FromStackItem(s.Pop().Item()))
	return res
}

func (c *bankTestContext) getBalance(t *testing.T, account util.Uint160) *bankrpc.Ledger {
	s, err := c.owner.TestInvoke(t, "getBalance", account)
	require.NoError(t, err)

	res := new(bankrpc.Ledger)
	require.NoError(t, res.FromStackItem(s.Pop().Item()))
	return res
}

func (c *bankTestContext) ledgerCount(t *testing.T) int {
	s, err := c.owner.TestInvoke(t, "ledgers")
	require.NoError(t, err)

	items, ok := s.Pop().Item().Value().([]stackitem.Item)
	require.True(t, ok)
	return len(items)
}

func (c *bankTestContext) gasBalance(t *testing.T, account util.Uint160) *big.Int {
	s, err := c.e.CommitteeInvoker(c.gasHash).TestInvoke(t, "balanceOf", account)
	require.NoError(t, err)
	return s.Pop().BigInt()
}

// fundBank tops up the contract account with the administered asset so that
// withdrawals have something to pay out.
func (c *bankTestContext) fundBank(t *testing.T, amount int64) {
	c.e.CommitteeInvoker(c.gasHash).Invoke(t, true, "transfer",
		c.e.CommitteeHash, c.hash, amount, nil)
}

func TestBankGet(t *testing.T) {
	c := newBank(t, 10)

	info := c.getBank(t)
	require.Equal(t, c.gasHash, info.Asset)
	require.Equal(t, c.e.CommitteeHash, info.Owner)
	require.Equal(t, c.managerHash, info.Manager)
	require.EqualValues(t, 10, info.MaximumAccounts.Int64())
	require.EqualValues(t, bankconst.BankOpen, info.Status.Int64())

	s, err := c.owner.TestInvoke(t, "version")
	require.NoError(t, err)
	require.Positive(t, s.Pop().BigInt().Int64())
}

func TestBankSetup(t *testing.T) {
	c := newBank(t, 10)
	acc := util.Uint160{1, 2, 3}

	c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 100)

	t.Run("bad origin", func(t *testing.T) {
		h := c.manager.Invoke(t, stackitem.Null{}, "setup", c.gasHash, c.managerHash, int64(1))
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.BadOrigin)

		// state is intact, including the ledger records
		info := c.getBank(t)
		require.Equal(t, c.e.CommitteeHash, info.Owner)
		require.EqualValues(t, 10, info.MaximumAccounts.Int64())
		require.EqualValues(t, 100, c.getBalance(t, acc).Balance.Int64())
	})

	t.Run("owner reset", func(t *testing.T) {
		c.manager.Invoke(t, stackitem.Null{}, "close")

		newManager := c.owner.NewAccount(t)
		h := c.owner.Invoke(t, stackitem.Null{}, "setup", c.gasHash, newManager.ScriptHash(), int64(3))
		c.checkBankingEvent(t, h, 0, c.e.CommitteeHash, bankconst.BankSetupSuccess)

		info := c.getBank(t)
		require.Equal(t, newManager.ScriptHash(), info.Manager)
		require.EqualValues(t, 3, info.MaximumAccounts.Int64())
		require.EqualValues(t, bankconst.BankOpen, info.Status.Int64())

		// setup drops every ledger record
		require.Zero(t, c.ledgerCount(t))
		_, err := c.owner.TestInvoke(t, "getBalance", acc)
		require.ErrorContains(t, err, "account not found")
	})
}

func TestBankOpenClose(t *testing.T) {
	c := newBank(t, 10)
	acc := util.Uint160{1, 2, 3}

	t.Run("bad origin", func(t *testing.T) {
		h := c.owner.Invoke(t, stackitem.Null{}, "close")
		c.checkBankingEvent(t, h, 0, c.e.CommitteeHash, bankconst.BadOrigin)
		require.EqualValues(t, bankconst.BankOpen, c.getBank(t).Status.Int64())
	})

	h := c.manager.Invoke(t, stackitem.Null{}, "close")
	c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.BankCloseSuccess)
	require.EqualValues(t, bankconst.BankClosed, c.getBank(t).Status.Int64())

	t.Run("operations on closed bank", func(t *testing.T) {
		h = c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 100)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.BankIsClose)
		require.Zero(t, c.ledgerCount(t))

		h = c.manager.Invoke(t, stackitem.Null{}, "withdraw", acc, 100)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.BankIsClose)

		h = c.manager.Invoke(t, stackitem.Null{}, "credit", acc, 100)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.BankIsClose)

		h = c.manager.Invoke(t, stackitem.Null{}, "debit", 100)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.BankIsClose)
	})

	h = c.manager.Invoke(t, stackitem.Null{}, "open")
	c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.BankOpenSuccess)
	require.EqualValues(t, bankconst.BankOpen, c.getBank(t).Status.Int64())

	c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 100)
	require.EqualValues(t, 100, c.getBalance(t, acc).Balance.Int64())
}

func TestBankDeposit(t *testing.T) {
	c := newBank(t, 2)
	acc := util.Uint160{1, 2, 3}

	t.Run("bad origin", func(t *testing.T) {
		h := c.owner.Invoke(t, stackitem.Null{}, "deposit", acc, 100)
		c.checkBankingEvent(t, h, 0, c.e.CommitteeHash, bankconst.BadOrigin)
		require.Zero(t, c.ledgerCount(t))
	})

	h := c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 100)
	c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.AccountDepositSuccess)

	l := c.getBalance(t, acc)
	require.Equal(t, acc, l.Account)
	require.EqualValues(t, 100, l.Balance.Int64())
	require.EqualValues(t, bankconst.LedgerLiquid, l.Status.Int64())

	c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 50)
	require.EqualValues(t, 150, c.getBalance(t, acc).Balance.Int64())
	require.Equal(t, 1, c.ledgerCount(t))

	t.Run("max accounts", func(t *testing.T) {
		c.manager.Invoke(t, stackitem.Null{}, "deposit", util.Uint160{2}, 1)

		h := c.manager.Invoke(t, stackitem.Null{}, "deposit", util.Uint160{3}, 1)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.BankAccountMaxOut)
		require.Equal(t, 2, c.ledgerCount(t))

		// existing accounts are still serviced at full capacity
		c.manager.Invoke(t, stackitem.Null{}, "deposit", util.Uint160{2}, 1)
		require.EqualValues(t, 2, c.getBalance(t, util.Uint160{2}).Balance.Int64())
	})

	t.Run("overflow", func(t *testing.T) {
		headroom := new(big.Int).Sub(maxBalance, big.NewInt(150))
		c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, headroom)
		require.Zero(t, c.getBalance(t, acc).Balance.Cmp(maxBalance))

		// the call fails outright, no event is emitted
		c.manager.InvokeFail(t, "account balance overflow", "deposit", acc, 1)
		require.Zero(t, c.getBalance(t, acc).Balance.Cmp(maxBalance))
	})
}

func TestBankWithdraw(t *testing.T) {
	c := newBank(t, 10)
	acc := util.Uint160{1, 2, 3}

	t.Run("account not found", func(t *testing.T) {
		h := c.manager.Invoke(t, stackitem.Null{}, "withdraw", acc, 100)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.AccountNotFound)
	})

	c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 500)

	t.Run("insufficient balance", func(t *testing.T) {
		h := c.manager.Invoke(t, stackitem.Null{}, "withdraw", acc, 501)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.AccountBalanceInsufficient)
		require.EqualValues(t, 500, c.getBalance(t, acc).Balance.Int64())
	})

	t.Run("failed asset transfer", func(t *testing.T) {
		// the bank account holds no GAS yet, the asset transfer fails and
		// faults the call reverting the ledger decrement
		c.manager.InvokeFail(t, "failed to transfer assets", "withdraw", acc, 300)
		require.EqualValues(t, 500, c.getBalance(t, acc).Balance.Int64())
	})

	c.fundBank(t, 1000)

	h := c.manager.Invoke(t, stackitem.Null{}, "withdraw", acc, 300)
	// the administered asset emits its own Transfer first
	c.checkBankingEvent(t, h, 1, c.managerHash, bankconst.AccountWithdrawalSuccess)

	require.EqualValues(t, 200, c.getBalance(t, acc).Balance.Int64())
	require.EqualValues(t, 700, c.gasBalance(t, c.hash).Int64())
	require.EqualValues(t, 300, c.gasBalance(t, acc).Int64())
}

func TestBankCredit(t *testing.T) {
	c := newBank(t, 10)
	acc := util.Uint160{1, 2, 3}

	t.Run("account not found", func(t *testing.T) {
		h := c.manager.Invoke(t, stackitem.Null{}, "credit", acc, 100)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.AccountNotFound)
	})

	c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 1)

	h := c.manager.Invoke(t, stackitem.Null{}, "credit", acc, 9)
	c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.AccountCreditSuccess)
	require.EqualValues(t, 10, c.getBalance(t, acc).Balance.Int64())

	t.Run("overflow is soft", func(t *testing.T) {
		h := c.manager.Invoke(t, stackitem.Null{}, "credit", acc, maxBalance)
		c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.AccountBalanceOverflow)
		require.EqualValues(t, 10, c.getBalance(t, acc).Balance.Int64())

		headroom := new(big.Int).Sub(maxBalance, big.NewInt(10))
		c.manager.Invoke(t, stackitem.Null{}, "credit", acc, headroom)
		require.Zero(t, c.getBalance(t, acc).Balance.Cmp(maxBalance))
	})
}

func TestBankDebit(t *testing.T) {
	c := newBank(t, 10)

	accSigner := c.owner.NewAccount(t)
	acc := accSigner.ScriptHash()
	accInvoker := c.owner.WithSigners(accSigner)

	t.Run("account not found", func(t *testing.T) {
		h := accInvoker.Invoke(t, stackitem.Null{}, "debit", 1)
		c.checkBankingEvent(t, h, 0, acc, bankconst.AccountNotFound)
	})

	c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 100)
	c.manager.Invoke(t, stackitem.Null{}, "deposit", acc, 50)

	h := c.manager.Invoke(t, stackitem.Null{}, "withdraw", acc, 200)
	c.checkBankingEvent(t, h, 0, c.managerHash, bankconst.AccountBalanceInsufficient)
	require.EqualValues(t, 150, c.getBalance(t, acc).Balance.Int64())

	c.manager.Invoke(t, stackitem.Null{}, "credit", acc, 10)
	require.EqualValues(t, 160, c.getBalance(t, acc).Balance.Int64())

	h = accInvoker.Invoke(t, stackitem.Null{}, "debit", 160)
	c.checkBankingEvent(t, h, 0, acc, bankconst.AccountDebitSuccess)
	require.Zero(t, c.getBalance(t, acc).Balance.Int64())

	h = accInvoker.Invoke(t, stackitem.Null{}, "debit", 1)
	c.checkBankingEvent(t, h, 0, acc, bankconst.AccountBalanceInsufficient)
	require.Zero(t, c.getBalance(t, acc).Balance.Int64())
}

func TestBankGetBalanceMiss(t *testing.T) {
	c := newBank(t, 10)

	_, err := c.owner.TestInvoke(t, "getBalance", util.Uint160{42})
	require.ErrorContains(t, err, "account not found")
}

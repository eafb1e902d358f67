/*
Package deploy provides Permissioned Bank contract deployment routine.
*/
package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for Bank contract deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to
	// the blockchain.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by
	// its address. GetContractStateByHash returns an error with 'Unknown
	// contract' substring if the requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// Prm groups parameters of the Bank contract deployment.
type Prm struct {
	// Writes progress of the deployment.
	Logger *zap.Logger

	// Particular Neo blockchain instance to be used as the deployment target.
	Blockchain Blockchain

	// Account that signs and pays for the deployment transaction.
	LocalAccount *wallet.Account

	// Compiled contract.
	NEF      nef.File
	Manifest manifest.Manifest

	// Bank owner account. The owner is fixed for the contract lifetime and
	// is the only account allowed to run setup and update.
	Owner util.Uint160

	// Script hash of the NEP-17 contract whose asset the bank administers.
	Asset util.Uint160

	// Upper bound on the number of bank ledger records.
	MaximumAccounts int64
}

func (x Prm) validate() error {
	switch {
	case x.Logger == nil:
		return errors.New("missing logger")
	case x.Blockchain == nil:
		return errors.New("missing blockchain client")
	case x.LocalAccount == nil:
		return errors.New("missing local account")
	case x.Owner.Equals(util.Uint160{}):
		return errors.New("missing bank owner")
	case x.Asset.Equals(util.Uint160{}):
		return errors.New("missing bank asset")
	case x.MaximumAccounts < 0:
		return errors.New("negative maximum accounts")
	}

	return nil
}

// Deploy deploys the Bank contract to the Neo network represented by given
// Prm.Blockchain and returns the address of the deployed contract. If the
// contract is already on the chain, Deploy returns its address without
// sending anything.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	if err := prm.validate(); err != nil {
		return util.Uint160{}, err
	}

	act, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	sender := prm.LocalAccount.ScriptHash()
	contractAddress := state.CreateContractHash(sender, prm.NEF.Checksum, prm.Manifest.Name)

	alreadyOnChain, err := prm.Blockchain.GetContractStateByHash(contractAddress)
	if err == nil && alreadyOnChain != nil {
		prm.Logger.Info("Bank contract is already on the chain",
			zap.Stringer("address", contractAddress))
		return contractAddress, nil
	}

	prm.Logger.Info("deploying Bank contract...",
		zap.Stringer("sender", sender),
		zap.Stringer("owner", prm.Owner),
		zap.Stringer("asset", prm.Asset),
		zap.Int64("maximum accounts", prm.MaximumAccounts))

	deployArgs := []interface{}{prm.Owner, prm.Asset, prm.MaximumAccounts}

	txHash, vub, err := management.New(act).Deploy(&prm.NEF, &prm.Manifest, deployArgs)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("send deployment transaction: %w", err)
	}

	prm.Logger.Info("deployment transaction sent, waiting for it to be persisted...",
		zap.Stringer("tx", txHash), zap.Uint32("vub", vub))

	aer, err := act.Wait(txHash, vub, nil)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("wait for deployment transaction: %w", err)
	}
	if aer.VMState != vmstate.Halt {
		return util.Uint160{}, fmt.Errorf("deployment transaction faulted: %s", aer.FaultException)
	}

	// the _deploy handler could diverge from the precomputed address only by
	// a sender mismatch, re-check to be sure
	if _, err = prm.Blockchain.GetContractStateByHash(contractAddress); err != nil {
		return util.Uint160{}, fmt.Errorf("contract is missing on the chain after successful deployment: %w", err)
	}

	prm.Logger.Info("Bank contract successfully deployed",
		zap.Stringer("address", contractAddress))

	return contractAddress, nil
}

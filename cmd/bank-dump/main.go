package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/permbank/bank-contract/contracts/bank/bankconst"
	"github.com/permbank/bank-contract/rpc/bank"
)

func main() {
	neoRPCEndpoint := flag.String("rpc", "", "Network address of the Neo RPC server")
	contractAddress := flag.String("contract", "", "LE script hash of the deployed Bank contract")

	flag.Parse()

	switch {
	case *neoRPCEndpoint == "":
		log.Fatal("missing Neo RPC endpoint")
	case *contractAddress == "":
		log.Fatal("missing Bank contract address")
	}

	h, err := util.Uint160DecodeStringLE(*contractAddress)
	if err != nil {
		log.Fatal(fmt.Errorf("decode Bank contract address: %w", err))
	}

	if err := dump(*neoRPCEndpoint, h); err != nil {
		log.Fatal(err)
	}
}

func dump(neoRPCEndpoint string, contractAddress util.Uint160) error {
	c, err := rpcclient.New(context.Background(), neoRPCEndpoint, rpcclient.Options{
		DialTimeout:    15 * time.Second,
		RequestTimeout: 15 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("RPC client dial: %w", err)
	}

	defer c.Close()

	reader := bank.NewReader(invoker.New(c, nil), contractAddress)

	info, err := reader.Get()
	if err != nil {
		return fmt.Errorf("get bank configuration: %w", err)
	}

	fmt.Printf("asset:            %s\n", info.Asset.StringLE())
	fmt.Printf("owner:            %s\n", address.Uint160ToString(info.Owner))
	fmt.Printf("manager:          %s\n", address.Uint160ToString(info.Manager))
	fmt.Printf("maximum accounts: %s\n", info.MaximumAccounts)
	fmt.Printf("status:           %s\n", bankStatusString(info.Status.Int64()))

	ledgers, err := reader.Ledgers()
	if err != nil {
		return fmt.Errorf("get bank ledgers: %w", err)
	}

	fmt.Printf("ledgers:          %d\n", len(ledgers))
	for _, l := range ledgers {
		fmt.Printf("  %s\t%s\t%s\n", address.Uint160ToString(l.Account),
			l.Balance, ledgerStatusString(l.Status.Int64()))
	}

	return nil
}

func bankStatusString(status int64) string {
	switch status {
	case bankconst.BankOpen:
		return "open"
	case bankconst.BankClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown (%d)", status)
	}
}

func ledgerStatusString(status int64) string {
	switch status {
	case bankconst.LedgerFrozen:
		return "frozen"
	case bankconst.LedgerLiquid:
		return "liquid"
	default:
		return fmt.Sprintf("unknown (%d)", status)
	}
}

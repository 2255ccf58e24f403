package cmd

import (
	"fmt"
	"log"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"
)

// build flags, set with -ldflags "-X ..."; versioninfo fills them in for plain go builds
var version string
var buildDate string
var gitHash string

const rootShort = "TradeLink is a Stellar payment gateway for cross-currency merchant payments."
const rootLong = `TradeLink is a payment gateway on the Stellar network (https://stellar.org).

It creates and funds testnet accounts, manages trustlines, issues a custom
asset (TZS by default), routes payments between XLM, USDC and the custom asset
through the decentralized exchange, and seeds the custom asset with liquidity.

Learn more about Stellar: https://www.stellar.org`
const examples = serveExamples

// RootCmd is the main command for this repo
var RootCmd = &cobra.Command{
	Use:     "tradelink",
	Short:   rootShort,
	Long:    rootLong,
	Example: examples,
	Run: func(ccmd *cobra.Command, args []string) {
		fmt.Printf("TradeLink %s\n\n", version)
		e := ccmd.Help()
		if e != nil {
			log.Fatal(e)
		}
	},
}

func init() {
	fillBuildInfo()

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(versionCmd)
}

func fillBuildInfo() {
	if version == "" {
		version = versioninfo.Version
		if version == "" || version == "unknown" || version == "(devel)" {
			version = versioninfo.Short()
		}
	}
	if gitHash == "" {
		gitHash = versioninfo.Revision
	}
	if buildDate == "" && !versioninfo.LastCommit.IsZero() {
		buildDate = versioninfo.LastCommit.UTC().Format("20060102T150405Z")
	}
}

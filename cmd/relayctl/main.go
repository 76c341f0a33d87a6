package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nspcc-dev/relay-contract/contracts"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	rpcFlag      = "rpc"
	walletFlag   = "wallet"
	addressFlag  = "address"
	passwordFlag = "password"
	contractFlag = "contract"
	timeoutFlag  = "timeout"
	debugFlag    = "debug"

	assetFlag      = "asset"
	adminFlag      = "admin"
	minDepositFlag = "min-deposit"
	eventsFlag     = "events"
	contractDir    = "contract-dir"
	toFlag         = "to"
	depositorFlag  = "depositor"

	depositorPasswordFlag = "depositor-password"
	amountFlag     = "amount"
	dirFlag        = "dir"
	labelFlag      = "label"
)

// version is set at build time.
var version = "dev"

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "relayctl"
	app.Usage = "deploy and operate Payment Relay contract"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   rpcFlag + ", r",
			Usage:  "Neo RPC server endpoint",
			EnvVar: "RELAY_RPC_ENDPOINT",
		},
		cli.StringFlag{
			Name:   walletFlag + ", w",
			Usage:  "path to the wallet file",
			EnvVar: "RELAY_WALLET",
		},
		cli.StringFlag{
			Name:   addressFlag + ", a",
			Usage:  "wallet account to sign transactions with (default account if omitted)",
			EnvVar: "RELAY_ADDRESS",
		},
		cli.StringFlag{
			Name:   passwordFlag,
			Usage:  "wallet password",
			EnvVar: "RELAY_WALLET_PASSWORD",
		},
		cli.StringFlag{
			Name:   contractFlag + ", c",
			Usage:  "Relay contract address or LE script hash",
			EnvVar: "RELAY_CONTRACT",
		},
		cli.DurationFlag{
			Name:   timeoutFlag + ", t",
			Usage:  "timeout of the whole command",
			Value:  time.Minute,
			EnvVar: "RELAY_TIMEOUT",
		},
		cli.BoolFlag{
			Name:   debugFlag + ", d",
			Usage:  "enable debug logging",
			EnvVar: "RELAY_DEBUG",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "deploy",
			Usage: "deploy and initialize the contract",
			Flags: []cli.Flag{
				cli.StringFlag{Name: contractDir, Usage: "directory with contract.nef and manifest.json", Value: contracts.RelayDir},
				cli.StringFlag{Name: assetFlag, Usage: "NEP-17 asset managed by the contract"},
				cli.StringFlag{Name: adminFlag, Usage: "administrator account (signer if omitted)"},
				cli.StringFlag{Name: minDepositFlag, Usage: "minimum deposit amount", Value: "0"},
				cli.BoolFlag{Name: eventsFlag, Usage: "emit Transfer notifications"},
			},
			Action: deployAction,
		},
		{
			Name:   "initialize",
			Usage:  "initialize deployed contract",
			Flags:  []cli.Flag{cli.StringFlag{Name: assetFlag}, cli.StringFlag{Name: adminFlag}},
			Action: initializeAction,
		},
		{
			Name:      "transfer",
			Usage:     "transfer asset from the signer account",
			ArgsUsage: "--to <address> --amount <amount>",
			Flags:     []cli.Flag{cli.StringFlag{Name: toFlag}, cli.StringFlag{Name: amountFlag}},
			Action:    transferAction,
		},
		{
			Name:      "deposit",
			Usage:     "move asset from the depositor to escrow (signer must be the administrator)",
			ArgsUsage: "--depositor <address> --amount <amount>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: depositorFlag, Usage: "wallet account of the depositor (signer if omitted)"},
				cli.StringFlag{
					Name:   depositorPasswordFlag,
					Usage:  "password of the depositor account",
					EnvVar: "RELAY_DEPOSITOR_PASSWORD",
				},
				cli.StringFlag{Name: amountFlag},
			},
			Action: depositAction,
		},
		{
			Name:      "withdraw",
			Usage:     "move asset from escrow (signer must be the administrator)",
			ArgsUsage: "--to <address> --amount <amount>",
			Flags:     []cli.Flag{cli.StringFlag{Name: toFlag}, cli.StringFlag{Name: amountFlag}},
			Action:    withdrawAction,
		},
		{
			Name:      "balance",
			Usage:     "print asset balance of the account",
			ArgsUsage: "<address>",
			Action:    balanceAction,
		},
		{
			Name:      "can-transfer",
			Usage:     "check whether the account can transfer the amount",
			ArgsUsage: "<address> <amount>",
			Action:    canTransferAction,
		},
		{
			Name:   "info",
			Usage:  "print contract settings and escrow balance",
			Action: infoAction,
		},
		{
			Name:  "dump",
			Usage: "dump contract state and storage to the file",
			Flags: []cli.Flag{
				cli.StringFlag{Name: dirFlag, Usage: "output directory", Value: "."},
				cli.StringFlag{Name: labelFlag, Usage: "label of the network (e.g. 'testnet')"},
			},
			Action: dumpAction,
		},
		{
			Name:      "inspect",
			Usage:     "print contract settings from the dump",
			ArgsUsage: "<dump file>",
			Action:    inspectAction,
		},
	}

	return app
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return cfg.Build()
}

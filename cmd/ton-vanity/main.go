package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	hex "github.com/tmthrgd/go-hex"
	"go.uber.org/zap"

	"github.com/ton-org/vanity/vanity"
)

const version = "2.0.0"

var commandLine = `ton-vanity
Mine beautiful TON addresses for the vanity contract.

Usage:
  ton-vanity --owner=<address> [--start=<prefix>] [--end=<suffix>] [--masterchain] [--non-bounceable] [--testnet] [--case-sensitive] [--only-one] [--threads=<n>] [--iterations=<n>] [--out=<file>] [--debug]
  ton-vanity --gen-owner [--testnet]
  ton-vanity -h | --help
  ton-vanity --version

Options:
  -o --owner=<address>  Base64url owner address for the vanity contract.
  -s --start=<prefix>   Address prefix to match, base64url.
  -e --end=<suffix>     Address suffix to match, base64url.
  -m --masterchain      Use masterchain (workchain -1) instead of basechain.
  -n --non-bounceable   Search for non-bounceable addresses instead of bounceable.
  -t --testnet          Search for testnet addresses.
  --case-sensitive      Treat prefix/suffix matching as case-sensitive.
  --only-one            Stop after the first matching address is found.
  --threads=<n>         Worker goroutines, 0 means one per CPU [default: 0].
  --iterations=<n>      Per-launch iterations per work item, 0 means auto [default: 0].
  --out=<file>          Output log for found addresses [default: addresses.jsonl].
  --gen-owner           Generate a fresh owner wallet key and address, then exit.
  --debug               Verbose logging.
  -h --help             Show this screen.
  --version             Show version.
`

func main() {
	args, err := docopt.Parse(commandLine, nil, true, "ton-vanity "+version, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(boolOpt(args, "--debug"))

	if boolOpt(args, "--gen-owner") {
		genOwner(logger, boolOpt(args, "--testnet"))
		return
	}

	cfg := vanity.Config{
		Owner:         stringOpt(args, "--owner"),
		Start:         stringOpt(args, "--start"),
		End:           stringOpt(args, "--end"),
		Masterchain:   boolOpt(args, "--masterchain"),
		NonBounceable: boolOpt(args, "--non-bounceable"),
		Testnet:       boolOpt(args, "--testnet"),
		CaseSensitive: boolOpt(args, "--case-sensitive"),
		OnlyOne:       boolOpt(args, "--only-one"),
	}

	tab, err := vanity.Compile(cfg)
	if err != nil {
		logger.Error(err, "invalid search specification")
		os.Exit(1)
	}

	outPath := stringOpt(args, "--out")
	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.Error(err, "cannot open output log", "path", outPath)
		os.Exit(1)
	}
	defer out.Close()

	d := vanity.NewDispatcher(tab, out, logger)
	if n := intOpt(args, "--threads"); n > 0 {
		d.Workers = n
	}
	if n := intOpt(args, "--iterations"); n > 0 {
		d.Iterations = uint32(n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logger.Info("interrupted, finishing current launch")
		cancel()
	}()

	logger.Info("searching",
		"workers", d.Workers,
		"iterations", d.Iterations,
		"variants", len(tab.Variants),
		"start", cfg.Start,
		"end", cfg.End,
		"out", outPath)

	if err = d.Run(ctx); err != nil {
		logger.Error(err, "search failed")
		os.Exit(1)
	}

	logger.Info("done", "found", d.Found(), "checked", d.Checked())
}

func genOwner(logger logr.Logger, testnet bool) {
	w, err := vanity.GenerateOwner(testnet)
	if err != nil {
		logger.Error(err, "owner generation failed")
		os.Exit(1)
	}

	fmt.Println("Address:    ", w.Address.String())
	fmt.Println("Private key:", hex.EncodeToString(w.PrivateKey.Seed()))
}

func newLogger(debug bool) logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zl, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return zapr.NewLogger(zl)
}

func stringOpt(args map[string]interface{}, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

func boolOpt(args map[string]interface{}, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func intOpt(args map[string]interface{}, key string) int {
	s, ok := args[key].(string)
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s must be a number, got %q\n", key, s)
		os.Exit(1)
	}
	return n
}

// Package main provides the auxindex binary, which prints the merged-mining
// slot each auxiliary chain occupies for a nonce and aux merkle tree height.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/cory-johannsen/auxindex/internal/auxpow"
	"github.com/cory-johannsen/auxindex/internal/chain"
	"github.com/cory-johannsen/auxindex/internal/config"
	"github.com/cory-johannsen/auxindex/internal/observability"
	"github.com/cory-johannsen/auxindex/internal/report"
)

const (
	exitOK = iota
	exitUsage
	exitCompute
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	start := time.Now()

	fs := pflag.NewFlagSet("auxindex", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file")
	blockHashes := fs.StringArray("block-hash", nil, "chain_id=hex block hash, repeatable; given for every chain, adds the merged-mining commitment and each chain's aux merkle branch")
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	v := config.NewViper()
	if err := config.BindFlags(v, fs); err != nil {
		fmt.Fprintf(stderr, "binding flags: %v\n", err)
		return exitUsage
	}
	if err := config.ReadFile(v, *configPath); err != nil {
		fmt.Fprintf(stderr, "loading config: %v\n", err)
		return exitUsage
	}
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		fmt.Fprintf(stderr, "loading config: %v\n", err)
		return exitUsage
	}

	logger, err := observability.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "initializing logger: %v\n", err)
		return exitUsage
	}
	defer logger.Sync()
	logger, _ = observability.WithRunID(logger)

	hashes, err := auxpow.ParseBlockHashes(*blockHashes)
	if err != nil {
		logger.Error("parsing block hashes", zap.Error(err))
		return exitUsage
	}

	var reg *chain.Registry
	if cfg.Output.Chains != "" {
		reg, err = chain.Load(cfg.Output.Chains)
		if err != nil {
			logger.Error("loading chain registry", zap.Error(err))
			return exitUsage
		}
		logger.Info("chain registry loaded", zap.Int("chains", reg.Len()))
	}

	ix := auxpow.NewIndexer(logger)
	chainIDs := cfg.Index.Chains()
	var a auxpow.Assignment
	if cfg.Solve.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		a, err = ix.Solve(ctx, chainIDs, auxpow.SolveOptions{
			MinHeight: cfg.Solve.MinHeight,
			MaxHeight: cfg.Solve.MaxHeight,
			MaxNonce:  cfg.Solve.MaxNonce,
		})
	} else {
		a, err = ix.Assign(cfg.Index.Nonce, cfg.Index.Height, chainIDs)
	}
	if err != nil {
		logger.Error("computing slots", zap.Error(err))
		return exitCompute
	}

	var merge *auxpow.Merge
	if len(hashes) > 0 {
		m, err := auxpow.NewMerge(a, hashes)
		if err != nil {
			logger.Error("building commitment", zap.Error(err))
			return exitCompute
		}
		logger.Info("commitment built",
			zap.String("commitment", m.Commitment.Hex()),
			zap.Uint32("size", m.Commitment.Size),
		)
		merge = &m
	}

	if err := report.Write(stdout, cfg.Output.Format, a, reg, merge); err != nil {
		logger.Error("writing result", zap.Error(err))
		return exitCompute
	}

	logger.Info("done",
		zap.Int("chains", a.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return exitOK
}

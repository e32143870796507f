package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gigmatch/internal/loadgen"
)

const defaultLoadTimeout = 10 * time.Minute

var loadCfg loadgen.Config

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Drive a running service with synthetic gigs and agents and verify every ranking",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), defaultLoadTimeout)
		defer cancel()

		if loadCfg.Verbose && logLevel == "" {
			logLevel = "debug"
		}
		if _, err := loadConfig(ctx); err != nil {
			return err
		}

		_, err := loadgen.Run(ctx, &loadCfg)
		return err
	},
}

func init() {
	rootCmd.AddCommand(loadtestCmd)

	f := loadtestCmd.Flags()
	f.StringVar(&loadCfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.IntVar(&loadCfg.NumGigs, "gigs", loadgen.DefaultGigs, "number of gigs to configure and rank")
	f.IntVar(&loadCfg.NumAgents, "agents", loadgen.DefaultAgents, "candidate pool size per rank request")
	f.IntVar(&loadCfg.Workers, "workers", 0, "concurrent workers (default CPU cores * 2)")
	f.DurationVar(&loadCfg.Timeout, "timeout", loadgen.DefaultTimeout, "HTTP request timeout")
	f.Uint64Var(&loadCfg.Seed, "seed", 0, "generator seed (default: clock)")
	f.StringVar(&loadCfg.OutputFile, "output", "", "write the generated gigs and agents to this file")
	f.BoolVarP(&loadCfg.Verbose, "verbose", "v", false, "log every failed request")
}

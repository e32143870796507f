package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/gigmatch/internal/app"
	"github.com/okian/gigmatch/internal/config"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/internal/domain/types"
	"github.com/okian/gigmatch/pkg/logger"
)

var (
	rankInput  string
	rankOutput string
	rankGigID  string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a candidate pool from a JSON file without a server",
	Long: `Reads {"gig": {...}, "weights": {...}, "candidates": [...]} from --input
("-" for stdin) and writes the ranking result as JSON. Without weights every
total score is 0.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if logLevel == "" {
			logLevel = "error"
		}
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		raw, err := readInput(cmd.InOrStdin(), rankInput)
		if err != nil {
			return err
		}
		res, err := rankOffline(ctx, cfg, rankGigID, raw)
		if err != nil {
			return err
		}

		return writeResult(cmd.OutOrStdout(), rankOutput, res)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVarP(&rankInput, "input", "i", "", "rank request JSON file, - for stdin")
	rankCmd.Flags().StringVarP(&rankOutput, "output", "o", "", "result file (default stdout)")
	rankCmd.Flags().StringVar(&rankGigID, "gig", "", "gig id (default: gig.id from the input)")
	_ = rankCmd.MarkFlagRequired("input")
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// writeResult encodes res as indented JSON to path, or to stdout when path is
// empty. A failed close of the output file is returned.
func writeResult(stdout io.Writer, path string, res any) (err error) {
	out := stdout
	if path != "" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return fmt.Errorf("create output: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// rankOffline ranks raw against an in-memory service. Stored weights and
// redis are never consulted.
func rankOffline(ctx context.Context, cfg *config.Config, gigID string, raw []byte) (ranking.Result, error) {
	var req types.RankRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ranking.Result{}, fmt.Errorf("decode rank request: %w", err)
	}
	if gigID == "" {
		gigID = req.Gig.ID
	}

	local := *cfg
	local.Store = config.StoreMemory
	local.RedisAddr = ""
	local.MaxCandidates = max(local.MaxCandidates, len(req.Candidates))

	svc := service.New(&local, service.WithLogger(logger.Get().Named("rank")))
	if err := svc.Start(ctx); err != nil {
		return ranking.Result{}, err
	}
	defer svc.Stop(context.WithoutCancel(ctx))

	return svc.Rank(ctx, gigID, req)
}

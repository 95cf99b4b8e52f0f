package main

import (
	"encoding/json"
	"os"

	"member-dedup/internal/entities"
	"member-dedup/internal/mapper"

	"github.com/spf13/cobra"
)

func newScanCommand(a *app) *cobra.Command {
	var threshold int
	var memberID string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan members for duplicates and queue the candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Dedup.DefaultThreshold
			}

			repo, err := a.openRepository(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = repo.OnStop(ctx)
			}()
			uc := a.newUsecase(ctx, repo)

			var res entities.ScanResult
			if memberID != "" {
				res, err = uc.ScanForMember(ctx, memberID, threshold)
			} else {
				res, err = uc.ScanAllPairs(ctx, threshold)
			}
			if err != nil {
				return err
			}

			out := mapper.ToOAPIScanResult(res)
			out.Pairs = nil
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "Minimum score to queue a pair (defaults to dedup.default_threshold)")
	cmd.Flags().StringVarP(&memberID, "member", "m", "", "Scan a single member instead of the whole population")
	return cmd
}

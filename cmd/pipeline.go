package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/store"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run every stage in order",
	Long:  "Runs load, match, rank, resolve, and combine back to back against one store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		stages := []struct {
			name string
			run  func(ctx context.Context, st store.Store) (int, error)
		}{
			{"load", runLoad},
			{"match", runMatch},
			{"rank", runRank},
			{"resolve", runResolve},
			{"combine", runCombine},
		}
		for _, stage := range stages {
			run, err := st.StartStage(ctx, stage.name)
			if err != nil {
				return err
			}
			n, err := stage.run(ctx, st)
			if err != nil {
				_ = st.FinishStage(ctx, run.ID, store.StageFailed, n, err)
				return err
			}
			if err := st.FinishStage(ctx, run.ID, store.StageComplete, n, nil); err != nil {
				return err
			}
			zap.L().Info("stage complete", zap.String("stage", stage.name), zap.Int("rows", n))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}

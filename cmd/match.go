package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/match"
	"github.com/waterlab/boundary-cli/internal/store"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run the match rules over the stored contributors",
	Long: `Generates candidate (anchor, boundary) pairs by running every match rule over
the stored contributor set. The output is a many-to-many graph; resolution to
1:1 assignments happens in the resolve stage.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStage(cmd, "match", runMatch)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(ctx context.Context, st store.Store) (int, error) {
	contributors, err := sourceContributors(ctx, st)
	if err != nil {
		return 0, err
	}

	pairs, err := match.New().Run(ctx, contributors)
	if err != nil {
		return 0, err
	}
	if err := st.ReplaceMatches(ctx, pairs); err != nil {
		return 0, err
	}

	zap.L().Info("stored match pairs",
		zap.Int("contributors", len(contributors)), zap.Int("pairs", len(pairs)))
	return len(pairs), nil
}

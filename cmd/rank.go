package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/score"
	"github.com/waterlab/boundary-cli/internal/store"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score match rules against the labeled boundaries",
	Long: `Scores every stored match pair whose system has a labeled ground-truth
boundary, then ranks rule combinations by the share of their pairs that landed
within the proximity buffer. Resolution uses these ranks to prefer pairs from
historically accurate rules.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStage(cmd, "rank", runRank)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
}

func runRank(ctx context.Context, st store.Store) (int, error) {
	contributors, err := sourceContributors(ctx, st)
	if err != nil {
		return 0, err
	}
	pairs, err := st.Matches(ctx)
	if err != nil {
		return 0, err
	}

	scorer := score.NewScorer(cfg.Match.ProximityBufferMeters)
	scores := scorer.ScorePairs(pairs, contributors)
	ranks := score.RankRules(scores)

	if err := st.SaveRuleRanks(ctx, ranks); err != nil {
		return 0, err
	}

	zap.L().Info("ranked match rules",
		zap.Int("scored_pairs", len(scores)),
		zap.Int("rule_combinations", len(ranks)),
		zap.Float64("overall_score", score.OverallScore(scores)))
	return len(ranks), nil
}

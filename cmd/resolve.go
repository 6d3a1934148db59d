package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/resolve"
	"github.com/waterlab/boundary-cli/internal/store"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the match graph to 1:1 boundary assignments",
	Long: `Orders every match pair by the configured policy and greedily claims the best
pair for each anchor and each candidate, so no boundary is assigned twice and
no anchor gets two boundaries.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStage(cmd, "resolve", runResolve)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(ctx context.Context, st store.Store) (int, error) {
	contributors, err := sourceContributors(ctx, st)
	if err != nil {
		return 0, err
	}
	pairs, err := st.Matches(ctx)
	if err != nil {
		return 0, err
	}
	ranks, err := st.RuleRanks(ctx)
	if err != nil {
		return 0, err
	}

	resolver, err := resolve.New(cfg.Match.ResolverPolicy)
	if err != nil {
		return 0, err
	}
	ranked := resolver.Rank(pairs, ranks, contributors)
	multiAnchor, multiBoundary := resolve.MultiMatchCounts(ranked)
	best := resolver.Resolve(ranked)

	if err := st.ReplaceRankedMatches(ctx, ranked); err != nil {
		return 0, err
	}
	if err := st.ReplaceBestMatches(ctx, best); err != nil {
		return 0, err
	}

	zap.L().Info("resolved matches",
		zap.Int("ranked_pairs", len(ranked)),
		zap.Int("best_matches", len(best)),
		zap.Int("anchors_matching_multiple_boundaries", multiAnchor),
		zap.Int("boundaries_matching_multiple_anchors", multiBoundary))
	return len(best), nil
}

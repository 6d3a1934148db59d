package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/report"
	"github.com/waterlab/boundary-cli/internal/score"
	"github.com/waterlab/boundary-cli/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the match-quality review workbook",
	Long: `Re-scores the stored match pairs against the labeled boundaries and writes an
XLSX workbook with per-rule performance, tier counts, and the overall score.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStage(cmd, "report", runReport)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(ctx context.Context, st store.Store) (int, error) {
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

	scores := score.NewScorer(cfg.Match.ProximityBufferMeters).ScorePairs(pairs, contributors)

	entities, err := buildMasterEntities(ctx, st)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "report: create output dir %s", cfg.Paths.OutputDir)
	}
	path := filepath.Join(cfg.Paths.OutputDir, "match_quality.xlsx")
	err = report.WriteQualityXLSX(path, report.QualityReport{
		RuleRanks:    ranks,
		OverallScore: score.OverallScore(scores),
		Masters:      entities,
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("wrote quality report", zap.String("path", path))
	return len(ranks), nil
}

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/loader"
	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/report"
	"github.com/waterlab/boundary-cli/internal/store"
	"github.com/waterlab/boundary-cli/internal/tier"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Build master entities and write the tiered outputs",
	Long: `Builds the master entity set from the stored contributors and resolved
matches, selects a modeled centroid per system, layers labeled, matched, and
externally modeled geometries in tier order, and writes the final GeoJSON and
CSV outputs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStage(cmd, "combine", runCombine)
	},
}

func init() {
	rootCmd.AddCommand(combineCmd)
}

func runCombine(ctx context.Context, st store.Store) (int, error) {
	entities, err := buildMasterEntities(ctx, st)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "combine: create output dir %s", cfg.Paths.OutputDir)
	}
	if err := report.WriteMasterGeoJSON(filepath.Join(cfg.Paths.OutputDir, "masters.geojson"), entities); err != nil {
		return 0, err
	}
	if err := report.WriteMasterCSV(filepath.Join(cfg.Paths.OutputDir, "masters.csv"), entities); err != nil {
		return 0, err
	}

	zap.L().Info("combined tiers", zap.Int("master_entities", len(entities)))
	return len(entities), nil
}

// buildMasterEntities assembles the final entity set from stored state. The
// combine and report commands share it.
func buildMasterEntities(ctx context.Context, st store.Store) ([]model.MasterEntity, error) {
	contributors, err := sourceContributors(ctx, st)
	if err != nil {
		return nil, err
	}
	pairs, err := st.Matches(ctx)
	if err != nil {
		return nil, err
	}
	ranked, err := st.RankedMatches(ctx)
	if err != nil {
		return nil, err
	}
	best, err := st.BestMatches(ctx)
	if err != nil {
		return nil, err
	}

	masters, err := tier.BuildMasters(contributors, pairs)
	if err != nil {
		return nil, err
	}
	modeled, err := tier.SelectModeledCentroids(contributors, pairs, ranked)
	if err != nil {
		return nil, err
	}
	if err := st.ReplaceContributors(ctx, model.SourceMaster, masters); err != nil {
		return nil, err
	}
	if err := st.ReplaceContributors(ctx, model.SourceModeled, modeled); err != nil {
		return nil, err
	}

	tier1 := tier.Tier1Geometries(contributors)
	tier2 := tier.Tier2Geometries(best, pairs, contributors)

	var tier3 []model.TierGeometry
	if cfg.Paths.TierThreeModeled != "" {
		tier3, err = loader.TierThreeGeometries(cfg.Paths.TierThreeModeled)
		if err != nil {
			return nil, err
		}
	}

	return tier.Combine(masters, tier1, tier2, tier3)
}

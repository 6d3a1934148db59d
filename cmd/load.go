package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/loader"
	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/normalize"
	"github.com/waterlab/boundary-cli/internal/store"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load and normalize the staged source extracts",
	Long: `Reads the staged SDWIS, ECHO, FRS, UCMR, TIGER, park registry, and boundary
files, normalizes them into contributor records, cleanses text fields, flags
likely park-serving systems and out-of-state coordinates, and replaces the
stored contributor set per source.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStage(cmd, "load", runLoad)
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(ctx context.Context, st store.Store) (int, error) {
	log := zap.L().With(zap.String("command", "load"))

	systems, err := loader.SDWISWaterSystems(ctx, cfg.Paths.SDWISWaterSystems)
	if err != nil {
		return 0, err
	}
	geoAreas, err := loader.SDWISGeoAreas(ctx, cfg.Paths.SDWISGeoAreas)
	if err != nil {
		return 0, err
	}
	serviceAreas, err := loader.SDWISServiceAreas(ctx, cfg.Paths.SDWISServiceAreas)
	if err != nil {
		return 0, err
	}
	active := normalize.ActivePWSIDs(systems)

	sdwis, err := normalize.SDWIS(systems, geoAreas, serviceAreas)
	if err != nil {
		return 0, err
	}

	echoFacilities, err := loader.ECHOFacilities(ctx, cfg.Paths.ECHOFacilities)
	if err != nil {
		return 0, err
	}
	echo, err := normalize.ECHO(echoFacilities, active)
	if err != nil {
		return 0, err
	}

	frsFacilities, err := loader.FRSFacilities(ctx, cfg.Paths.FRSFacilities)
	if err != nil {
		return 0, err
	}
	frs, err := normalize.FRS(frsFacilities, active, echo)
	if err != nil {
		return 0, err
	}

	ucmrRecords, err := loader.UCMRRecords(ctx, cfg.Paths.UCMRCentroids)
	if err != nil {
		return 0, err
	}
	ucmr, err := normalize.UCMR(ucmrRecords, active)
	if err != nil {
		return 0, err
	}

	places, err := loader.TIGERPlaces(cfg.Paths.TIGERPlaces)
	if err != nil {
		return 0, err
	}
	tiger, err := normalize.TIGER(places)
	if err != nil {
		return 0, err
	}

	parks, err := loader.MHPParks(cfg.Paths.MHPParks)
	if err != nil {
		return 0, err
	}
	mhp, err := normalize.MHP(parks)
	if err != nil {
		return 0, err
	}

	labeledBoundaries, err := loader.LabeledBoundaries(cfg.Paths.LabeledBoundaries)
	if err != nil {
		return 0, err
	}
	labeled, err := normalize.Labeled(labeledBoundaries, active)
	if err != nil {
		return 0, err
	}

	var contributed []model.Contributor
	if cfg.Paths.Contributed != "" {
		contributedBoundaries, err := loader.ContributedBoundaries(cfg.Paths.Contributed)
		if err != nil {
			return 0, err
		}
		contributed, err = normalize.Contributed(contributedBoundaries, active)
		if err != nil {
			return 0, err
		}
	}

	var all []model.Contributor
	for _, batch := range [][]model.Contributor{sdwis, echo, frs, ucmr, tiger, mhp, labeled, contributed} {
		all = append(all, batch...)
	}

	normalize.Cleanse(all)
	normalize.ClassifyMHP(all)

	if cfg.Paths.StateBoundaries != "" {
		states, err := loader.StateBoundaries(cfg.Paths.StateBoundaries)
		if err != nil {
			return 0, err
		}
		flagged := normalize.FlagImpostors(all, states, cfg.Match.ImpostorThresholdMeters)
		log.Info("flagged out-of-state coordinates", zap.Int("count", len(flagged)))
	}

	bySource := make(map[model.SourceSystem][]model.Contributor)
	for i := range all {
		bySource[all[i].SourceSystem] = append(bySource[all[i].SourceSystem], all[i])
	}
	for source, batch := range bySource {
		if err := st.ReplaceContributors(ctx, source, batch); err != nil {
			return 0, err
		}
		log.Info("stored contributors", zap.String("source", string(source)), zap.Int("count", len(batch)))
	}

	return len(all), nil
}

package report

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// QualityReport summarizes how the match stage performed for reviewers.
type QualityReport struct {
	RuleRanks    []model.RuleRank
	OverallScore float64
	Masters      []model.MasterEntity
}

// WriteQualityXLSX writes the review workbook: one sheet of rule performance,
// one of tier counts, one overall summary.
func WriteQualityXLSX(path string, rpt QualityReport) error {
	f := xlsx.NewFile()

	if err := writeRuleSheet(f, rpt.RuleRanks); err != nil {
		return err
	}
	if err := writeTierSheet(f, rpt.Masters); err != nil {
		return err
	}
	if err := writeSummarySheet(f, rpt); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	zap.L().Info("wrote quality workbook", zap.String("path", path),
		zap.Int("rules", len(rpt.RuleRanks)), zap.Float64("overall_score", rpt.OverallScore))
	return nil
}

func writeRuleSheet(f *xlsx.File, ranks []model.RuleRank) error {
	sheet, err := f.AddSheet("Rule Ranks")
	if err != nil {
		return eris.Wrap(err, "report: add rule sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"rank", "rule_key", "points", "total", "score"} {
		header.AddCell().Value = h
	}
	for _, r := range ranks {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Rank)
		row.AddCell().Value = r.RuleKey
		row.AddCell().SetInt(r.Points)
		row.AddCell().SetInt(r.Total)
		row.AddCell().SetFloat(r.Score)
	}
	return nil
}

func writeTierSheet(f *xlsx.File, masters []model.MasterEntity) error {
	sheet, err := f.AddSheet("Tier Counts")
	if err != nil {
		return eris.Wrap(err, "report: add tier sheet")
	}

	counts := make(map[model.Tier]int)
	for i := range masters {
		counts[masters[i].Tier]++
	}
	tiers := make([]string, 0, len(counts))
	for tier := range counts {
		tiers = append(tiers, string(tier))
	}
	sort.Strings(tiers)

	header := sheet.AddRow()
	header.AddCell().Value = "tier"
	header.AddCell().Value = "count"
	for _, tier := range tiers {
		row := sheet.AddRow()
		row.AddCell().Value = tier
		row.AddCell().SetInt(counts[model.Tier(tier)])
	}
	return nil
}

func writeSummarySheet(f *xlsx.File, rpt QualityReport) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	row := sheet.AddRow()
	row.AddCell().Value = "master_entities"
	row.AddCell().SetInt(len(rpt.Masters))

	row = sheet.AddRow()
	row.AddCell().Value = "rule_combinations"
	row.AddCell().SetInt(len(rpt.RuleRanks))

	row = sheet.AddRow()
	row.AddCell().Value = "overall_score"
	row.AddCell().SetFloat(rpt.OverallScore)
	return nil
}

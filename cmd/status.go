package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent stage runs",
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

		limit, _ := cmd.Flags().GetInt("limit")
		stages, err := st.ListStages(ctx, limit)
		if err != nil {
			return err
		}

		if len(stages) == 0 {
			fmt.Println("no stage runs recorded")
			return nil
		}
		for _, s := range stages {
			dur := "-"
			if s.FinishedAt != nil {
				dur = s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
			}
			line := fmt.Sprintf("%s  %-8s %-8s rows=%-8d %s",
				s.StartedAt.Format(time.RFC3339), s.Stage, s.Status, s.Rows, dur)
			if s.Error != "" {
				line += "  " + s.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("limit", 20, "maximum stage runs to show")
	rootCmd.AddCommand(statusCmd)
}

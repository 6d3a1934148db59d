package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/config"
	"github.com/waterlab/boundary-cli/internal/token"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "boundary",
	Short: "Water system boundary resolution pipeline",
	Long: "Resolves public water system records from SDWIS, ECHO, FRS, TIGER, UCMR and park\n" +
		"registries into one master entity per system, with tiered service-area geometry.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "root: load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "root: init logger")
		}

		if cfg.Paths.Lexicon != "" {
			if err := token.LoadLexicons(cfg.Paths.Lexicon); err != nil {
				return err
			}
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

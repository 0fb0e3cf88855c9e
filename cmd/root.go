package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neighborlens/neighborlens/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "neighborlens",
	Short: "Neighborhood vibe enrichment service",
	Long:  "Resolves free-text location queries to postal codes, gathers census, community, and points-of-interest data, and composes a cached vibe profile.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
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

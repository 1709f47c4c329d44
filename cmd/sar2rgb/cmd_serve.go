package main

import (
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/sar2rgb/internal/config"
	"github.com/Brownie44l1/sar2rgb/internal/logging"
	"github.com/Brownie44l1/sar2rgb/internal/server"
)

func getServeCmd(root *rootEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload-and-translate HTTP API (configured by SAR2RGB_* variables)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if root.ortLib != "" {
				cfg.OrtLibrary = root.ortLib
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogConsole)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), cfg, logger)
		},
	}
}

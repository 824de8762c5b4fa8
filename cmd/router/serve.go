package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/n9te9/hive-query-router/internal/config"
	"github.com/n9te9/hive-query-router/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the router HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(configPath)
			if err != nil {
				log.Fatalf("failed to load router config: %v", err)
			}
			server.Run(cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "router.yaml", "path to the router's YAML config file")
	return cmd
}

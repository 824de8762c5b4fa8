package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/n9te9/hive-query-router/internal/authz"
	"github.com/n9te9/hive-query-router/internal/loader"
	"github.com/n9te9/hive-query-router/internal/plancache"
	"github.com/n9te9/hive-query-router/internal/router"
)

func newPlanCmd() *cobra.Command {
	var (
		supergraphPath string
		operationPath  string
		variablesPath  string
		mode           string
		authenticated  bool
		scopes         string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a single operation against a supergraph SDL file and print the debug plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			sdl, err := os.ReadFile(supergraphPath)
			if err != nil {
				return fmt.Errorf("read supergraph: %w", err)
			}
			rawOperation, err := os.ReadFile(operationPath)
			if err != nil {
				return fmt.Errorf("read operation: %w", err)
			}

			variables := map[string]any{}
			if variablesPath != "" {
				raw, err := os.ReadFile(variablesPath)
				if err != nil {
					return fmt.Errorf("read variables: %w", err)
				}
				if err := json.Unmarshal(raw, &variables); err != nil {
					return fmt.Errorf("parse variables: %w", err)
				}
			}

			version, err := loader.BuildVersion(string(sdl))
			if err != nil {
				return fmt.Errorf("build supergraph version: %w", err)
			}
			var source loader.Source
			source.Swap(version)

			authMode := authz.Filter
			if mode == "reject" {
				authMode = authz.Reject
			}
			pipeline := &router.Pipeline{
				Source:   &source,
				Cache:    plancache.New[router.Result](1),
				AuthMode: authMode,
			}

			jwt := authz.JWTState{Authenticated: authenticated}
			if scopes != "" {
				jwt.Authenticated = true
				jwt.Scopes = strings.Split(scopes, ",")
			}

			result, err := pipeline.Handle(context.Background(), string(rawOperation), "", variables, jwt)
			if err != nil {
				return err
			}

			cmd.Print(result.Plan.Debug())
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					log.Printf("authorization error: %s %s", e.Code, e.AffectedPath)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&supergraphPath, "supergraph", "", "path to a supergraph SDL file (required)")
	cmd.Flags().StringVar(&operationPath, "operation", "", "path to a GraphQL operation file (required)")
	cmd.Flags().StringVar(&variablesPath, "variables", "", "path to a JSON file of operation variables")
	cmd.Flags().StringVar(&mode, "mode", "filter", "authorization mode: filter or reject")
	cmd.Flags().BoolVar(&authenticated, "authenticated", false, "treat the request as carrying an authenticated JWT")
	cmd.Flags().StringVar(&scopes, "scopes", "", "comma-separated JWT scopes, implies --authenticated")
	cmd.MarkFlagRequired("supergraph")
	cmd.MarkFlagRequired("operation")
	return cmd
}

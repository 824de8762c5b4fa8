// Command router serves or debug-plans a federated GraphQL query router:
// `router serve` runs the HTTP pipeline, `router plan` runs one operation
// through the planner from the command line, and `router version` prints
// the build version.
package main

import (
	"github.com/spf13/cobra"
)

const routerVersion = "v0.1.0"

func main() {
	rootCmd := &cobra.Command{Use: "router"}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the router version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("hive-query-router " + routerVersion)
		},
	}
}

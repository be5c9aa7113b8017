package commands

import (
	"github.com/spf13/cobra"
)

var routesFile string

// Execute runs the dashboard CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Admin dashboard API proxy",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&routesFile, "routes", "", "route manifest file (default: embedded manifest, or RINSR_ROUTES__FILE)")

	root.AddCommand(serveCmd(), routesCmd())
	return root
}

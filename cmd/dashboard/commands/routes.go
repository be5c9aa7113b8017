package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rinsr/dashboard/internal/resource"
	"github.com/rinsr/dashboard/internal/router"
)

func routesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the resolved route manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			m, err := resource.Load(cfg.Routes.File)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMETHOD\tPATH\tUPSTREAM\tSCHEMA\tFLAGS")
			for _, r := range m.Routes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Name, r.Method, router.APIPrefix+r.Path, r.Upstream, dash(r.Schema), flags(r.Public, r.StrictJSON, r.List))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func flags(public, strict, list bool) string {
	var s string
	for _, f := range []struct {
		on   bool
		name string
	}{{public, "public"}, {strict, "strict"}, {list, "list"}} {
		if !f.on {
			continue
		}
		if s != "" {
			s += ","
		}
		s += f.name
	}
	return dash(s)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

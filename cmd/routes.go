package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jackskhakis/gameyfin/internal/domain/navigation"
)

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect the navigation table",
	}
	cmd.AddCommand(newRoutesListCmd(), newRoutesResolveCmd())
	return cmd
}

func newRoutesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared routes in resolution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tKIND\tTARGET\tLAYOUT")
			for _, e := range navigation.Default().Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Path, e.Kind, e.Target, layoutName(e.Layout))
			}
			return w.Flush()
		},
	}
}

func newRoutesResolveCmd() *cobra.Command {
	var layout string

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a path and follow its redirects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := navigation.Default()

			var (
				res   navigation.Resolution
				chain []string
			)
			if layout == "" {
				res, chain = table.Navigate(args[0])
			} else {
				switch l := navigation.Layout(layout); l {
				case navigation.LayoutNavbar, navigation.LayoutFullpage:
					res, chain = table.NavigateIn(l, args[0])
				default:
					return fmt.Errorf("unknown layout %q", layout)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "chain:  %s\n", strings.Join(chain, " -> "))
			fmt.Fprintf(cmd.OutOrStdout(), "kind:   %s\n", res.Kind)
			fmt.Fprintf(cmd.OutOrStdout(), "view:   %s\n", res.View)
			fmt.Fprintf(cmd.OutOrStdout(), "layout: %s\n", layoutName(res.Layout))
			return nil
		},
	}
	cmd.Flags().StringVar(&layout, "layout", "", "Resolve only within a layout (navbar or fullpage)")
	return cmd
}

func layoutName(l navigation.Layout) string {
	if l == navigation.LayoutNone {
		return "-"
	}
	return string(l)
}

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smithers-ai/smithers/internal/forecast"
)

var spotsCmd = &cobra.Command{
	Use:   "spots",
	Short: "List the surf spots the forecast tool knows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SPOT\tREGION\tLAT\tLON")
		for _, spot := range forecast.Spots() {
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\n",
				spot.Name, spot.Region, spot.Latitude, spot.Longitude)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(spotsCmd)
}

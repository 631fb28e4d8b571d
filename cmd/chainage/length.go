package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var lengthCmd = &cobra.Command{
	Use:   "length [input]",
	Short: "Print the planar and geodesic length of every line",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLength,
}

func runLength(cmd *cobra.Command, args []string) error {
	_, logger, svc, _, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}
	features, err := readFeatures(input)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tLENGTH\tGEODESIC")
	for _, l := range svc.Lengths(features) {
		if l.Err != nil {
			fmt.Fprintf(tw, "%v\t-\t%v\n", l.FeatureID, l.Err)
			continue
		}
		geodesic := humanize.CommafWithDigits(l.Geodesic, 3) + " m"
		if l.GeodesicErr != nil {
			geodesic = "unavailable"
		}
		fmt.Fprintf(tw, "%v\t%s %s\t%s\n", l.FeatureID, humanize.CommafWithDigits(l.Native, 3), l.NativeUnit.Abbrev(), geodesic)
	}
	return tw.Flush()
}

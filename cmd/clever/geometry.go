package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/clever/internal/eventio"
	"github.com/banshee-data/clever/internal/geometry"
)

func newGeometryCmd() *cobra.Command {
	var sensorsPath string
	cmd := &cobra.Command{
		Use:   "geometry",
		Short: "Print the selection limits derived from a sensor table",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConstants()
			if err != nil {
				return err
			}
			table, err := eventio.LoadSensors(sensorsPath)
			if err != nil {
				return err
			}
			l, err := geometry.FromSensors(table.Positions, c)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sensors        %d\n", table.Len())
			fmt.Fprintf(out, "search radius  %.2f cm\n", l.SearchRadius)
			fmt.Fprintf(out, "search height  %.2f cm\n", l.SearchHeight)
			fmt.Fprintf(out, "traverse time  %.3f ns\n", l.TraverseTMax)
			fmt.Fprintf(out, "pair Δt max    %.3f ns\n", l.DeltaTMax)
			fmt.Fprintf(out, "pair Δr² max   %.1f cm²\n", l.DeltaRMax2)
			fmt.Fprintf(out, "speed          %.2f cm/ns\n", l.CmPerNs)
			return nil
		},
	}
	cmd.Flags().StringVar(&sensorsPath, "sensors", "", "Sensor table CSV (id,x,y,z)")
	_ = cmd.MarkFlagRequired("sensors")
	return cmd
}

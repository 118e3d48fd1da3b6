package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/mapart/internal/bootstrap"
	"github.com/samirrijal/mapart/internal/core/domain"
)

func locateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print this machine's approximate position",
		RunE: func(cmd *cobra.Command, args []string) error {
			gm, err := bootstrap.Places(cfg)
			if err != nil {
				return err
			}
			p, err := gm.Locate(cmd.Context())
			if err != nil {
				return err
			}
			printPoint(cmd, p)
			return nil
		},
	}
}

func geocodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <address>",
		Short: "Resolve an address to coordinates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gm, err := bootstrap.Places(cfg)
			if err != nil {
				return err
			}
			p, err := gm.Geocode(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printPoint(cmd, p)
			return nil
		},
	}
}

func printPoint(cmd *cobra.Command, p domain.GeoPoint) {
	fmt.Fprintf(cmd.OutOrStdout(), "%.6f,%.6f\n", p.Lat, p.Lon)
}

package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/mapart/internal/adapters/memory"
	"github.com/samirrijal/mapart/internal/bootstrap"
	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/usecases"
	"github.com/samirrijal/mapart/internal/pkg/config"
)

func exportCmd() *cobra.Command {
	var (
		polygonPath string
		out         string
		png         bool
		grid        int
		width       float64
		height      float64
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a GeoJSON polygon to an SVG or PNG street map",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(polygonPath)
			if err != nil {
				return err
			}
			poly, err := domain.PolygonFromGeoJSON(data)
			if err != nil {
				return err
			}

			if err := applyOverrides(cfg, grid, width, height); err != nil {
				return err
			}

			places, err := bootstrap.Places(cfg)
			if err != nil {
				return err
			}
			exports := usecases.NewExportService(
				memory.NewSessionStore(cfg.Session.TTL), nil,
				bootstrap.Sampler(cfg, places), memory.NewHub(), nil, nil,
				bootstrap.ExportConfig(cfg),
			)

			format := usecases.FormatSVG
			if png || strings.EqualFold(filepath.Ext(out), ".png") {
				format = usecases.FormatPNG
			}
			var name string
			if out != "" && out != "-" {
				name = filepath.Base(out)
			}
			res, err := exports.ExportPolygon(cmd.Context(), poly, usecases.ExportOptions{
				Filename: name,
				Format:   format,
			})
			if err != nil {
				return err
			}

			logger.Info("export rendered", "streets", len(res.Document.Streets), "bytes", len(res.Data))
			if out == "-" {
				_, err = os.Stdout.Write(res.Data)
				return err
			}
			dest := out
			if dest == "" || filepath.Ext(dest) == "" {
				dest = filepath.Join(filepath.Dir(dest), res.Filename)
			}
			if err := os.WriteFile(dest, res.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dest)
			return nil
		},
	}
	cmd.Flags().StringVar(&polygonPath, "polygon", "", "GeoJSON polygon file, or - for stdin")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, or - for stdout (default map-design.svg)")
	cmd.Flags().BoolVar(&png, "png", false, "rasterize to PNG")
	cmd.Flags().IntVar(&grid, "grid", 0, "sampling grid size (default from config)")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width")
	cmd.Flags().Float64Var(&height, "height", 0, "canvas height")
	_ = cmd.MarkFlagRequired("polygon")
	return cmd
}

// applyOverrides puts flag values over the loaded config and validates the
// result again, so flags obey the same limits as the config file.
func applyOverrides(c *config.Config, grid int, width, height float64) error {
	if grid > 0 {
		c.Sampler.GridSize = grid
	}
	if width > 0 {
		c.Canvas.Width = width
	}
	if height > 0 {
		c.Canvas.Height = height
	}
	return c.Validate()
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

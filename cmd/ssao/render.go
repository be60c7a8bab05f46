package main

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"ssao-engine/renderer"
	"ssao-engine/ssao"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		out           string
		width, height int
		output        string
		scale         int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one frame to a PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if output != "" {
				o, err := ssao.ParseOutput(output)
				if err != nil {
					return err
				}
				cfg.SSAO.Output = o
			}
			if scale < 1 {
				return fmt.Errorf("--scale must be at least 1, got %d", scale)
			}

			s, cam, err := buildScene(cfg, width, height)
			if err != nil {
				return err
			}
			engine, err := renderer.NewRenderEngine(s, cam, width, height, cfg.PassConfig())
			if err != nil {
				return err
			}
			defer engine.Destroy()

			if err := engine.Render(); err != nil {
				return err
			}
			objects, triangles, elapsed := engine.DrawStats()
			slog.Info("frame rendered", "objects", objects, "triangles", triangles, "elapsed", elapsed)

			img, err := engine.Screen().Image()
			if err != nil {
				return err
			}
			var final image.Image = img
			if scale > 1 {
				b := img.Bounds()
				dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
				draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
				final = dst
			}
			if err := imgio.Save(out, final, imgio.PNGEncoder()); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}
			slog.Info("wrote image", "path", out, "output", cfg.SSAO.Output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "ssao.png", "PNG file to write")
	f.IntVar(&width, "width", 640, "frame width in pixels")
	f.IntVar(&height, "height", 360, "frame height in pixels")
	f.StringVar(&output, "output", "", "beauty, ssao, blur or complete (overrides [ssao] output)")
	f.IntVar(&scale, "scale", 1, "integer nearest-neighbour upscale of the written image")
	return cmd
}

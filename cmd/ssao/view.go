package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"ssao-engine/config"
	"ssao-engine/core"
	"ssao-engine/internal/opengl"
	"ssao-engine/math"
	"ssao-engine/renderer"
	"ssao-engine/ssao"
)

func newViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open an interactive window",
		Long: `Open an interactive window.

Keys:
  1-4     output: beauty, ssao, blur, complete
  [ ]     kernel radius
  - =     max distance
  , .     power factor
  R       new kernel and noise
  Esc     quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), a)
		},
	}
}

func runView(ctx context.Context, a *app) error {
	cfg := a.cfg
	window, err := core.NewWindow(core.WindowConfig{
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Title:     cfg.Window.Title,
		Resizable: cfg.Window.Resizable,
		VSync:     cfg.Window.VSync,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	presenter, err := opengl.NewPresenter()
	if err != nil {
		return err
	}
	defer presenter.Destroy()

	fbW, fbH := window.GetFramebufferSize()
	s, cam, err := buildScene(cfg, fbW, fbH)
	if err != nil {
		return err
	}
	engine, err := renderer.NewRenderEngine(s, cam, fbW, fbH, cfg.PassConfig())
	if err != nil {
		return err
	}
	defer engine.Destroy()
	pass := engine.SSAO()

	resized := false
	window.OnResize(func(w, h int) {
		fbW, fbH = w, h
		resized = true
	})
	window.OnKey(func(key, mods int) {
		if key == core.KeyEscape {
			window.SetShouldClose(true)
			return
		}
		if err := handleKey(pass, key); err != nil {
			slog.Warn("key binding", "key", key, "err", err)
		}
	})

	if a.configPath != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			last := cfg
			err := config.Watch(watchCtx, a.configPath, func(c config.Config) {
				applyReload(pass, last, c)
				last = c
			})
			if err != nil {
				slog.Warn("config watch stopped", "err", err)
			}
		}()
	}

	lastTitle := time.Now()
	for !window.ShouldClose() {
		window.PollEvents()
		if resized {
			resized = false
			// A minimized window reports 0×0; keep the old buffers.
			if fbW > 0 && fbH > 0 {
				if err := engine.Resize(fbW, fbH); err != nil {
					return err
				}
			}
		}

		if err := engine.Render(); err != nil {
			return err
		}
		if err := presenter.Present(engine.Screen(), fbW, fbH); err != nil {
			return err
		}
		window.SwapBuffers()

		if time.Since(lastTitle) > time.Second {
			lastTitle = time.Now()
			_, triangles, elapsed := engine.DrawStats()
			p := pass.Params()
			window.SetTitle(fmt.Sprintf("%s | %s | radius %.2f max %.2f power %.2f | %d tris %.1f ms",
				cfg.Window.Title, p.Output, p.KernelRadius, p.MaxDistance, p.PowerFactor,
				triangles, float64(elapsed.Microseconds())/1000))
		}
	}
	return nil
}

// handleKey applies one key binding to the pass tunables.
func handleKey(pass *ssao.Pass, key int) error {
	switch key {
	case core.Key1:
		pass.SetOutput(ssao.OutputBeauty)
	case core.Key2:
		pass.SetOutput(ssao.OutputSSAO)
	case core.Key3:
		pass.SetOutput(ssao.OutputBlur)
	case core.Key4:
		pass.SetOutput(ssao.OutputComplete)
	case core.KeyR:
		rng := ssao.NewRandom(pass.Seed())
		return pass.Regenerate(ssao.Seed{rng.Uint32(), rng.Uint32(), rng.Uint32(), rng.Uint32()})
	default:
		p := pass.Params()
		if !adjust(&p, key) {
			return nil
		}
		pass.SetParams(p)
	}
	return nil
}

// adjust nudges the tunable bound to key, reporting whether key had a
// binding. MaxDistance stays above MinDistance.
func adjust(p *ssao.Params, key int) bool {
	switch key {
	case core.KeyLeftBracket:
		p.KernelRadius = math.Clamp(p.KernelRadius-0.05, 0.05, 32)
	case core.KeyRightBracket:
		p.KernelRadius = math.Clamp(p.KernelRadius+0.05, 0.05, 32)
	case core.KeyMinus:
		p.MaxDistance = math.Clamp(p.MaxDistance-0.05, p.MinDistance+0.001, 10)
	case core.KeyEqual:
		p.MaxDistance = math.Clamp(p.MaxDistance+0.05, p.MinDistance+0.001, 10)
	case core.KeyComma:
		p.PowerFactor = math.Clamp(p.PowerFactor-0.1, 0.1, 8)
	case core.KeyPeriod:
		p.PowerFactor = math.Clamp(p.PowerFactor+0.1, 0.1, 8)
	default:
		return false
	}
	return true
}

// applyReload pushes the tunables of a reloaded config file into the pass.
// The output picked with the number keys survives unless the file's own
// output changed. Kernel size, noise size and seed are fixed at startup.
func applyReload(pass *ssao.Pass, prev, next config.Config) {
	pass.UpdateParams(func(p *ssao.Params) {
		output := p.Output
		*p = next.SSAOParams()
		if next.SSAO.Output == prev.SSAO.Output {
			p.Output = output
		}
	})
	if next.SSAO.KernelSize != prev.SSAO.KernelSize ||
		next.SSAO.NoiseSize != prev.SSAO.NoiseSize ||
		next.SSAO.Seed != prev.SSAO.Seed {
		slog.Warn("kernel_size, noise_size and seed take effect on restart",
			"kernel_size", next.SSAO.KernelSize, "noise_size", next.SSAO.NoiseSize, "seed", next.SSAO.Seed)
	}
	slog.Info("ssao params updated", "params", pass.Params())
}

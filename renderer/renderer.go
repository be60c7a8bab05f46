package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ssao-engine/raster"
	"ssao-engine/scene"
	"ssao-engine/ssao"
)

// RenderEngine is the high-level renderer: it owns the raster renderer and
// drives the SSAO pass followed by a copy to the screen.
type RenderEngine struct {
	Scene  *scene.Scene
	Camera *scene.Camera

	renderer *raster.Renderer
	composer *Composer
	ssao     *ssao.Pass

	// Per-frame stats (populated during Render)
	lastObjects   int
	lastTriangles int
	lastDuration  time.Duration
}

// NewRenderEngine builds the pipeline at width×height. The camera aspect is
// set from the size.
func NewRenderEngine(s *scene.Scene, cam *scene.Camera, width, height int, cfg ssao.Config) (*RenderEngine, error) {
	if s == nil || cam == nil {
		return nil, errors.New("render engine: no scene or camera")
	}
	cam.UpdateAspectRatio(float32(width), float32(height))

	r, err := raster.NewRenderer(width, height)
	if err != nil {
		return nil, fmt.Errorf("render engine: %w", err)
	}
	pass, err := ssao.New(s, cam, width, height, cfg)
	if err != nil {
		return nil, fmt.Errorf("render engine: %w", err)
	}
	composer, err := NewComposer(r, width, height)
	if err != nil {
		_ = pass.Dispose()
		return nil, fmt.Errorf("render engine: %w", err)
	}
	composer.AddPass(pass)
	composer.AddPass(NewCopyPass(1))

	slog.Debug("render engine initialized", "width", width, "height", height)
	return &RenderEngine{
		Scene:    s,
		Camera:   cam,
		renderer: r,
		composer: composer,
		ssao:     pass,
	}, nil
}

// Render draws one frame into Screen.
func (re *RenderEngine) Render() error {
	start := time.Now()
	if err := re.composer.Render(); err != nil {
		return err
	}

	objects, triangles := 0, 0
	for _, node := range re.Scene.GetVisibleNodes() {
		if node.Mesh == nil {
			continue
		}
		objects++
		triangles += node.Mesh.TriangleCount()
	}
	re.lastObjects = objects
	re.lastTriangles = triangles
	re.lastDuration = time.Since(start)
	return nil
}

// Resize updates the camera aspect, the screen and every pass buffer.
func (re *RenderEngine) Resize(width, height int) error {
	re.Camera.UpdateAspectRatio(float32(width), float32(height))
	if err := re.renderer.SetSize(width, height); err != nil {
		return fmt.Errorf("render engine: resize: %w", err)
	}
	return re.composer.SetSize(width, height)
}

// Screen holds the last rendered frame.
func (re *RenderEngine) Screen() *raster.RenderTarget {
	return re.renderer.Screen()
}

// SSAO exposes the occlusion pass for tuning.
func (re *RenderEngine) SSAO() *ssao.Pass {
	return re.ssao
}

// SetWorkers bounds the parallelism of every draw.
func (re *RenderEngine) SetWorkers(n int) {
	re.renderer.SetWorkers(n)
}

func (re *RenderEngine) Destroy() error {
	err := re.composer.Dispose()
	re.renderer.Screen().Dispose()
	return err
}

// DrawStats returns stats from the most recent Render call.
func (re *RenderEngine) DrawStats() (objects, triangles int, elapsed time.Duration) {
	return re.lastObjects, re.lastTriangles, re.lastDuration
}

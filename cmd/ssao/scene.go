package main

import (
	"fmt"

	"ssao-engine/config"
	"ssao-engine/core"
	"ssao-engine/math"
	"ssao-engine/scene"
)

// buildScene returns the demo scene, or the configured model lit by one
// directional light, and a camera aimed per config.
func buildScene(cfg config.Config, width, height int) (*scene.Scene, *scene.Camera, error) {
	var s *scene.Scene
	if cfg.Scene.Model == "" {
		s = scene.CreateDemoScene()
	} else {
		model, err := scene.LoadModel(cfg.Scene.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("scene: %w", err)
		}
		s = scene.NewScene()
		s.AddNode(model)
		s.AddLight(&scene.Light{
			Type:      scene.LightTypeDirectional,
			Direction: math.Vec3{X: -0.5, Y: -1, Z: -0.4}.Normalize(),
			Color:     core.ColorWhite,
			Intensity: 0.8,
		})
	}
	s.Background = cfg.Scene.BackgroundColor()
	s.Ambient = cfg.Scene.AmbientColor()

	c := cfg.Camera
	cam := scene.NewCamera(math.Radians(c.FOVDegrees), float32(width)/float32(height), c.Near, c.Far)
	cam.SetPosition(c.PositionVec())
	cam.LookAt(c.TargetVec(), math.Vec3Up)
	return s, cam, nil
}

// Package config loads the viewer configuration from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"ssao-engine/core"
	"ssao-engine/math"
	"ssao-engine/ssao"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Window WindowConfig `toml:"window"`
	Camera CameraConfig `toml:"camera"`
	SSAO   SSAOConfig   `toml:"ssao"`
	Scene  SceneConfig  `toml:"scene"`
	Log    LogConfig    `toml:"log"`
}

type WindowConfig struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	VSync     bool   `toml:"vsync"`
	Resizable bool   `toml:"resizable"`
}

type CameraConfig struct {
	FOVDegrees float32    `toml:"fov_degrees"`
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
	Position   [3]float32 `toml:"position"`
	Target     [3]float32 `toml:"target"`
}

type SSAOConfig struct {
	KernelSize   int         `toml:"kernel_size"`
	NoiseSize    int         `toml:"noise_size"`
	KernelRadius float32     `toml:"kernel_radius"`
	MinDistance  float32     `toml:"min_distance"`
	MaxDistance  float32     `toml:"max_distance"`
	PowerFactor  float32     `toml:"power_factor"`
	Output       ssao.Output `toml:"output"`
	Seed         [4]uint32   `toml:"seed"`
}

type SceneConfig struct {
	// Model is a .gltf, .glb or .obj file. Empty renders the demo scene.
	Model      string     `toml:"model"`
	Background [3]float32 `toml:"background"`
	Ambient    [3]float32 `toml:"ambient"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

// Default frames the demo scene with a wide-angle camera (fov 75°, near 0.1)
// twelve units back, over a light gray background.
func Default() Config {
	p := ssao.DefaultParams()
	return Config{
		Window: WindowConfig{
			Width:     1280,
			Height:    720,
			Title:     "SSAO",
			VSync:     true,
			Resizable: true,
		},
		Camera: CameraConfig{
			FOVDegrees: 75,
			Near:       0.1,
			Far:        100,
			Position:   [3]float32{0, 6, 12},
			Target:     [3]float32{0, 1, 0},
		},
		SSAO: SSAOConfig{
			KernelSize:   32,
			NoiseSize:    4,
			KernelRadius: p.KernelRadius,
			MinDistance:  p.MinDistance,
			MaxDistance:  p.MaxDistance,
			PowerFactor:  p.PowerFactor,
			Output:       p.Output,
			Seed:         ssao.DefaultSeed,
		},
		Scene: SceneConfig{
			Background: [3]float32{0xbb / 255.0, 0xbb / 255.0, 0xbb / 255.0},
			Ambient:    [3]float32{0.25, 0.25, 0.25},
		},
		Log: LogConfig{Level: slog.LevelInfo},
	}
}

// Load reads path over the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width < 1 || c.Window.Height < 1:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Camera.FOVDegrees <= 0 || c.Camera.FOVDegrees >= 180:
		return fmt.Errorf("%w: camera fov_degrees %v not in (0, 180)", ErrInvalid, c.Camera.FOVDegrees)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera needs 0 < near < far, got %v, %v", ErrInvalid, c.Camera.Near, c.Camera.Far)
	case c.SSAO.KernelSize < 1 || c.SSAO.KernelSize > ssao.MaxKernelSize:
		return fmt.Errorf("%w: ssao kernel_size %d not in [1, %d]", ErrInvalid, c.SSAO.KernelSize, ssao.MaxKernelSize)
	case c.SSAO.NoiseSize < 1:
		return fmt.Errorf("%w: ssao noise_size %d", ErrInvalid, c.SSAO.NoiseSize)
	case c.SSAO.KernelRadius <= 0:
		return fmt.Errorf("%w: ssao kernel_radius must be positive", ErrInvalid)
	case c.SSAO.MinDistance >= c.SSAO.MaxDistance:
		return fmt.Errorf("%w: ssao min_distance must be below max_distance", ErrInvalid)
	}
	return nil
}

// SSAOParams are the tunables that may change while the pass is live.
func (c Config) SSAOParams() ssao.Params {
	return ssao.Params{
		KernelRadius: c.SSAO.KernelRadius,
		MinDistance:  c.SSAO.MinDistance,
		MaxDistance:  c.SSAO.MaxDistance,
		PowerFactor:  c.SSAO.PowerFactor,
		Output:       c.SSAO.Output,
	}
}

// PassConfig is the full construction config of an ssao.Pass.
func (c Config) PassConfig() ssao.Config {
	return ssao.Config{
		KernelSize: c.SSAO.KernelSize,
		NoiseSize:  c.SSAO.NoiseSize,
		Seed:       ssao.Seed(c.SSAO.Seed),
		Params:     c.SSAOParams(),
	}
}

func (c CameraConfig) PositionVec() math.Vec3 {
	return math.Vec3{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]}
}

func (c CameraConfig) TargetVec() math.Vec3 {
	return math.Vec3{X: c.Target[0], Y: c.Target[1], Z: c.Target[2]}
}

func (c SceneConfig) BackgroundColor() core.Color {
	return core.Color{R: c.Background[0], G: c.Background[1], B: c.Background[2], A: 1}
}

func (c SceneConfig) AmbientColor() core.Color {
	return core.Color{R: c.Ambient[0], G: c.Ambient[1], B: c.Ambient[2], A: 1}
}

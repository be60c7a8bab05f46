package ssao

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKernelSize = errors.New("ssao: invalid kernel size")
	ErrInvalidNoiseSize  = errors.New("ssao: invalid noise size")
	ErrDisposed          = errors.New("ssao: pass disposed")
)

// Output selects which buffer the composite stage shows.
type Output int

const (
	OutputBeauty   Output = iota // lit scene, no occlusion
	OutputSSAO                   // raw occlusion
	OutputBlur                   // blurred occlusion
	OutputComplete               // beauty multiplied by blurred occlusion
)

var outputNames = [...]string{"beauty", "ssao", "blur", "complete"}

// outputAliases are the long names accepted when parsing.
var outputAliases = map[string]Output{
	"occlusion-raw":     OutputSSAO,
	"occlusion-blurred": OutputBlur,
	"composite":         OutputComplete,
}

func (o Output) String() string {
	if o >= 0 && int(o) < len(outputNames) {
		return outputNames[o]
	}
	return fmt.Sprintf("Output(%d)", int(o))
}

// ParseOutput accepts beauty, ssao, blur, complete and their long names.
func ParseOutput(s string) (Output, error) {
	for i, name := range outputNames {
		if s == name {
			return Output(i), nil
		}
	}
	if o, ok := outputAliases[s]; ok {
		return o, nil
	}
	return 0, fmt.Errorf("ssao: unknown output %q", s)
}

func (o Output) MarshalText() ([]byte, error) {
	if o < 0 || int(o) >= len(outputNames) {
		return nil, fmt.Errorf("ssao: unknown output %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *Output) UnmarshalText(text []byte) error {
	v, err := ParseOutput(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Params are the tunables read once at the start of every frame.
type Params struct {
	KernelRadius float32 // view-space sampling distance
	MinDistance  float32 // smallest depth gap that counts as occlusion
	MaxDistance  float32 // depth gaps at or beyond this are ignored
	PowerFactor  float32 // range check exponent
	Output       Output
}

func DefaultParams() Params {
	return Params{
		KernelRadius: 0.5,
		MinDistance:  0.005,
		MaxDistance:  2.0,
		PowerFactor:  1.0,
		Output:       OutputComplete,
	}
}

// Config fixes the sampling layout of a Pass at construction.
type Config struct {
	KernelSize int // 1..MaxKernelSize
	NoiseSize  int // noise tile edge, in texels
	Seed       Seed
	Params     Params
}

func DefaultConfig() Config {
	return Config{
		KernelSize: 32,
		NoiseSize:  4,
		Seed:       DefaultSeed,
		Params:     DefaultParams(),
	}
}

func (c Config) validate() error {
	if c.KernelSize < 1 || c.KernelSize > MaxKernelSize {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidKernelSize, c.KernelSize, MaxKernelSize)
	}
	if c.NoiseSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidNoiseSize, c.NoiseSize)
	}
	return nil
}

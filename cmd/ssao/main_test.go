package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-engine/config"
	"ssao-engine/core"
	"ssao-engine/ssao"
)

func TestRenderCommandWritesPNG(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ssao.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[ssao]\nkernel_size = 8\n"), 0o644))
	out := filepath.Join(dir, "frame.png")

	root := newRootCmd()
	root.SetArgs([]string{"render", "--config", cfgPath, "--out", out,
		"--width", "24", "--height", "16", "--scale", "2", "--output", "ssao"})
	require.NoError(t, root.Execute())

	img, err := imgio.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 48, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestRenderCommandRejectsBadOutput(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"render", "--out", filepath.Join(t.TempDir(), "x.png"), "--output", "depth"})
	assert.Error(t, root.Execute())
}

func TestHandleKey(t *testing.T) {
	s, cam, err := buildScene(config.Default(), 16, 16)
	require.NoError(t, err)
	pass, err := ssao.New(s, cam, 16, 16, ssao.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, handleKey(pass, core.Key2))
	assert.Equal(t, ssao.OutputSSAO, pass.Params().Output)

	before := pass.Params().KernelRadius
	require.NoError(t, handleKey(pass, core.KeyRightBracket))
	assert.InDelta(t, before+0.05, pass.Params().KernelRadius, 1e-6)

	seed := pass.Seed()
	require.NoError(t, handleKey(pass, core.KeyR))
	assert.NotEqual(t, seed, pass.Seed())

	for i := 0; i < 100; i++ {
		require.NoError(t, handleKey(pass, core.KeyMinus))
	}
	p := pass.Params()
	assert.Greater(t, p.MaxDistance, p.MinDistance)
}

func TestApplyReload(t *testing.T) {
	var logs bytes.Buffer
	prevLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prevLogger) })

	s, cam, err := buildScene(config.Default(), 16, 16)
	require.NoError(t, err)
	pass, err := ssao.New(s, cam, 16, 16, ssao.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, handleKey(pass, core.Key2))

	prev := config.Default()
	next := prev
	next.SSAO.KernelRadius = 1.5
	applyReload(pass, prev, next)
	assert.Equal(t, ssao.OutputSSAO, pass.Params().Output, "key choice survives an unrelated edit")
	assert.Equal(t, float32(1.5), pass.Params().KernelRadius)
	assert.NotContains(t, logs.String(), "restart")

	prev = next
	next.SSAO.Output = ssao.OutputBlur
	next.SSAO.KernelSize = 8
	applyReload(pass, prev, next)
	assert.Equal(t, ssao.OutputBlur, pass.Params().Output, "edited output applies")
	assert.Contains(t, logs.String(), "take effect on restart")
	assert.Len(t, pass.Kernel(), ssao.DefaultConfig().KernelSize)
}

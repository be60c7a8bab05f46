// Package opengl shows software-rendered frames in the current GL context.
package opengl

import (
	"errors"
	"fmt"
	"log/slog"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ssao-engine/raster"
)

// presentVertSrc is a fullscreen triangle via gl_VertexID (no VBO needed).
const presentVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

const presentFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D frame;

void main() {
    outColor = vec4(texture(frame, fragUV).rgb, 1.0);
}
` + "\x00"

// Presenter uploads a raster render target into a GL texture and draws it
// over the whole default framebuffer. Rows are uploaded as stored: both
// put row 0 at the bottom.
type Presenter struct {
	prog     uint32
	frameLoc int32
	quadVAO  uint32
	tex      uint32
	texW     int32
	texH     int32
}

// NewPresenter loads GL entry points and builds the program. The GL context
// must be current on the calling goroutine.
func NewPresenter() (*Presenter, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl: init: %w", err)
	}
	slog.Debug("opengl initialized", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	prog, err := newProgram(presentVertSrc, presentFragSrc)
	if err != nil {
		return nil, fmt.Errorf("opengl: present shader: %w", err)
	}
	p := &Presenter{prog: prog}
	p.frameLoc = gl.GetUniformLocation(prog, gl.Str("frame\x00"))
	gl.UseProgram(prog)
	gl.Uniform1i(p.frameLoc, 0)

	gl.GenVertexArrays(1, &p.quadVAO)
	gl.GenTextures(1, &p.tex)
	gl.BindTexture(gl.TEXTURE_2D, p.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return p, nil
}

// Present draws target stretched over a viewport of the given size.
func (p *Presenter) Present(target *raster.RenderTarget, viewportW, viewportH int) error {
	if p.prog == 0 {
		return errors.New("opengl: presenter destroyed")
	}
	if target == nil || target.Disposed() {
		return fmt.Errorf("opengl: present: %w", raster.ErrDisposed)
	}

	w, h := int32(target.Width()), int32(target.Height())
	pix := target.Texture.Pix()
	gl.BindTexture(gl.TEXTURE_2D, p.tex)
	if w != p.texW || h != p.texH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, w, h, 0, gl.RGBA, gl.FLOAT, gl.Ptr(pix))
		p.texW, p.texH = w, h
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w, h, gl.RGBA, gl.FLOAT, gl.Ptr(pix))
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(viewportW), int32(viewportH))
	gl.Disable(gl.DEPTH_TEST)
	gl.UseProgram(p.prog)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(p.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// Destroy frees all GPU resources owned by the presenter.
func (p *Presenter) Destroy() {
	if p.tex != 0 {
		gl.DeleteTextures(1, &p.tex)
		p.tex = 0
	}
	if p.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &p.quadVAO)
		p.quadVAO = 0
	}
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
		p.prog = 0
	}
}

package raster

import (
	"ssao-engine/core"
	"ssao-engine/math"
	"ssao-engine/scene"
)

// vertexOut carries a clip-space position and the varyings interpolated
// across a triangle.
type vertexOut struct {
	clip   math.Vec4
	world  math.Vec3
	normal math.Vec3
	viewN  math.Vec3
	uv     math.Vec2
	color  core.Color
}

func lerpVertex(a, b vertexOut, t float32) vertexOut {
	return vertexOut{
		clip:   a.clip.Add(b.clip.Sub(a.clip).Mul(t)),
		world:  a.world.Lerp(b.world, t),
		normal: a.normal.Lerp(b.normal, t),
		viewN:  a.viewN.Lerp(b.viewN, t),
		uv:     a.uv.Lerp(b.uv, t),
		color: core.Color{
			R: math.Lerp(a.color.R, b.color.R, t),
			G: math.Lerp(a.color.G, b.color.G, t),
			B: math.Lerp(a.color.B, b.color.B, t),
			A: math.Lerp(a.color.A, b.color.A, t),
		},
	}
}

// screenTri is a front-facing triangle after clipping and viewport mapping.
type screenTri struct {
	v        [3]vertexOut
	x, y, z  [3]float32 // window coordinates, z in [0,1]
	invW     [3]float32
	area     float32
	x0, x1   int // inclusive pixel bounds
	y0, y1   int
	material *scene.Material
}

// RenderScene rasterizes every visible mesh of s as seen from cam into the
// bound target with depth test and depth write. Triangles are culled unless
// they wind counter-clockwise on screen. When override is nil each mesh is
// shaded with StandardMaterial.
func (r *Renderer) RenderScene(s *scene.Scene, cam *scene.Camera, override Material) error {
	t, err := r.bound()
	if err != nil {
		return err
	}
	if r.state.AutoClear {
		if err := r.Clear(true, true); err != nil {
			return err
		}
	}
	if override == nil {
		override = StandardMaterial{}
	}

	w, h := t.Width(), t.Height()
	depth := t.Depth
	if depth == nil {
		// No attachment: still resolve visibility, just don't keep it.
		depth = newDepthTexture(w, h)
	}

	tris := setupTriangles(s, cam, w, h)
	return r.forEachBand(h, func(y0, y1 int) {
		surf := Surface{Scene: s}
		for i := range tris {
			tri := &tris[i]
			rowFrom, rowTo := max(tri.y0, y0), min(tri.y1, y1-1)
			for y := rowFrom; y <= rowTo; y++ {
				for x := tri.x0; x <= tri.x1; x++ {
					shadeFragment(t.Texture, depth, tri, x, y, override, &surf)
				}
			}
		}
	})
}

func setupTriangles(s *scene.Scene, cam *scene.Camera, w, h int) []screenTri {
	view := cam.GetViewMatrix()
	viewProj := cam.GetProjectionMatrix().Mul(view)

	var tris []screenTri
	var out []vertexOut
	for _, node := range s.GetVisibleNodes() {
		mesh := node.Mesh
		model := node.GetWorldMatrix()
		mvp := viewProj.Mul(model)
		normalM := model.NormalMatrix()
		viewNormalM := view.Mul(model).NormalMatrix()
		mat := mesh.MaterialOrDefault()

		out = out[:0]
		for _, v := range mesh.Vertices {
			out = append(out, vertexOut{
				clip:   mvp.MulVec(v.Position.ToVec4(1)),
				world:  model.MulVec3(v.Position),
				normal: normalM.MulDir(v.Normal),
				viewN:  viewNormalM.MulDir(v.Normal),
				uv:     v.UV,
				color:  v.Color,
			})
		}

		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			a, b, c := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
			if int(a) >= len(out) || int(b) >= len(out) || int(c) >= len(out) {
				continue
			}
			poly := clipNear([]vertexOut{out[a], out[b], out[c]})
			for k := 1; k+1 < len(poly); k++ {
				if tri, ok := makeScreenTri(poly[0], poly[k], poly[k+1], w, h); ok {
					tri.material = mat
					tris = append(tris, tri)
				}
			}
		}
	}
	return tris
}

// clipNear clips a polygon against the near plane, z >= -w in clip space.
func clipNear(poly []vertexOut) []vertexOut {
	dist := func(v vertexOut) float32 { return v.clip.Z + v.clip.W }

	inside := 0
	for _, v := range poly {
		if dist(v) >= 0 {
			inside++
		}
	}
	if inside == len(poly) {
		return poly
	}
	if inside == 0 {
		return nil
	}

	res := make([]vertexOut, 0, len(poly)+1)
	for i, cur := range poly {
		next := poly[(i+1)%len(poly)]
		dc, dn := dist(cur), dist(next)
		if dc >= 0 {
			res = append(res, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			res = append(res, lerpVertex(cur, next, dc/(dc-dn)))
		}
	}
	return res
}

func makeScreenTri(a, b, c vertexOut, w, h int) (screenTri, bool) {
	tri := screenTri{v: [3]vertexOut{a, b, c}}
	for i, v := range tri.v {
		if v.clip.W <= 0 {
			return tri, false
		}
		inv := 1 / v.clip.W
		tri.invW[i] = inv
		tri.x[i] = (v.clip.X*inv*0.5 + 0.5) * float32(w)
		tri.y[i] = (v.clip.Y*inv*0.5 + 0.5) * float32(h)
		tri.z[i] = v.clip.Z*inv*0.5 + 0.5
	}

	tri.area = edge(tri.x[0], tri.y[0], tri.x[1], tri.y[1], tri.x[2], tri.y[2])
	if !(tri.area > 0) {
		return tri, false // back-facing or degenerate
	}

	minX := math.Min(tri.x[0], math.Min(tri.x[1], tri.x[2]))
	maxX := math.Max(tri.x[0], math.Max(tri.x[1], tri.x[2]))
	minY := math.Min(tri.y[0], math.Min(tri.y[1], tri.y[2]))
	maxY := math.Max(tri.y[0], math.Max(tri.y[1], tri.y[2]))

	// Pixel x covers the sample at x+0.5.
	tri.x0 = max(int(math.Floor(minX-0.5))+1, 0)
	tri.x1 = min(int(math.Floor(maxX-0.5)), w-1)
	tri.y0 = max(int(math.Floor(minY-0.5))+1, 0)
	tri.y1 = min(int(math.Floor(maxY-0.5)), h-1)
	if tri.x0 > tri.x1 || tri.y0 > tri.y1 {
		return tri, false
	}
	return tri, true
}

// edge is twice the signed area of (a, b, p); positive when counter-clockwise.
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func shadeFragment(color *Texture, depth *DepthTexture, tri *screenTri, x, y int, m Material, surf *Surface) {
	px, py := float32(x)+0.5, float32(y)+0.5
	w0 := edge(tri.x[1], tri.y[1], tri.x[2], tri.y[2], px, py)
	w1 := edge(tri.x[2], tri.y[2], tri.x[0], tri.y[0], px, py)
	w2 := edge(tri.x[0], tri.y[0], tri.x[1], tri.y[1], px, py)
	if w0 < 0 || w1 < 0 || w2 < 0 {
		return
	}
	b0, b1, b2 := w0/tri.area, w1/tri.area, w2/tri.area

	// Window z is affine in screen space.
	z := b0*tri.z[0] + b1*tri.z[1] + b2*tri.z[2]
	if z < 0 || z > 1 || z >= depth.At(x, y) {
		return
	}

	// Varyings are affine in 1/w.
	p0, p1, p2 := b0*tri.invW[0], b1*tri.invW[1], b2*tri.invW[2]
	sum := p0 + p1 + p2
	if sum == 0 {
		return
	}
	p0, p1, p2 = p0/sum, p1/sum, p2/sum
	a, b, c := &tri.v[0], &tri.v[1], &tri.v[2]

	surf.WorldPos = a.world.Mul(p0).Add(b.world.Mul(p1)).Add(c.world.Mul(p2))
	surf.WorldNormal = a.normal.Mul(p0).Add(b.normal.Mul(p1)).Add(c.normal.Mul(p2)).Normalize()
	surf.ViewNormal = a.viewN.Mul(p0).Add(b.viewN.Mul(p1)).Add(c.viewN.Mul(p2)).Normalize()
	surf.UV = a.uv.Mul(p0).Add(b.uv.Mul(p1)).Add(c.uv.Mul(p2))
	surf.Color = core.Color{
		R: a.color.R*p0 + b.color.R*p1 + c.color.R*p2,
		G: a.color.G*p0 + b.color.G*p1 + c.color.G*p2,
		B: a.color.B*p0 + b.color.B*p1 + c.color.B*p2,
		A: a.color.A*p0 + b.color.A*p1 + c.color.A*p2,
	}
	surf.Material = tri.material

	depth.Set(x, y, z)
	color.Set(x, y, m.Shade(surf))
}

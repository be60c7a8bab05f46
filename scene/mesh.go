package scene

import (
	"ssao-engine/core"
	"ssao-engine/math"
)

// Mesh holds CPU-side triangle data. Front faces wind counter-clockwise.
type Mesh struct {
	Name     string
	Vertices []core.Vertex
	Indices  []uint32

	// Material holds surface shading properties. If nil, DefaultMaterial() is used.
	Material *Material
}

func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]core.Vertex, 0),
		Indices:  make([]uint32, 0),
	}
}

// CreateMeshFromData builds a Mesh. A nil index slice draws the vertices in
// order, three at a time.
func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	if indices == nil {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	return &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
}

// TriangleCount is the number of complete index triples.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// MaterialOrDefault never returns nil.
func (m *Mesh) MaterialOrDefault() *Material {
	if m.Material == nil {
		return DefaultMaterial()
	}
	return m.Material
}

// Primitive generation helpers

func CreateQuad() *Mesh {
	vertices := []core.Vertex{
		{Position: math.Vec3{X: -0.5, Y: -0.5, Z: 0}, Normal: math.Vec3Front, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: 0.5, Y: -0.5, Z: 0}, Normal: math.Vec3Front, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: 0.5, Y: 0.5, Z: 0}, Normal: math.Vec3Front, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -0.5, Y: 0.5, Z: 0}, Normal: math.Vec3Front, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
	}
	indices := []uint32{0, 1, 2, 2, 3, 0}
	return CreateMeshFromData("Quad", vertices, indices)
}

func CreateCube(size float32) *Mesh {
	m := CreateBox(math.NewVec3(size, size, size))
	m.Name = "Cube"
	return m
}

// CreateBox builds an axis-aligned box centered on the origin with one
// flat-shaded quad per face.
func CreateBox(size math.Vec3) *Mesh {
	h := size.Mul(0.5)
	faces := []struct{ normal, u, v math.Vec3 }{
		{math.Vec3Front, math.Vec3Right, math.Vec3Up},
		{math.Vec3Back, math.Vec3Left, math.Vec3Up},
		{math.Vec3Up, math.Vec3Right, math.Vec3Back},
		{math.Vec3Down, math.Vec3Right, math.Vec3Front},
		{math.Vec3Right, math.Vec3Back, math.Vec3Up},
		{math.Vec3Left, math.Vec3Front, math.Vec3Up},
	}

	vertices := make([]core.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		center := f.normal.MulVec(h)
		u := f.u.MulVec(h)
		v := f.v.MulVec(h)
		base := uint32(len(vertices))
		// u × v == normal, so this corner order is counter-clockwise from outside.
		corners := [4]struct {
			p  math.Vec3
			uv math.Vec2
		}{
			{center.Sub(u).Sub(v), math.Vec2{X: 0, Y: 0}},
			{center.Add(u).Sub(v), math.Vec2{X: 1, Y: 0}},
			{center.Add(u).Add(v), math.Vec2{X: 1, Y: 1}},
			{center.Sub(u).Add(v), math.Vec2{X: 0, Y: 1}},
		}
		for _, c := range corners {
			vertices = append(vertices, core.Vertex{Position: c.p, Normal: f.normal, UV: c.uv, Color: core.ColorWhite})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return CreateMeshFromData("Box", vertices, indices)
}

package scene

import "ssao-engine/math"

// GenerateNormals replaces vertex normals with the area-weighted average of
// the adjacent face normals.
func GenerateNormals(m *Mesh) {
	accum := make([]math.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		v0 := m.Vertices[i0].Position
		n := m.Vertices[i1].Position.Sub(v0).Cross(m.Vertices[i2].Position.Sub(v0))
		accum[i0] = accum[i0].Add(n)
		accum[i1] = accum[i1].Add(n)
		accum[i2] = accum[i2].Add(n)
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = accum[i].Normalize()
	}
}

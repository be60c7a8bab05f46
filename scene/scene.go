package scene

import (
	"ssao-engine/core"
	"ssao-engine/math"
)

// Scene is a node graph plus the lighting environment it is drawn with.
type Scene struct {
	Root       *Node
	Lights     []*Light
	Ambient    core.Color
	Background core.Color
}

type LightType int

const (
	LightTypeDirectional LightType = iota
	LightTypePoint
)

// Light represents a light source
type Light struct {
	Type      LightType
	Position  math.Vec3
	Direction math.Vec3 // direction the light travels, for directional lights
	Color     core.Color
	Intensity float32
	Range     float32 // point light falloff distance; 0 means no falloff
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		Lights:     make([]*Light, 0),
		Ambient:    core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1.0},
		Background: core.Color{R: 0.5, G: 0.5, B: 0.5, A: 1.0},
	}
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) AddLight(light *Light) {
	s.Lights = append(s.Lights, light)
}

// GetVisibleNodes returns all nodes with meshes whose whole ancestor chain
// is visible.
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil {
			visible = append(visible, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s.Root)
	return visible
}

// CreateDemoScene builds a ground plane with boxes and spheres resting on it,
// lit by ambient light and one directional light.
func CreateDemoScene() *Scene {
	s := NewScene()
	s.AddLight(&Light{
		Type:      LightTypeDirectional,
		Direction: math.Vec3{X: -0.5, Y: -1, Z: -0.4}.Normalize(),
		Color:     core.ColorWhite,
		Intensity: 0.8,
	})

	ground := NewMeshNode("Ground", CreatePlane(40, 40, 1), math.Vec3Zero)
	ground.Mesh.Material = NewMaterial("Ground", core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1})
	s.AddNode(ground)

	palette := []core.Color{
		{R: 0.9, G: 0.4, B: 0.3, A: 1},
		{R: 0.3, G: 0.7, B: 0.4, A: 1},
		{R: 0.3, G: 0.5, B: 0.9, A: 1},
		{R: 0.9, G: 0.8, B: 0.3, A: 1},
	}
	for i := 0; i < 8; i++ {
		angle := float32(i) * 2 * math.Pi / 8
		radius := float32(4 + (i%2)*3)
		pos := math.Vec3{X: radius * math.Cos(angle), Z: radius * math.Sin(angle)}

		var node *Node
		if i%2 == 0 {
			size := float32(1.5 + float32(i%3)*0.5)
			pos.Y = size / 2
			node = NewMeshNode("Box", CreateCube(size), pos)
			node.Rotate(math.Vec3Up, angle)
		} else {
			pos.Y = 1
			node = NewMeshNode("Sphere", CreateSphere(1, 32, 16), pos)
		}
		node.Mesh.Material = NewMaterial(node.Name, palette[i%len(palette)])
		s.AddNode(node)
	}

	// A tall column in the middle gives strong contact creases.
	column := NewMeshNode("Column", CreateBox(math.NewVec3(1.5, 6, 1.5)), math.NewVec3(0, 3, 0))
	column.Mesh.Material = NewMaterial("Column", core.ColorWhite)
	s.AddNode(column)

	return s
}

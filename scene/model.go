package scene

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LoadModel loads a .gltf, .glb or .obj file and wraps it in a single node
// ready to be added to a scene.
func LoadModel(path string) (*Node, error) {
	root := NewNode(filepath.Base(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		res, err := LoadGLTF(path)
		if err != nil {
			return nil, err
		}
		for _, n := range res.Roots {
			root.AddChild(n)
		}
	case ".obj":
		meshes, err := LoadOBJ(path)
		if err != nil {
			return nil, err
		}
		for _, m := range meshes {
			child := NewNode(m.Name)
			child.Mesh = m
			root.AddChild(child)
		}
	default:
		return nil, fmt.Errorf("load model %q: unsupported format %q", path, filepath.Ext(path))
	}
	return root, nil
}

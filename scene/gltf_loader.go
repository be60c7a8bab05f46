package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"ssao-engine/core"
	"ssao-engine/math"
)

// GLTFResult holds the nodes loaded from a .glb / .gltf file.
type GLTFResult struct {
	Roots    []*Node // top-level nodes; add each with scene.AddNode(n)
	Textures []*Texture
}

// LoadGLTF opens a .glb or .gltf file and converts its default scene into
// nodes. Mesh geometry, base colour factors and textures, and the node
// hierarchy are kept; everything else in the material is ignored.
// Unreadable images and primitives are skipped with a warning.
func LoadGLTF(path string) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	l := &gltfLoader{doc: doc, dir: filepath.Dir(path), log: slog.With("model", path)}
	return l.load(), nil
}

type gltfLoader struct {
	doc *gltf.Document
	dir string
	log *slog.Logger

	textures  []*Texture
	materials []*Material
	meshes    [][]*Mesh // one entry per primitive
}

func (l *gltfLoader) load() *GLTFResult {
	result := &GLTFResult{}

	// ── Textures ─────────────────────────────────────────────────────────────
	l.textures = make([]*Texture, len(l.doc.Textures))
	for i, gt := range l.doc.Textures {
		if gt.Source == nil {
			continue
		}
		tex, err := l.loadImage(*gt.Source)
		if err != nil {
			l.log.Warn("gltf: skipping texture", "image", *gt.Source, "err", err)
			continue
		}
		l.textures[i] = tex
		result.Textures = append(result.Textures, tex)
	}

	// ── Materials ────────────────────────────────────────────────────────────
	l.materials = make([]*Material, len(l.doc.Materials))
	for i, gm := range l.doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Albedo = core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			}
			if pbr.BaseColorTexture != nil {
				if idx := pbr.BaseColorTexture.Index; idx < len(l.textures) {
					mat.AlbedoTexture = l.textures[idx]
				}
			}
		}
		mat.Unlit = gm.Extensions != nil && gm.Extensions["KHR_materials_unlit"] != nil
		l.materials[i] = mat
	}

	// ── Mesh primitives ──────────────────────────────────────────────────────
	l.meshes = make([][]*Mesh, len(l.doc.Meshes))
	for mi, gm := range l.doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				l.log.Warn("gltf: skipping non-triangle primitive", "mesh", mi, "primitive", pi)
				continue
			}
			m, err := l.loadPrimitive(gm.Name, pi, prim)
			if err != nil {
				l.log.Warn("gltf: skipping primitive", "mesh", mi, "primitive", pi, "err", err)
				continue
			}
			if prim.Material != nil && *prim.Material < len(l.materials) {
				m.Material = l.materials[*prim.Material]
			}
			l.meshes[mi] = append(l.meshes[mi], m)
		}
	}

	// ── Nodes ────────────────────────────────────────────────────────────────
	nodes := make([]*Node, len(l.doc.Nodes))
	for i, gn := range l.doc.Nodes {
		nodes[i] = l.convertNode(i, gn)
	}
	hasParent := make([]bool, len(nodes))
	for i, gn := range l.doc.Nodes {
		for _, c := range gn.Children {
			if c < len(nodes) {
				nodes[i].AddChild(nodes[c])
				hasParent[c] = true
			}
		}
	}

	if l.doc.Scene != nil && *l.doc.Scene < len(l.doc.Scenes) {
		for _, idx := range l.doc.Scenes[*l.doc.Scene].Nodes {
			if idx < len(nodes) {
				result.Roots = append(result.Roots, nodes[idx])
			}
		}
		return result
	}
	// No default scene: every parentless node is a root.
	for i, n := range nodes {
		if !hasParent[i] {
			result.Roots = append(result.Roots, n)
		}
	}
	return result
}

func (l *gltfLoader) convertNode(i int, gn *gltf.Node) *Node {
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", i)
	}
	n := NewNode(name)

	t := gn.TranslationOrDefault()
	n.SetPosition(math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])})
	s := gn.ScaleOrDefault()
	n.SetScale(math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])})
	r := gn.RotationOrDefault() // [x, y, z, w]
	n.SetRotation(math.Quaternion{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])})

	if gn.Mesh == nil || *gn.Mesh >= len(l.meshes) {
		return n
	}
	prims := l.meshes[*gn.Mesh]
	if len(prims) == 1 {
		n.Mesh = prims[0]
		return n
	}
	for pi, p := range prims {
		child := NewNode(fmt.Sprintf("%s_prim%d", name, pi))
		child.Mesh = p
		n.AddChild(child)
	}
	return n
}

func (l *gltfLoader) loadImage(idx int) (*Texture, error) {
	img := l.doc.Images[idx]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", idx)
	}

	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(l.doc, l.doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("buffer view: %w", err)
		}
		return decodeImageBytes(name, raw)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		return decodeImageBytes(name, raw)
	case img.URI != "":
		return LoadTexture(filepath.Join(l.dir, img.URI))
	}
	return nil, fmt.Errorf("image %d has no data", idx)
}

// loadPrimitive converts one glTF mesh primitive into a Mesh.
func (l *gltfLoader) loadPrimitive(meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(l.doc, l.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(l.doc, l.doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(l.doc, l.doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: math.Vec3{X: p[0], Y: p[1], Z: p[2]},
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			v.Normal = math.Vec3{X: normals[i][0], Y: normals[i][1], Z: normals[i][2]}
		}
		if i < len(uvs) {
			// glTF puts v = 0 at the top of the image.
			v.UV = math.Vec2{X: uvs[i][0], Y: 1 - uvs[i][1]}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(l.doc, l.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	m := CreateMeshFromData(name, verts, indices)
	if len(normals) == 0 {
		GenerateNormals(m)
	}
	return m, nil
}

// decodeImageBytes decodes a PNG or JPEG byte slice.
func decodeImageBytes(name string, data []byte) (*Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return NewTextureFromImage(name, img), nil
}

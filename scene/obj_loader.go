package scene

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ssao-engine/core"
	"ssao-engine/math"
)

// objCorner is one face corner: 0-based position, UV and normal indices,
// -1 when absent.
type objCorner struct{ v, vt, vn int }

type objGroup struct {
	name     string
	material string
	corners  []objCorner // triangulated, three per face
}

// objParser accumulates the shared vertex pools and the groups that index them.
type objParser struct {
	dir       string
	positions []math.Vec3
	normals   []math.Vec3
	uvs       []math.Vec2
	materials map[string]*Material
	groups    []*objGroup
	cur       *objGroup
}

// LoadOBJ parses a Wavefront .obj file and returns one Mesh per object/group.
// Diffuse colour and texture come from a referenced .mtl file when present.
func LoadOBJ(path string) ([]*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	p := &objParser{dir: filepath.Dir(path), materials: map[string]*Material{}}
	p.cur = &objGroup{name: "default"}
	if err := p.parse(f); err != nil {
		return nil, fmt.Errorf("parse obj %q: %w", path, err)
	}
	p.flush()
	if len(p.groups) == 0 {
		return nil, fmt.Errorf("no geometry found in %q", path)
	}

	meshes := make([]*Mesh, 0, len(p.groups))
	for _, g := range p.groups {
		mesh := p.build(g)
		if mat, ok := p.materials[g.material]; ok {
			mesh.Material = mat
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func (p *objParser) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		args := fields[1:]

		switch fields[0] {
		case "v":
			if v, ok := parseFloats(args, 3); ok {
				p.positions = append(p.positions, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
			}
		case "vn":
			if v, ok := parseFloats(args, 3); ok {
				p.normals = append(p.normals, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
			}
		case "vt":
			if v, ok := parseFloats(args, 2); ok {
				p.uvs = append(p.uvs, math.Vec2{X: v[0], Y: v[1]})
			}
		case "o", "g":
			p.flush()
			name := "default"
			if len(args) > 0 {
				name = args[0]
			}
			p.cur = &objGroup{name: name, material: p.cur.material}
		case "usemtl":
			if len(args) > 0 {
				p.cur.material = args[0]
			}
		case "mtllib":
			if len(args) > 0 {
				p.loadMTL(filepath.Join(p.dir, args[0]))
			}
		case "f":
			if len(args) < 3 {
				continue
			}
			corners := make([]objCorner, len(args))
			for i, tok := range args {
				corners[i] = p.parseCorner(tok)
			}
			// Fan triangulation: 0-1-2, 0-2-3, ...
			for i := 1; i+1 < len(corners); i++ {
				p.cur.corners = append(p.cur.corners, corners[0], corners[i], corners[i+1])
			}
		}
	}
	return scanner.Err()
}

func (p *objParser) flush() {
	if len(p.cur.corners) > 0 {
		p.groups = append(p.groups, p.cur)
	}
}

// parseCorner reads "v", "v/vt", "v//vn" or "v/vt/vn". OBJ indices are
// 1-based; negative values count back from the end of the pool.
func (p *objParser) parseCorner(tok string) objCorner {
	idx := func(s string, n int) int {
		i, err := strconv.Atoi(s)
		switch {
		case err != nil || i == 0:
			return -1
		case i < 0:
			return n + i
		default:
			return i - 1
		}
	}
	c := objCorner{v: -1, vt: -1, vn: -1}
	parts := strings.Split(tok, "/")
	c.v = idx(parts[0], len(p.positions))
	if len(parts) > 1 {
		c.vt = idx(parts[1], len(p.uvs))
	}
	if len(parts) > 2 {
		c.vn = idx(parts[2], len(p.normals))
	}
	return c
}

// build deduplicates the group's corners into an indexed Mesh.
func (p *objParser) build(g *objGroup) *Mesh {
	seen := map[objCorner]uint32{}
	var vertices []core.Vertex
	indices := make([]uint32, 0, len(g.corners))
	missingNormals := false

	for _, c := range g.corners {
		if idx, ok := seen[c]; ok {
			indices = append(indices, idx)
			continue
		}
		v := core.Vertex{Color: core.ColorWhite}
		if c.v >= 0 && c.v < len(p.positions) {
			v.Position = p.positions[c.v]
		}
		if c.vt >= 0 && c.vt < len(p.uvs) {
			v.UV = p.uvs[c.vt]
		}
		if c.vn >= 0 && c.vn < len(p.normals) {
			v.Normal = p.normals[c.vn]
		} else {
			missingNormals = true
		}
		idx := uint32(len(vertices))
		vertices = append(vertices, v)
		seen[c] = idx
		indices = append(indices, idx)
	}

	m := CreateMeshFromData(g.name, vertices, indices)
	if missingNormals {
		GenerateNormals(m)
	}
	return m
}

// loadMTL reads Kd and map_Kd from a material library. A missing or
// malformed library is logged and skipped.
func (p *objParser) loadMTL(path string) {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("obj: skipping material library", "path", path, "err", err)
		return
	}
	defer f.Close()

	var cur *Material
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			cur = DefaultMaterial()
			cur.Name = fields[1]
			p.materials[fields[1]] = cur
		case "Kd":
			if v, ok := parseFloats(fields[1:], 3); ok && cur != nil {
				cur.Albedo = core.Color{R: v[0], G: v[1], B: v[2], A: 1}
			}
		case "map_Kd":
			if cur == nil {
				continue
			}
			tex, err := LoadTexture(filepath.Join(p.dir, fields[len(fields)-1]))
			if err != nil {
				slog.Warn("obj: skipping texture", "material", cur.Name, "err", err)
				continue
			}
			cur.AlbedoTexture = tex
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("obj: reading material library", "path", path, "err", err)
	}
}

func parseFloats(args []string, n int) ([]float32, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, false
		}
		out[i] = float32(f)
	}
	return out, true
}

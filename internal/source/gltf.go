package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/splatgen/internal/logger"
	"github.com/Faultbox/splatgen/internal/texture"
	"github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

// ErrArchivedGLTF is returned for glTF files requested from a GRF archive.
var ErrArchivedGLTF = errors.New("glTF models must be read from disk")

// gltfModel holds the meshes of the default scene. glTF animation is not
// evaluated, so every frame returns the same meshes.
type gltfModel struct {
	meshes []*mesh.Mesh
}

func loadGLTF(res *resolver, opts Options) (*gltfModel, error) {
	if res.local == "" {
		return nil, ErrArchivedGLTF
	}
	dir := res.local
	doc, err := gltf.Open(filepath.Join(dir, res.name))
	if err != nil {
		return nil, err
	}

	l := &gltfLoader{doc: doc, dir: dir, textures: opts.Textures, images: make(map[uint32]image.Image)}
	if len(doc.Scenes) == 0 {
		return &gltfModel{}, nil
	}
	scene := uint32(0)
	if doc.Scene != nil {
		scene = *doc.Scene
	}
	if int(scene) >= len(doc.Scenes) {
		return nil, fmt.Errorf("default scene %d out of range", scene)
	}

	root := mesh.YUpToZUp()
	for _, n := range doc.Scenes[scene].Nodes {
		if err := l.visit(n, root, 0); err != nil {
			return nil, err
		}
	}
	return &gltfModel{meshes: l.meshes}, nil
}

func (m *gltfModel) evaluate(int) ([]*mesh.Mesh, error) {
	return m.meshes, nil
}

// maxNodeDepth bounds traversal of malformed, cyclic node graphs.
const maxNodeDepth = 256

type gltfLoader struct {
	doc      *gltf.Document
	dir      string
	textures bool
	images   map[uint32]image.Image // by glTF image index; nil when unreadable
	meshes   []*mesh.Mesh
}

func (l *gltfLoader) visit(idx uint32, parent math.Mat4, depth int) error {
	if int(idx) >= len(l.doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}
	node := l.doc.Nodes[idx]
	world := parent.Mul(nodeTransform(node))

	if node.Mesh != nil {
		if int(*node.Mesh) >= len(l.doc.Meshes) {
			return fmt.Errorf("node %q: mesh %d out of range", node.Name, *node.Mesh)
		}
		gm := l.doc.Meshes[*node.Mesh]
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				logger.Debug("skipping non-triangle primitive",
					zap.String("mesh", gm.Name), zap.Int("primitive", pi))
				continue
			}
			m, err := l.primitive(gm, pi, prim)
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
			}
			m.World = world
			l.meshes = append(l.meshes, m)
		}
	}

	for _, child := range node.Children {
		if err := l.visit(child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeTransform returns the node matrix, or T*R*S when no matrix is set.
func nodeTransform(node *gltf.Node) math.Mat4 {
	mat := node.MatrixOrDefault()
	if mat != gltf.DefaultMatrix {
		var m math.Mat4
		for i, v := range mat {
			m[i] = float64(v)
		}
		return m
	}
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	q := math.Quat{X: float64(r[0]), Y: float64(r[1]), Z: float64(r[2]), W: float64(r[3])}
	return math.Translate(float64(t[0]), float64(t[1]), float64(t[2])).
		Mul(q.Normalize().ToMat4()).
		Mul(math.Scale(float64(s[0]), float64(s[1]), float64(s[2])))
}

func (l *gltfLoader) accessor(idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(l.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return l.doc.Accessors[idx], nil
}

func (l *gltfLoader) primitive(gm *gltf.Mesh, pi int, prim *gltf.Primitive) (*mesh.Mesh, error) {
	name := gm.Name
	if len(gm.Primitives) > 1 {
		name = fmt.Sprintf("%s.%d", gm.Name, pi)
	}
	out := &mesh.Mesh{Name: name}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("missing POSITION")
	}
	acr, err := l.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(l.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	out.Positions = make([]math.Vec3, len(positions))
	for i, p := range positions {
		out.Positions[i] = math.Vec3From(p)
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		acr, err := l.accessor(idx)
		if err != nil {
			return nil, err
		}
		normals, err := modeler.ReadNormal(l.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		if len(normals) == len(positions) {
			out.Normals = make([]math.Vec3, len(normals))
			for i, n := range normals {
				out.Normals[i] = math.Vec3From(n)
			}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		acr, err := l.accessor(*prim.Indices)
		if err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(l.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		out.Faces = append(out.Faces, []int{int(indices[i]), int(indices[i+1]), int(indices[i+2])})
	}

	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		acr, err := l.accessor(idx)
		if err != nil {
			return nil, err
		}
		colors, err := modeler.ReadColor64(l.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading colors: %w", err)
		}
		attr := &mesh.ColorAttribute{
			Name:     gltf.COLOR_0,
			Domain:   mesh.DomainPoint,
			Values:   make([][4]float64, len(colors)),
			HasAlpha: acr.Type == gltf.AccessorVec4,
		}
		for i, c := range colors {
			attr.Values[i] = [4]float64{float64(c[0]) / 65535, float64(c[1]) / 65535, float64(c[2]) / 65535, float64(c[3]) / 65535}
		}
		out.Color = attr
	}

	if prim.Material != nil && int(*prim.Material) < len(l.doc.Materials) {
		mat := l.doc.Materials[*prim.Material]
		out.Material = materialColor(mat)
		if l.textures {
			if err := l.attachTexture(out, prim, mat, indices); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// materialColor takes the base color factor, falling back to the emissive
// factor when the base color is black.
func materialColor(mat *gltf.Material) *mesh.Material {
	out := &mesh.Material{Name: mat.Name, Color: [3]float64{1, 1, 1}, Alpha: 1, Source: mesh.MaterialBase}
	if pbr := mat.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		f := *pbr.BaseColorFactor
		out.Color = [3]float64{float64(f[0]), float64(f[1]), float64(f[2])}
		out.Alpha = float64(f[3])
	}
	e := mat.EmissiveFactor
	emissive := [3]float64{float64(e[0]), float64(e[1]), float64(e[2])}
	if out.Color == [3]float64{} && emissive != [3]float64{} {
		out.Color = emissive
		out.Source = mesh.MaterialEmission
	}
	return out
}

// attachTexture gives every face the material's base color texture and a
// UV per corner. Missing UVs or images leave the mesh untextured.
func (l *gltfLoader) attachTexture(out *mesh.Mesh, prim *gltf.Primitive, mat *gltf.Material, indices []uint32) error {
	pbr := mat.PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return nil
	}
	info := pbr.BaseColorTexture
	uvIdx, ok := prim.Attributes[fmt.Sprintf("TEXCOORD_%d", info.TexCoord)]
	if !ok {
		return nil
	}
	acr, err := l.accessor(uvIdx)
	if err != nil {
		return err
	}
	uvs, err := modeler.ReadTextureCoord(l.doc, acr, nil)
	if err != nil {
		return fmt.Errorf("reading texture coordinates: %w", err)
	}

	img := l.textureImage(info.Index)
	if img == nil {
		return nil
	}

	tex := &mesh.Texture{
		Images:    []image.Image{img},
		FaceImage: make([]int, len(out.Faces)),
		UVs:       make([]math.Vec2, 0, len(out.Faces)*3),
	}
	for _, face := range out.Faces {
		for _, v := range face {
			var uv math.Vec2
			if v < len(uvs) {
				uv = math.Vec2{X: float64(uvs[v][0]), Y: float64(uvs[v][1])}
			}
			tex.UVs = append(tex.UVs, uv)
		}
	}
	out.Texture = tex
	return nil
}

// textureImage decodes the source image of texture idx once.
func (l *gltfLoader) textureImage(idx uint32) image.Image {
	if int(idx) >= len(l.doc.Textures) || l.doc.Textures[idx].Source == nil {
		return nil
	}
	src := *l.doc.Textures[idx].Source
	if img, ok := l.images[src]; ok {
		return img
	}
	img, err := l.decodeImage(src)
	if err != nil {
		logger.Warn("texture not loaded", zap.Uint32("image", src), zap.Error(err))
		img = nil
	}
	l.images[src] = img
	return img
}

func (l *gltfLoader) decodeImage(idx uint32) (image.Image, error) {
	if int(idx) >= len(l.doc.Images) {
		return nil, fmt.Errorf("image %d out of range", idx)
	}
	gi := l.doc.Images[idx]
	switch {
	case gi.BufferView != nil:
		if int(*gi.BufferView) >= len(l.doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", *gi.BufferView)
		}
		data, err := modeler.ReadBufferView(l.doc, l.doc.BufferViews[*gi.BufferView])
		if err != nil {
			return nil, err
		}
		return texture.Decode(data, gi.Name)
	case gi.IsEmbeddedResource():
		data, err := gi.MarshalData()
		if err != nil {
			return nil, err
		}
		return texture.Decode(data, gi.Name)
	case gi.URI != "":
		return texture.Load(os.DirFS(l.dir), filepath.ToSlash(gi.URI), false)
	}
	return nil, errors.New("image has no data")
}

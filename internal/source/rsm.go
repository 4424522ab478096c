package source

import (
	"image"
	gomath "math"

	"github.com/Faultbox/splatgen/pkg/formats"
	"github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

// roToSource maps RO model space (Y down) into the pipeline basis: flip Y
// to get a Y-up model, then rotate Y-up into Z-up.
var roToSource = mesh.YUpToZUp().Mul(math.Scale(1, -1, 1))

// rsmModel evaluates an RSM hierarchy at a keyframe time.
type rsmModel struct {
	rsm    *formats.RSM
	fps    float64
	images []image.Image // per RSM texture; nil entries were not found
}

func loadRSM(res *resolver, opts Options) (*rsmModel, error) {
	rsm, err := formats.ParseRSMFS(res.fsys, res.name)
	if err != nil {
		return nil, err
	}
	return newRSMModel(res, rsm, opts), nil
}

func newRSMModel(res *resolver, rsm *formats.RSM, opts Options) *rsmModel {
	m := &rsmModel{rsm: rsm, fps: opts.FPS}
	if opts.Textures {
		m.images = make([]image.Image, len(rsm.Textures))
		for i, name := range rsm.Textures {
			if img := res.loadTexture(name); img != nil {
				m.images[i] = img
			}
		}
	}
	return m
}

// details summarizes the parsed file.
func (m *rsmModel) details() *Details {
	return &Details{
		Version:  m.rsm.Version.String(),
		Vertices: m.rsm.GetTotalVertexCount(),
		Faces:    m.rsm.GetTotalFaceCount(),
		Animated: m.rsm.HasAnimation(),
		Textures: len(m.rsm.Textures),
	}
}

// animated reports whether any node has more than one keyframe. A single
// key is a static pose.
func (m *rsmModel) animated() bool {
	if m.rsm.AnimLength <= 0 {
		return false
	}
	for i := range m.rsm.Nodes {
		node := &m.rsm.Nodes[i]
		if len(node.RotKeys) > 1 || len(node.ScaleKeys) > 1 {
			return true
		}
	}
	return false
}

func (m *rsmModel) frameCount() int {
	if !m.animated() {
		return 1
	}
	return max(1, int(gomath.Ceil(float64(m.rsm.AnimLength)*m.fps/1000)))
}

// timeAt converts a frame to keyframe milliseconds.
func (m *rsmModel) timeAt(frame int) float64 {
	return m.loopTime(float64(frame) * 1000 / m.fps)
}

// loopTime wraps t into the model's animation length.
func (m *rsmModel) loopTime(t float64) float64 {
	if length := float64(m.rsm.AnimLength); length > 0 {
		t = gomath.Mod(t, length)
		if t < 0 {
			t += length
		}
	}
	return t
}

func (m *rsmModel) evaluate(frame int) ([]*mesh.Mesh, error) {
	return m.meshesAt(m.timeAt(frame), roToSource, ""), nil
}

// meshesAt converts every node with geometry. base maps RO model space
// into the pipeline basis; prefix is prepended to node names.
func (m *rsmModel) meshesAt(timeMs float64, base math.Mat4, prefix string) []*mesh.Mesh {
	var meshes []*mesh.Mesh
	for i := range m.rsm.Nodes {
		node := &m.rsm.Nodes[i]
		if len(node.Vertices) == 0 || len(node.Faces) == 0 {
			continue
		}
		out := m.nodeMesh(node, base.Mul(nodeMatrix(node, m.rsm, timeMs)))
		out.Name = prefix + out.Name
		meshes = append(meshes, out)
	}
	return meshes
}

// center returns the X/Z center of the model's bounds in its rest pose.
func (m *rsmModel) center() (x, z float64) {
	minX, minZ := gomath.Inf(1), gomath.Inf(1)
	maxX, maxZ := gomath.Inf(-1), gomath.Inf(-1)
	for i := range m.rsm.Nodes {
		node := &m.rsm.Nodes[i]
		mat := nodeMatrix(node, m.rsm, 0)
		for _, face := range node.Faces {
			for _, vi := range face.VertexIDs {
				if int(vi) >= len(node.Vertices) {
					continue
				}
				p := mat.TransformPoint(math.Vec3From(node.Vertices[vi]))
				minX, maxX = min(minX, p.X), max(maxX, p.X)
				minZ, maxZ = min(minZ, p.Z), max(maxZ, p.Z)
			}
		}
	}
	if minX > maxX {
		return 0, 0
	}
	return (minX + maxX) / 2, (minZ + maxZ) / 2
}

// nodeMesh converts one node. Texcoord colors become a corner attribute
// scaled by the model alpha.
func (m *rsmModel) nodeMesh(node *formats.RSMNode, world math.Mat4) *mesh.Mesh {
	alpha := float64(m.rsm.Alpha)
	out := &mesh.Mesh{
		Name:      node.Name,
		World:     world,
		Positions: make([]math.Vec3, len(node.Vertices)),
		Faces:     make([][]int, len(node.Faces)),
		Color:     &mesh.ColorAttribute{Name: "texcoord_color", Domain: mesh.DomainCorner, HasAlpha: true},
		Material:  &mesh.Material{Name: node.Name, Color: [3]float64{1, 1, 1}, Alpha: alpha, Source: mesh.MaterialBase},
	}
	for i, v := range node.Vertices {
		out.Positions[i] = math.Vec3From(v)
	}

	var tex *mesh.Texture
	if m.images != nil {
		tex = &mesh.Texture{Images: m.images, FaceImage: make([]int, len(node.Faces))}
		out.Texture = tex
	}

	for fi, face := range node.Faces {
		out.Faces[fi] = []int{int(face.VertexIDs[0]), int(face.VertexIDs[1]), int(face.VertexIDs[2])}
		for _, tci := range face.TexCoordIDs {
			rgba := [4]float64{1, 1, 1, 1}
			var uv math.Vec2
			if int(tci) < len(node.TexCoords) {
				tc := node.TexCoords[tci]
				rgba = tc.RGBA()
				uv = math.Vec2{X: float64(tc.U), Y: float64(tc.V)}
			}
			rgba[3] *= alpha
			out.Color.Values = append(out.Color.Values, rgba)
			if tex != nil {
				tex.UVs = append(tex.UVs, uv)
			}
		}
		if tex != nil {
			tex.FaceImage[fi] = m.faceImage(node, face)
		}
	}
	return out
}

// faceImage resolves a face's texture slot to an index into m.images, or
// -1 when the texture is missing.
func (m *rsmModel) faceImage(node *formats.RSMNode, face formats.RSMFace) int {
	if int(face.TextureID) >= len(node.TextureIDs) {
		return -1
	}
	idx := int(node.TextureIDs[face.TextureID])
	if idx < 0 || idx >= len(m.images) || m.images[idx] == nil {
		return -1
	}
	return idx
}

// nodeMatrix returns the model-space transform of node's vertices: the
// inherited hierarchy followed by the node's own offset and 3x3 matrix,
// which children do not inherit.
func nodeMatrix(node *formats.RSMNode, rsm *formats.RSM, timeMs float64) math.Mat4 {
	visited := make(map[string]bool)
	m := hierarchyMatrix(node, rsm, timeMs, visited)
	m = m.Mul(math.Translate(float64(node.Offset[0]), float64(node.Offset[1]), float64(node.Offset[2])))
	return m.Mul(math.FromMat3x3(node.Matrix))
}

// hierarchyMatrix is parent * Position * Rotation * Scale. Rotation comes
// from keyframes when present, otherwise from the static axis-angle.
func hierarchyMatrix(node *formats.RSMNode, rsm *formats.RSM, timeMs float64, visited map[string]bool) math.Mat4 {
	if visited[node.Name] {
		return math.Identity()
	}
	visited[node.Name] = true

	local := math.Translate(float64(node.Position[0]), float64(node.Position[1]), float64(node.Position[2]))

	if len(node.RotKeys) > 0 {
		local = local.Mul(interpolateRotKeys(node.RotKeys, timeMs).ToMat4())
	} else if node.RotAngle != 0 {
		axis := math.Vec3From(node.RotAxis)
		if axis.Length() > 1e-6 {
			local = local.Mul(math.RotateAxis(axis.Normalize(), float64(node.RotAngle)))
		}
	}

	local = local.Mul(math.Scale(float64(node.Scale[0]), float64(node.Scale[1]), float64(node.Scale[2])))
	if len(node.ScaleKeys) > 0 {
		s := interpolateScaleKeys(node.ScaleKeys, timeMs)
		local = local.Mul(math.Scale(s.X, s.Y, s.Z))
	}

	if !node.IsRootNode() {
		if parent := rsm.GetNodeByName(node.Parent); parent != nil {
			return hierarchyMatrix(parent, rsm, timeMs, visited).Mul(local)
		}
	}
	return local
}

// keySpan finds the keys around timeMs in a list sorted by frame. It
// returns the same index twice before the first and after the last key.
func keySpan(n int, frame func(int) int32, timeMs float64) (prev, next int, t float64) {
	for i := 0; i < n; i++ {
		if float64(frame(i)) > timeMs {
			if i == 0 {
				return 0, 0, 0
			}
			prev, next = i-1, i
			f0, f1 := float64(frame(prev)), float64(frame(next))
			return prev, next, (timeMs - f0) / (f1 - f0)
		}
	}
	return n - 1, n - 1, 0
}

func interpolateRotKeys(keys []formats.RSMRotKeyframe, timeMs float64) math.Quat {
	prev, next, t := keySpan(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	q0 := math.QuatFrom(keys[prev].Quaternion).Normalize()
	if prev == next {
		return q0
	}
	return q0.Slerp(math.QuatFrom(keys[next].Quaternion).Normalize(), t)
}

func interpolateScaleKeys(keys []formats.RSMScaleKeyframe, timeMs float64) math.Vec3 {
	prev, next, t := keySpan(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	s0 := math.Vec3From(keys[prev].Scale)
	if prev == next {
		return s0
	}
	s1 := math.Vec3From(keys[next].Scale)
	return s0.Add(s1.Sub(s0).Scale(t))
}

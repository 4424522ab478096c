// Package formats provides parsers for Ragnarok Online model files.
//
// RSM (Resource Model) files describe static and keyframe-animated props as a
// hierarchy of textured triangle meshes. GND files describe map terrain as a
// height grid of textured tiles.
package formats

import (
	"errors"
	"fmt"
	"io/fs"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
	ErrInvalidElementCount   = errors.New("invalid RSM element count")
)

// Limits on counts read from the file. Real models stay far below them.
const (
	maxRSMNodes    = 10000
	maxRSMTextures = 1000
	maxRSMElements = 100000
	maxRSMKeys     = 10000
	rsmNameLength  = 40
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// RSMShadingType represents the shading mode for rendering.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0
	RSMShadingFlat   RSMShadingType = 1
	RSMShadingSmooth RSMShadingType = 2
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMTexCoord is a texture coordinate with its vertex color.
type RSMTexCoord struct {
	Color [4]uint8 // BGRA; opaque white before v1.2
	U, V  float32
}

// RGBA returns the texcoord color as normalized RGBA.
func (tc RSMTexCoord) RGBA() [4]float64 {
	return [4]float64{
		float64(tc.Color[2]) / 255,
		float64(tc.Color[1]) / 255,
		float64(tc.Color[0]) / 255,
		float64(tc.Color[3]) / 255,
	}
}

// RSMFace is a triangle face.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16 // index into RSMNode.TextureIDs
	Padding     uint16
	TwoSide     int32
	SmoothGroup int32 // v1.2+
}

// RSMPosKeyframe is a position keyframe (before v1.5).
type RSMPosKeyframe struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKeyframe is a rotation keyframe. Frames are in milliseconds.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32 // X, Y, Z, W
}

// RSMScaleKeyframe is a scale keyframe (v1.5+).
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one mesh in the model hierarchy.
type RSMNode struct {
	Name       string
	Parent     string  // empty for the root
	TextureIDs []int32 // indices into RSM.Textures

	Matrix   [9]float32 // column-major 3x3
	Offset   [3]float32 // pivot
	Position [3]float32
	RotAngle float32 // radians
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	PosKeys   []RSMPosKeyframe
	RotKeys   []RSMRotKeyframe
	ScaleKeys []RSMScaleKeyframe
}

// RSMVolumeBox is a collision volume.
type RSMVolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // v1.3+
}

// RSM represents a parsed RSM file.
type RSM struct {
	Version     RSMVersion
	AnimLength  int32 // milliseconds
	Shading     RSMShadingType
	Alpha       float32 // 0-1, from v1.4
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []RSMVolumeBox
}

// ParseRSM parses RSM data from a byte slice. Versions 1.1 through 1.5 are
// supported.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Version: RSMVersion{Major: data[4], Minor: data[5]}}
	if rsm.Version.Major != 1 || rsm.Version.Minor < 1 || rsm.Version.Minor > 5 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	r := newReader(data[6:], ErrTruncatedRSMData)
	rsm.AnimLength = r.int32()
	r.read(&rsm.Shading)

	rsm.Alpha = 1
	if rsm.Version.AtLeast(1, 4) {
		var alpha uint8
		r.read(&alpha)
		rsm.Alpha = float32(alpha) / 255
	}
	r.skip(16) // reserved

	rsm.Textures = makeN[string](r.count("textures", maxRSMTextures))
	for i := range rsm.Textures {
		rsm.Textures[i] = r.string(rsmNameLength)
	}
	rsm.RootNode = r.string(rsmNameLength)
	if r.err != nil {
		return nil, fmt.Errorf("reading header: %w", r.err)
	}

	nodeCount := r.int32()
	if r.err != nil {
		return nil, fmt.Errorf("reading header: %w", r.err)
	}
	if nodeCount < 0 || nodeCount > maxRSMNodes {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNodeCount, nodeCount)
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		if err := parseRSMNode(r, rsm.Version, &rsm.Nodes[i]); err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, err)
		}
	}

	// Volume boxes are optional trailing data.
	if r.r.Len() >= 4 {
		boxCount := r.int32()
		if boxCount > 0 && boxCount < 1000 {
			boxes := make([]RSMVolumeBox, boxCount)
			for i := range boxes {
				box := &boxes[i]
				r.read(&box.Size)
				r.read(&box.Position)
				r.read(&box.Rotation)
				if rsm.Version.AtLeast(1, 3) {
					r.read(&box.Flag)
				}
			}
			if r.err == nil {
				rsm.VolumeBoxes = boxes
			}
		}
	}

	return rsm, nil
}

func parseRSMNode(r *reader, version RSMVersion, node *RSMNode) error {
	node.Name = r.string(rsmNameLength)
	node.Parent = r.string(rsmNameLength)

	node.TextureIDs = makeN[int32](r.count("texture ids", maxRSMTextures))
	for i := range node.TextureIDs {
		node.TextureIDs[i] = r.int32()
	}

	r.read(&node.Matrix)
	r.read(&node.Offset)
	r.read(&node.Position)
	r.read(&node.RotAngle)
	r.read(&node.RotAxis)
	r.read(&node.Scale)

	node.Vertices = makeN[[3]float32](r.count("vertices", maxRSMElements))
	for i := range node.Vertices {
		r.read(&node.Vertices[i])
	}

	node.TexCoords = makeN[RSMTexCoord](r.count("texcoords", maxRSMElements))
	for i := range node.TexCoords {
		tc := &node.TexCoords[i]
		if version.AtLeast(1, 2) {
			r.read(&tc.Color)
		} else {
			tc.Color = [4]uint8{255, 255, 255, 255}
		}
		r.read(&tc.U)
		r.read(&tc.V)
	}

	node.Faces = makeN[RSMFace](r.count("faces", maxRSMElements))
	for i := range node.Faces {
		face := &node.Faces[i]
		r.read(&face.VertexIDs)
		r.read(&face.TexCoordIDs)
		r.read(&face.TextureID)
		r.read(&face.Padding)
		r.read(&face.TwoSide)
		if version.AtLeast(1, 2) {
			r.read(&face.SmoothGroup)
		}
	}

	if !version.AtLeast(1, 5) {
		node.PosKeys = makeN[RSMPosKeyframe](r.count("position keys", maxRSMKeys))
		for i := range node.PosKeys {
			r.read(&node.PosKeys[i].Frame)
			r.read(&node.PosKeys[i].Position)
		}
	}

	node.RotKeys = makeN[RSMRotKeyframe](r.count("rotation keys", maxRSMKeys))
	for i := range node.RotKeys {
		r.read(&node.RotKeys[i].Frame)
		r.read(&node.RotKeys[i].Quaternion)
	}

	if version.AtLeast(1, 5) {
		node.ScaleKeys = makeN[RSMScaleKeyframe](r.count("scale keys", maxRSMKeys))
		for i := range node.ScaleKeys {
			r.read(&node.ScaleKeys[i].Frame)
			r.read(&node.ScaleKeys[i].Scale)
		}
	}

	return r.err
}

// ParseRSMFS parses an RSM file from a file system such as a GRF archive.
func ParseRSMFS(fsys fs.FS, name string) (*RSM, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// GetTotalVertexCount returns the total number of vertices across all nodes.
func (rsm *RSM) GetTotalVertexCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Vertices)
	}
	return total
}

// GetTotalFaceCount returns the total number of faces across all nodes.
func (rsm *RSM) GetTotalFaceCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Faces)
	}
	return total
}

// GetNodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) GetNodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// HasAnimation returns true if the model has any animation keyframes.
func (rsm *RSM) HasAnimation() bool {
	for _, node := range rsm.Nodes {
		if len(node.PosKeys) > 0 || len(node.RotKeys) > 0 || len(node.ScaleKeys) > 0 {
			return true
		}
	}
	return false
}

// IsRootNode reports whether node sits at the top of the hierarchy. Some
// exporters leave Parent empty, others point it at the node itself.
func (node *RSMNode) IsRootNode() bool {
	return node.Parent == "" || node.Parent == node.Name
}

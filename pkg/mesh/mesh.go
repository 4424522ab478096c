// Package mesh defines the evaluated geometry handed to the splat pipeline:
// a Scene of meshes with world transforms, topology and optional color data.
//
// Meshes are expressed in the pipeline's source basis (forward -Y, up +Z).
// Loaders for Y-up formats apply YUpToZUp to their world transforms.
package mesh

import (
	"fmt"
	"image"

	"github.com/Faultbox/splatgen/pkg/math"
)

// Domain identifies which mesh element a color attribute is stored on.
type Domain int

const (
	DomainPoint  Domain = iota // one value per vertex
	DomainCorner               // one value per face corner
	DomainFace                 // one value per face
)

// String returns the domain name.
func (d Domain) String() string {
	switch d {
	case DomainPoint:
		return "point"
	case DomainCorner:
		return "corner"
	case DomainFace:
		return "face"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// ColorAttribute holds linear RGBA values for one domain.
type ColorAttribute struct {
	Name     string
	Domain   Domain
	Values   [][4]float64
	HasAlpha bool // alpha channel is meaningful; otherwise alpha reads as 1
}

// Alpha returns the alpha of value i, or 1 when the attribute has none.
func (a *ColorAttribute) Alpha(i int) float64 {
	if !a.HasAlpha {
		return 1
	}
	return a.Values[i][3]
}

// MaterialSource names the shading input a constant material color came from.
type MaterialSource string

const (
	MaterialBase     MaterialSource = "base"
	MaterialEmission MaterialSource = "emission"
)

// Material is the constant color fallback of a mesh's material.
type Material struct {
	Name   string
	Color  [3]float64
	Alpha  float64
	Source MaterialSource
}

// Texture carries the inputs for texture baking: images, the image used by
// each face (-1 for none) and a UV per face corner.
type Texture struct {
	Images    []image.Image
	FaceImage []int
	UVs       []math.Vec2
}

// Mesh is one evaluated mesh object.
type Mesh struct {
	Name      string
	World     math.Mat4
	Positions []math.Vec3
	Normals   []math.Vec3 // optional, one per vertex
	Faces     [][]int     // vertex indices per face
	Color     *ColorAttribute
	Material  *Material
	Texture   *Texture
}

// Scene is an immutable snapshot of the selected meshes at one frame.
type Scene struct {
	Frame  int
	Meshes []*Mesh
}

// YUpToZUp converts Y-up coordinates (glTF, RSM) into the source basis:
// (x, y, z) -> (x, -z, y).
func YUpToZUp() math.Mat4 {
	return math.FromColumns(
		math.Vec3{X: 1},
		math.Vec3{Z: 1},
		math.Vec3{Y: -1},
	)
}

// CornerCount returns the total number of face corners.
func (m *Mesh) CornerCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f)
	}
	return n
}

// CornerOffsets returns the first corner index of every face. Corners are
// numbered consecutively in face order.
func (m *Mesh) CornerOffsets() []int {
	offsets := make([]int, len(m.Faces))
	n := 0
	for i, f := range m.Faces {
		offsets[i] = n
		n += len(f)
	}
	return offsets
}

// Clone returns a shallow copy whose attribute pointers can be replaced
// without touching the original.
func (m *Mesh) Clone() *Mesh {
	c := *m
	return &c
}

package source

import (
	"image"
	gomath "math"

	"github.com/Faultbox/splatgen/pkg/formats"
	"github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

// wallEpsilon is the altitude step below which no wall is emitted.
const wallEpsilon = 0.001

// gndModel is static terrain. The mesh is built once and shared by every
// frame.
type gndModel struct {
	ground *mesh.Mesh
	info   *Details
}

func loadGND(res *resolver, opts Options) (*gndModel, error) {
	gnd, err := formats.ParseGNDFS(res.fsys, res.name)
	if err != nil {
		return nil, err
	}

	var images []image.Image
	if opts.Textures {
		images = make([]image.Image, len(gnd.Textures))
		for i, name := range gnd.Textures {
			if img := res.loadTexture(name); img != nil {
				images[i] = img
			}
		}
	}
	ground := buildGround(gnd, images)
	return &gndModel{ground: ground, info: groundDetails(gnd, ground)}, nil
}

// groundDetails describes terrain as parsed and as tessellated.
func groundDetails(gnd *formats.GND, ground *mesh.Mesh) *Details {
	lo, hi := gnd.GetAltitudeRange()
	return &Details{
		Version:  gnd.Version.String(),
		Vertices: len(ground.Positions),
		Faces:    len(ground.Faces),
		Textures: len(gnd.Textures),
		Ground: &GroundDetails{
			Width:        int(gnd.Width),
			Height:       int(gnd.Height),
			UsedTextures: len(gnd.CountSurfacesByTexture()),
			MinAltitude:  float64(lo),
			MaxAltitude:  float64(hi),
		},
	}
}

func (m *gndModel) evaluate(int) ([]*mesh.Mesh, error) {
	return []*mesh.Mesh{m.ground}, nil
}

// groundBuilder accumulates terrain triangles. Every quad gets its own four
// vertices so corner UVs and face colors stay per quad.
type groundBuilder struct {
	gnd    *formats.GND
	images []image.Image
	out    *mesh.Mesh
}

// buildGround triangulates top surfaces and the walls between tiles of
// different height. Positions are in Y-up ground space with altitude
// negated, like RSM models.
func buildGround(gnd *formats.GND, images []image.Image) *mesh.Mesh {
	b := &groundBuilder{
		gnd:    gnd,
		images: images,
		out: &mesh.Mesh{
			Name:  "ground",
			World: mesh.YUpToZUp(),
			Color: &mesh.ColorAttribute{Name: "surface_color", Domain: mesh.DomainFace, HasAlpha: true},
		},
	}
	if images != nil {
		b.out.Texture = &mesh.Texture{Images: images}
	}

	size := float64(gnd.Zoom)
	for y := range int(gnd.Height) {
		for x := range int(gnd.Width) {
			tile := gnd.GetTile(x, y)
			baseX, baseZ := float64(x)*size, float64(y)*size
			corners := [4]math.Vec3{
				{X: baseX, Y: -float64(tile.Altitude[0]), Z: baseZ + size},        // bottom-left
				{X: baseX + size, Y: -float64(tile.Altitude[1]), Z: baseZ + size}, // bottom-right
				{X: baseX, Y: -float64(tile.Altitude[2]), Z: baseZ},               // top-left
				{X: baseX + size, Y: -float64(tile.Altitude[3]), Z: baseZ},        // top-right
			}

			if s := gnd.Surface(tile.TopSurface); s != nil {
				uv := [4]math.Vec2{
					{X: float64(s.U[2]), Y: float64(s.V[2])},
					{X: float64(s.U[3]), Y: float64(s.V[3])},
					{X: float64(s.U[0]), Y: float64(s.V[0])},
					{X: float64(s.U[1]), Y: float64(s.V[1])},
				}
				b.quad(corners, uv, s.RGBA(), int(s.TextureID), [6]int{0, 1, 2, 2, 1, 3})
			}

			if next := gnd.GetTile(x, y+1); next != nil && steps(tile.Altitude[0], next.Altitude[2], tile.Altitude[1], next.Altitude[3]) {
				wall := [4]math.Vec3{
					corners[0],
					corners[1],
					{X: baseX, Y: -float64(next.Altitude[2]), Z: baseZ + size},
					{X: baseX + size, Y: -float64(next.Altitude[3]), Z: baseZ + size},
				}
				b.wall(tile, tile.FrontSurface, wall)
			}

			if right := gnd.GetTile(x+1, y); right != nil && steps(tile.Altitude[1], right.Altitude[0], tile.Altitude[3], right.Altitude[2]) {
				wall := [4]math.Vec3{
					corners[3],
					corners[1],
					{X: baseX + size, Y: -float64(right.Altitude[2]), Z: baseZ},
					{X: baseX + size, Y: -float64(right.Altitude[0]), Z: baseZ + size},
				}
				b.wall(tile, tile.RightSurface, wall)
			}
		}
	}
	return b.out
}

func steps(a0, b0, a1, b1 float32) bool {
	return gomath.Abs(float64(a0-b0)) > wallEpsilon || gomath.Abs(float64(a1-b1)) > wallEpsilon
}

// wall emits a wall quad with its own surface, or with the top surface's
// texture stretched over it. Walls are white.
func (b *groundBuilder) wall(tile *formats.GNDTile, surface int32, corners [4]math.Vec3) {
	uv := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	s := b.gnd.Surface(surface)
	if s != nil {
		for i := range uv {
			uv[i] = math.Vec2{X: float64(s.U[i]), Y: float64(s.V[i])}
		}
	} else if s = b.gnd.Surface(tile.TopSurface); s == nil {
		return
	}
	b.quad(corners, uv, [4]float64{1, 1, 1, 1}, int(s.TextureID), [6]int{0, 2, 1, 1, 2, 3})
}

// quad appends two triangles over corners, ordered by tris.
func (b *groundBuilder) quad(corners [4]math.Vec3, uv [4]math.Vec2, rgba [4]float64, textureID int, tris [6]int) {
	out := b.out
	base := len(out.Positions)
	out.Positions = append(out.Positions, corners[:]...)

	img := -1
	if textureID >= 0 && textureID < len(b.images) && b.images[textureID] != nil {
		img = textureID
	}
	for t := 0; t < 6; t += 3 {
		out.Faces = append(out.Faces, []int{base + tris[t], base + tris[t+1], base + tris[t+2]})
		out.Color.Values = append(out.Color.Values, rgba)
		if out.Texture != nil {
			out.Texture.FaceImage = append(out.Texture.FaceImage, img)
			for _, c := range tris[t : t+3] {
				out.Texture.UVs = append(out.Texture.UVs, uv[c])
			}
		}
	}
}

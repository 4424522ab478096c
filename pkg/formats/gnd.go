package formats

import (
	"errors"
	"fmt"
	"io/fs"
)

// GND format errors.
var (
	ErrInvalidGNDMagic       = errors.New("invalid GND magic: expected 'GRGN'")
	ErrUnsupportedGNDVersion = errors.New("unsupported GND version")
	ErrTruncatedGNDData      = errors.New("truncated GND data")
	ErrInvalidGNDDimensions  = errors.New("invalid GND dimensions")
)

const (
	maxGNDSide         = 1024
	maxGNDTextures     = 4096
	maxGNDLightmaps    = 1 << 20
	maxGNDLightmapSide = 256 // per dimension; real maps use 8x8x1
	maxGNDSurfaces     = 1 << 22
	maxGNDNameLen      = 256
)

// GNDVersion represents the GND file version.
type GNDVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GNDVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GNDSurface is a textured quad.
type GNDSurface struct {
	U          [4]float32 // bottom-left, bottom-right, top-left, top-right
	V          [4]float32
	TextureID  int16 // -1 = no texture
	LightmapID int16
	Color      [4]uint8 // BGRA
}

// RGBA returns the surface color as normalized RGBA.
func (s GNDSurface) RGBA() [4]float64 {
	return [4]float64{
		float64(s.Color[2]) / 255,
		float64(s.Color[1]) / 255,
		float64(s.Color[0]) / 255,
		float64(s.Color[3]) / 255,
	}
}

// GNDTile is one cell of the ground grid.
type GNDTile struct {
	Altitude     [4]float32 // bottom-left, bottom-right, top-left, top-right
	TopSurface   int32      // -1 = none
	FrontSurface int32      // wall towards the next row
	RightSurface int32      // wall towards the next column
}

// GNDLightmap is the baked light of one surface.
type GNDLightmap struct {
	Brightness []uint8
	ColorRGB   []uint8
}

// GND represents a parsed ground file.
type GND struct {
	Version        GNDVersion
	Width          uint32
	Height         uint32
	Zoom           float32 // tile edge length
	TextureNameLen uint32
	Textures       []string
	Lightmaps      []GNDLightmap
	LightmapWidth  uint32
	LightmapHeight uint32
	LightmapCells  uint32
	Surfaces       []GNDSurface
	Tiles          []GNDTile
}

// GetTile returns the tile at x, y, or nil when out of bounds.
func (g *GND) GetTile(x, y int) *GNDTile {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Tiles[y*int(g.Width)+x]
}

// Surface returns surface id, or nil for negative or out of range ids.
func (g *GND) Surface(id int32) *GNDSurface {
	if id < 0 || int(id) >= len(g.Surfaces) {
		return nil
	}
	return &g.Surfaces[id]
}

// GetAltitudeRange returns the lowest and highest corner altitude.
func (g *GND) GetAltitudeRange() (lo, hi float32) {
	if len(g.Tiles) == 0 {
		return 0, 0
	}
	lo, hi = g.Tiles[0].Altitude[0], g.Tiles[0].Altitude[0]
	for _, tile := range g.Tiles {
		for _, h := range tile.Altitude {
			lo = min(lo, h)
			hi = max(hi, h)
		}
	}
	return lo, hi
}

// ParseGND parses GND data. Versions 1.5 through 1.9 are supported.
func ParseGND(data []byte) (*GND, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedGNDData
	}
	if string(data[:4]) != "GRGN" {
		return nil, ErrInvalidGNDMagic
	}

	g := &GND{Version: GNDVersion{Major: data[4], Minor: data[5]}}
	if g.Version.Major != 1 || g.Version.Minor < 5 || g.Version.Minor > 9 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGNDVersion, g.Version)
	}

	r := newReader(data[6:], ErrTruncatedGNDData)
	g.Width = r.uint32()
	g.Height = r.uint32()
	r.read(&g.Zoom)
	if r.err != nil {
		return nil, fmt.Errorf("reading header: %w", r.err)
	}
	if g.Width == 0 || g.Height == 0 || g.Width > maxGNDSide || g.Height > maxGNDSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGNDDimensions, g.Width, g.Height)
	}

	g.Textures = makeN[string](r.count("textures", maxGNDTextures))
	g.TextureNameLen = r.uint32()
	if r.err == nil && g.TextureNameLen > maxGNDNameLen {
		return nil, fmt.Errorf("%w: texture name length %d", ErrInvalidElementCount, g.TextureNameLen)
	}
	for i := range g.Textures {
		g.Textures[i] = r.string(int(g.TextureNameLen))
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading textures: %w", r.err)
	}

	lightmaps := r.count("lightmaps", maxGNDLightmaps)
	g.LightmapWidth = r.uint32()
	g.LightmapHeight = r.uint32()
	g.LightmapCells = r.uint32()
	if r.err != nil {
		return nil, fmt.Errorf("reading lightmaps: %w", r.err)
	}
	if g.LightmapWidth > maxGNDLightmapSide || g.LightmapHeight > maxGNDLightmapSide || g.LightmapCells > maxGNDLightmapSide {
		return nil, fmt.Errorf("%w: lightmap %dx%dx%d", ErrInvalidGNDDimensions, g.LightmapWidth, g.LightmapHeight, g.LightmapCells)
	}
	pixels := int64(g.LightmapWidth) * int64(g.LightmapHeight) * int64(g.LightmapCells)
	if lightmaps > 0 && int64(lightmaps)*pixels*4 > int64(r.r.Len()) {
		return nil, fmt.Errorf("reading lightmaps: %w", ErrTruncatedGNDData)
	}
	g.Lightmaps = makeN[GNDLightmap](lightmaps)
	for i := range g.Lightmaps {
		g.Lightmaps[i].Brightness = make([]uint8, pixels)
		g.Lightmaps[i].ColorRGB = make([]uint8, pixels*3)
		r.read(g.Lightmaps[i].Brightness)
		r.read(g.Lightmaps[i].ColorRGB)
	}

	g.Surfaces = makeN[GNDSurface](r.count("surfaces", maxGNDSurfaces))
	for i := range g.Surfaces {
		s := &g.Surfaces[i]
		r.read(&s.U)
		r.read(&s.V)
		r.read(&s.TextureID)
		r.read(&s.LightmapID)
		r.read(&s.Color)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading surfaces: %w", r.err)
	}

	g.Tiles = make([]GNDTile, int(g.Width)*int(g.Height))
	for i := range g.Tiles {
		tile := &g.Tiles[i]
		r.read(&tile.Altitude)
		r.read(&tile.TopSurface)
		r.read(&tile.FrontSurface)
		r.read(&tile.RightSurface)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading tiles: %w", r.err)
	}
	return g, nil
}

// CountSurfacesByTexture returns how many surfaces use each texture.
func (g *GND) CountSurfacesByTexture() map[int]int {
	counts := make(map[int]int)
	for _, surface := range g.Surfaces {
		if surface.TextureID >= 0 {
			counts[int(surface.TextureID)]++
		}
	}
	return counts
}

// ParseGNDFS parses a GND file from fsys.
func ParseGNDFS(fsys fs.FS, name string) (*GND, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading GND file: %w", err)
	}
	return ParseGND(data)
}

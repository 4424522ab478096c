package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/splatgen/pkg/encoding"
)

// MarshalBinary encodes the ground. TextureNameLen defaults to 80.
func (g *GND) MarshalBinary() ([]byte, error) {
	v := g.Version
	if v.Major != 1 || v.Minor < 5 || v.Minor > 9 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGNDVersion, v)
	}
	if len(g.Tiles) != int(g.Width)*int(g.Height) {
		return nil, fmt.Errorf("%w: %d tiles for %dx%d", ErrInvalidGNDDimensions, len(g.Tiles), g.Width, g.Height)
	}
	nameLen := g.TextureNameLen
	if nameLen == 0 {
		nameLen = 80
	}

	var buf bytes.Buffer
	w := func(data any) {
		binary.Write(&buf, binary.LittleEndian, data)
	}

	buf.WriteString("GRGN")
	buf.WriteByte(v.Major)
	buf.WriteByte(v.Minor)
	w(g.Width)
	w(g.Height)
	w(g.Zoom)

	w(int32(len(g.Textures)))
	w(nameLen)
	for _, tex := range g.Textures {
		buf.Write(encoding.UTF8ToFixedString(tex, int(nameLen)))
	}

	w(int32(len(g.Lightmaps)))
	w(g.LightmapWidth)
	w(g.LightmapHeight)
	w(g.LightmapCells)
	for _, lm := range g.Lightmaps {
		buf.Write(lm.Brightness)
		buf.Write(lm.ColorRGB)
	}

	w(int32(len(g.Surfaces)))
	for _, s := range g.Surfaces {
		w(s.U)
		w(s.V)
		w(s.TextureID)
		w(s.LightmapID)
		w(s.Color)
	}

	for _, tile := range g.Tiles {
		w(tile.Altitude)
		w(tile.TopSurface)
		w(tile.FrontSurface)
		w(tile.RightSurface)
	}
	return buf.Bytes(), nil
}

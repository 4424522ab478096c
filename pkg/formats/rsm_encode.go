package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/splatgen/pkg/encoding"
)

// MarshalBinary encodes the model in its own version's layout. Names are
// written as NUL-padded EUC-KR.
func (rsm *RSM) MarshalBinary() ([]byte, error) {
	v := rsm.Version
	if v.Major != 1 || v.Minor < 1 || v.Minor > 5 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, v)
	}

	var buf bytes.Buffer
	w := func(data any) {
		binary.Write(&buf, binary.LittleEndian, data)
	}
	name := func(s string) {
		buf.Write(encoding.UTF8ToFixedString(s, rsmNameLength))
	}

	buf.WriteString("GRSM")
	buf.WriteByte(v.Major)
	buf.WriteByte(v.Minor)
	w(rsm.AnimLength)
	w(rsm.Shading)
	if v.AtLeast(1, 4) {
		w(uint8(rsm.Alpha*255 + 0.5))
	}
	buf.Write(make([]byte, 16))

	w(int32(len(rsm.Textures)))
	for _, tex := range rsm.Textures {
		name(tex)
	}
	name(rsm.RootNode)

	w(int32(len(rsm.Nodes)))
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		name(node.Name)
		name(node.Parent)
		w(int32(len(node.TextureIDs)))
		w(node.TextureIDs)
		w(node.Matrix)
		w(node.Offset)
		w(node.Position)
		w(node.RotAngle)
		w(node.RotAxis)
		w(node.Scale)

		w(int32(len(node.Vertices)))
		w(node.Vertices)

		w(int32(len(node.TexCoords)))
		for _, tc := range node.TexCoords {
			if v.AtLeast(1, 2) {
				w(tc.Color)
			}
			w(tc.U)
			w(tc.V)
		}

		w(int32(len(node.Faces)))
		for _, f := range node.Faces {
			w(f.VertexIDs)
			w(f.TexCoordIDs)
			w(f.TextureID)
			w(f.Padding)
			w(f.TwoSide)
			if v.AtLeast(1, 2) {
				w(f.SmoothGroup)
			}
		}

		if !v.AtLeast(1, 5) {
			w(int32(len(node.PosKeys)))
			w(node.PosKeys)
		}
		w(int32(len(node.RotKeys)))
		w(node.RotKeys)
		if v.AtLeast(1, 5) {
			w(int32(len(node.ScaleKeys)))
			w(node.ScaleKeys)
		}
	}

	w(int32(len(rsm.VolumeBoxes)))
	for _, box := range rsm.VolumeBoxes {
		w(box.Size)
		w(box.Position)
		w(box.Rotation)
		if v.AtLeast(1, 3) {
			w(box.Flag)
		}
	}
	return buf.Bytes(), nil
}

package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/splatgen/pkg/encoding"
)

// MarshalBinary encodes the map layout. Objects are written grouped by type.
// Sound and effect fields that are not kept are written as zero.
func (rsw *RSW) MarshalBinary() ([]byte, error) {
	v := rsw.Version
	if !v.AtLeast(1, 2) || v.AtLeast(2, 7) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSWVersion, v)
	}

	var buf bytes.Buffer
	w := func(data any) {
		binary.Write(&buf, binary.LittleEndian, data)
	}
	str := func(s string, n int) {
		buf.Write(encoding.UTF8ToFixedString(s, n))
	}

	buf.WriteString("GRSW")
	buf.WriteByte(v.Major)
	buf.WriteByte(v.Minor)
	switch {
	case v.AtLeast(2, 5):
		w(v.BuildNumber)
		buf.WriteByte(0)
	case v.AtLeast(2, 2):
		buf.WriteByte(uint8(v.BuildNumber))
	}

	str(rsw.IniFile, rswFileNameLen)
	str(rsw.GndFile, rswFileNameLen)
	if v.AtLeast(1, 4) {
		str(rsw.GatFile, rswFileNameLen)
	}
	str(rsw.SrcFile, rswFileNameLen)

	if v.AtLeast(1, 3) && !v.AtLeast(2, 6) {
		w(rsw.Water.Level)
		if v.AtLeast(1, 8) {
			w(rsw.Water.Type)
			w(rsw.Water.WaveHeight)
			w(rsw.Water.WaveSpeed)
			w(rsw.Water.WavePitch)
		}
		if v.AtLeast(1, 9) {
			w(rsw.Water.AnimSpeed)
		}
	}
	if v.AtLeast(1, 5) {
		w(rsw.Light.Longitude)
		w(rsw.Light.Latitude)
		w(rsw.Light.Diffuse)
		w(rsw.Light.Ambient)
		if v.AtLeast(1, 7) {
			w(rsw.Light.Opacity)
		}
	}
	if v.AtLeast(1, 6) {
		w(rsw.Ground)
	}

	w(int32(len(rsw.Models) + len(rsw.Lights) + len(rsw.Sounds) + len(rsw.Effects)))
	for _, m := range rsw.Models {
		w(RSWObjectModel)
		if v.AtLeast(1, 3) {
			str(m.Name, rswObjectName)
			w(m.AnimType)
			w(m.AnimSpeed)
			w(m.BlockType)
		}
		if v.AtLeast(2, 6) && v.BuildNumber >= 162 {
			buf.WriteByte(0)
		}
		str(m.ModelName, rswResourceName)
		str(m.NodeName, rswResourceName)
		w(m.Position)
		w(m.Rotation)
		w(m.Scale)
	}
	for _, l := range rsw.Lights {
		w(RSWObjectLight)
		str(l.Name, rswResourceName)
		w(l.Position)
		w(l.Color)
		w(l.Range)
	}
	for _, s := range rsw.Sounds {
		w(RSWObjectSound)
		str(s.Name, rswResourceName)
		str(s.File, rswResourceName)
		w(s.Position)
		w([4]int32{})
		if v.AtLeast(2, 0) {
			w(int32(0))
		}
	}
	for _, e := range rsw.Effects {
		w(RSWObjectEffect)
		str(e.Name, rswResourceName)
		w(e.Position)
		w(e.EffectID)
		w([5]float32{})
	}
	return buf.Bytes(), nil
}

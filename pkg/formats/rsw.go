package formats

import (
	"errors"
	"fmt"
	"io/fs"
)

// RSW format errors.
var (
	ErrInvalidRSWMagic       = errors.New("invalid RSW magic: expected 'GRSW'")
	ErrUnsupportedRSWVersion = errors.New("unsupported RSW version")
	ErrTruncatedRSWData      = errors.New("truncated RSW data")
	ErrUnknownObjectType     = errors.New("unknown RSW object type")
)

const (
	maxRSWObjects   = 1 << 18
	rswFileNameLen  = 40
	rswObjectName   = 40
	rswResourceName = 80
)

// RSWVersion represents the RSW file version.
type RSWVersion struct {
	Major       uint8
	Minor       uint8
	BuildNumber uint32 // v2.2+
}

// String returns "Major.Minor" or "Major.Minor.Build".
func (v RSWVersion) String() string {
	if v.BuildNumber > 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.BuildNumber)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSWVersion) AtLeast(major, minor uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// RSWObjectType is the tag in front of every placed object.
type RSWObjectType int32

const (
	RSWObjectModel  RSWObjectType = 1
	RSWObjectLight  RSWObjectType = 2
	RSWObjectSound  RSWObjectType = 3
	RSWObjectEffect RSWObjectType = 4
)

// RSWWater holds the water plane settings (v1.3 to v2.5). Wave fields
// start at v1.8, AnimSpeed at v1.9.
type RSWWater struct {
	Level      float32
	Type       int32
	WaveHeight float32
	WaveSpeed  float32
	WavePitch  float32
	AnimSpeed  int32
}

// RSWLight is the map's directional light. Angles are in degrees.
type RSWLight struct {
	Longitude int32
	Latitude  int32
	Diffuse   [3]float32
	Ambient   [3]float32
	Opacity   float32 // v1.7+
}

// RSWGround holds the ground view bounds (v1.6+).
type RSWGround struct {
	Top, Bottom, Left, Right int32
}

// RSWModel places an RSM prop on the map. Position is relative to the map
// center; Rotation is in degrees.
type RSWModel struct {
	Name      string
	AnimType  int32
	AnimSpeed float32
	BlockType int32
	ModelName string // relative to data/model
	NodeName  string
	Position  [3]float32
	Rotation  [3]float32
	Scale     [3]float32
}

// RSWLightSource is a point light.
type RSWLightSource struct {
	Name     string
	Position [3]float32
	Color    [3]float32
	Range    float32
}

// RSWSound is a sound emitter. Only the fields needed to list it are kept.
type RSWSound struct {
	Name     string
	File     string
	Position [3]float32
}

// RSWEffect is a particle effect emitter.
type RSWEffect struct {
	Name     string
	Position [3]float32
	EffectID int32
}

// RSW is a parsed map layout: the ground it sits on and the objects placed
// on it. Objects are grouped by type in file order.
type RSW struct {
	Version RSWVersion
	IniFile string
	GndFile string
	GatFile string // v1.4+
	SrcFile string // v1.4+
	Water   RSWWater
	Light   RSWLight
	Ground  RSWGround

	Models  []RSWModel
	Lights  []RSWLightSource
	Sounds  []RSWSound
	Effects []RSWEffect
}

// defaultRSWLight is what maps older than v1.5 are lit with.
func defaultRSWLight() RSWLight {
	return RSWLight{
		Longitude: 45,
		Latitude:  45,
		Diffuse:   [3]float32{1, 1, 1},
		Ambient:   [3]float32{0.3, 0.3, 0.3},
		Opacity:   1,
	}
}

// ParseRSW parses a map layout. Versions 1.2 through 2.6 are supported.
// The trailing quadtree of v2.1+ files is not read.
func ParseRSW(data []byte) (*RSW, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSWData
	}
	if string(data[:4]) != "GRSW" {
		return nil, ErrInvalidRSWMagic
	}

	rsw := &RSW{Version: RSWVersion{Major: data[4], Minor: data[5]}, Light: defaultRSWLight()}
	v := &rsw.Version
	if !v.AtLeast(1, 2) || v.AtLeast(2, 7) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSWVersion, v)
	}

	r := newReader(data[6:], ErrTruncatedRSWData)
	switch {
	case v.AtLeast(2, 5):
		v.BuildNumber = r.uint32()
		r.skip(1) // render flag
	case v.AtLeast(2, 2):
		var build uint8
		r.read(&build)
		v.BuildNumber = uint32(build)
	}

	rsw.IniFile = r.string(rswFileNameLen)
	rsw.GndFile = r.string(rswFileNameLen)
	if v.AtLeast(1, 4) {
		rsw.GatFile = r.string(rswFileNameLen)
	}
	rsw.SrcFile = r.string(rswFileNameLen)

	if v.AtLeast(1, 3) && !v.AtLeast(2, 6) {
		r.read(&rsw.Water.Level)
		if v.AtLeast(1, 8) {
			r.read(&rsw.Water.Type)
			r.read(&rsw.Water.WaveHeight)
			r.read(&rsw.Water.WaveSpeed)
			r.read(&rsw.Water.WavePitch)
		}
		if v.AtLeast(1, 9) {
			r.read(&rsw.Water.AnimSpeed)
		}
	}

	if v.AtLeast(1, 5) {
		r.read(&rsw.Light.Longitude)
		r.read(&rsw.Light.Latitude)
		r.read(&rsw.Light.Diffuse)
		r.read(&rsw.Light.Ambient)
		if v.AtLeast(1, 7) {
			r.read(&rsw.Light.Opacity)
		}
	}

	if v.AtLeast(1, 6) {
		r.read(&rsw.Ground)
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading header: %w", r.err)
	}

	count := r.count("objects", maxRSWObjects)
	for i := 0; i < count; i++ {
		if err := rsw.parseObject(r); err != nil {
			return nil, fmt.Errorf("parsing object %d: %w", i, err)
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("reading objects: %w", r.err)
	}
	return rsw, nil
}

func (rsw *RSW) parseObject(r *reader) error {
	typ := RSWObjectType(r.int32())
	if r.err != nil {
		return r.err
	}

	switch typ {
	case RSWObjectModel:
		var m RSWModel
		if rsw.Version.AtLeast(1, 3) {
			m.Name = r.string(rswObjectName)
			r.read(&m.AnimType)
			r.read(&m.AnimSpeed)
			r.read(&m.BlockType)
		}
		if rsw.Version.AtLeast(2, 6) && rsw.Version.BuildNumber >= 162 {
			r.skip(1)
		}
		m.ModelName = r.string(rswResourceName)
		m.NodeName = r.string(rswResourceName)
		r.read(&m.Position)
		r.read(&m.Rotation)
		r.read(&m.Scale)
		rsw.Models = append(rsw.Models, m)

	case RSWObjectLight:
		var l RSWLightSource
		l.Name = r.string(rswResourceName)
		r.read(&l.Position)
		r.read(&l.Color)
		r.read(&l.Range)
		rsw.Lights = append(rsw.Lights, l)

	case RSWObjectSound:
		var s RSWSound
		s.Name = r.string(rswResourceName)
		s.File = r.string(rswResourceName)
		r.read(&s.Position)
		r.skip(16) // volume, width, height, range
		if rsw.Version.AtLeast(2, 0) {
			r.skip(4) // cycle
		}
		rsw.Sounds = append(rsw.Sounds, s)

	case RSWObjectEffect:
		var e RSWEffect
		e.Name = r.string(rswResourceName)
		r.read(&e.Position)
		r.read(&e.EffectID)
		r.skip(4 + 16) // delay, params
		rsw.Effects = append(rsw.Effects, e)

	default:
		return fmt.Errorf("%w: %d", ErrUnknownObjectType, typ)
	}
	return r.err
}

// ParseRSWFS parses a map layout from a file system such as a GRF archive.
func ParseRSWFS(fsys fs.FS, name string) (*RSW, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading RSW file: %w", err)
	}
	return ParseRSW(data)
}

package splat

import (
	"fmt"
	"strings"

	"github.com/Faultbox/splatgen/pkg/math"
)

// Axis is one of the six signed principal directions.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisNegX
	AxisNegY
	AxisNegZ
)

var axisNames = [...]string{"X", "Y", "Z", "-X", "-Y", "-Z"}

// String returns the axis name, e.g. "-Y".
func (a Axis) String() string {
	if a < 0 || int(a) >= len(axisNames) {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axisNames[a]
}

// Vec returns the unit vector of the axis.
func (a Axis) Vec() math.Vec3 {
	switch a {
	case AxisX:
		return math.Vec3{X: 1}
	case AxisY:
		return math.Vec3{Y: 1}
	case AxisZ:
		return math.Vec3{Z: 1}
	case AxisNegX:
		return math.Vec3{X: -1}
	case AxisNegY:
		return math.Vec3{Y: -1}
	default:
		return math.Vec3{Z: -1}
	}
}

// ParseAxis parses "X", "+x", "-Z" and the like.
func ParseAxis(s string) (Axis, error) {
	name := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	for i, n := range axisNames {
		if n == name {
			return Axis(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown axis %q", ErrInvalidAxisConfig, s)
}

// Axes is a forward/up basis.
type Axes struct {
	Forward Axis
	Up      Axis
}

// SourceAxes is the fixed basis meshes arrive in.
var SourceAxes = Axes{Forward: AxisNegY, Up: AxisZ}

// Validate rejects parallel and anti-parallel forward/up pairs.
func (a Axes) Validate() error {
	if a.Forward < AxisX || a.Forward > AxisNegZ || a.Up < AxisX || a.Up > AxisNegZ {
		return fmt.Errorf("%w: axis out of range", ErrInvalidAxisConfig)
	}
	if a.Forward%3 == a.Up%3 {
		return fmt.Errorf("%w: forward %s and up %s are parallel", ErrInvalidAxisConfig, a.Forward, a.Up)
	}
	return nil
}

// basis has columns (right, forward, up) with right = forward x up, so it
// is always a proper rotation.
func (a Axes) basis() math.Mat4 {
	f, u := a.Forward.Vec(), a.Up.Vec()
	return math.FromColumns(f.Cross(u), f, u)
}

// AxisConversion returns the transform taking SourceAxes to target: the
// source forward maps onto target forward and source up onto target up.
func AxisConversion(target Axes) (math.Mat4, error) {
	if err := target.Validate(); err != nil {
		return math.Mat4{}, err
	}
	return target.basis().Mul(SourceAxes.basis().Transpose()), nil
}

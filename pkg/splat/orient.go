package splat

import (
	gomath "math"

	"github.com/Faultbox/splatgen/pkg/math"
)

// ReferenceAxis is the canonical splat axis aligned with the surface normal.
var ReferenceAxis = math.Vec3{Z: 1}

// parallelTolerance is the |dot| above which a normal counts as parallel to
// ReferenceAxis.
const parallelTolerance = 0.999

// Orient returns the unit quaternion rotating ReferenceAxis onto normal.
// Normals (anti-)parallel to the reference, and zero normals, give identity.
func Orient(normal math.Vec3) math.Quat {
	n := normal.Normalize()
	if n == (math.Vec3{}) {
		return math.QuatIdentity()
	}
	dot := ReferenceAxis.Dot(n)
	if gomath.Abs(dot) > parallelTolerance {
		return math.QuatIdentity()
	}
	axis := ReferenceAxis.Cross(n).Normalize()
	angle := gomath.Acos(dot)
	return math.QuatFromAxisAngle(axis, angle)
}

package splat

import (
	gomath "math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/Faultbox/splatgen/pkg/math"
)

// ScaleEstimator derives splat radii from vertex spacing. The KD-tree is
// built once per mesh and only queried afterwards.
type ScaleEstimator struct {
	tree       *kdtree.Tree
	auto       bool
	multiplier float64
}

// NewScaleEstimator indexes points when auto is set. With auto unset every
// estimate is the clamped multiplier.
func NewScaleEstimator(points []math.Vec3, auto bool, multiplier float64) *ScaleEstimator {
	e := &ScaleEstimator{auto: auto, multiplier: multiplier}
	if auto && len(points) > 0 {
		pts := make(kdtree.Points, len(points))
		for i, p := range points {
			pts[i] = kdtree.Point{p.X, p.Y, p.Z}
		}
		e.tree = kdtree.New(pts, false)
	}
	return e
}

// ForVertex estimates the radius at a mesh vertex from the distance to its
// nearest other vertex. The first hit is the vertex itself.
func (e *ScaleEstimator) ForVertex(p math.Vec3) float64 {
	return e.estimate(p, 2)
}

// ForSurface estimates the radius at a surface point from the distance to
// the nearest vertex.
func (e *ScaleEstimator) ForSurface(p math.Vec3) float64 {
	return e.estimate(p, 1)
}

func (e *ScaleEstimator) estimate(p math.Vec3, k int) float64 {
	if !e.auto {
		return ClampScale(e.multiplier)
	}
	spacing := gomath.NaN()
	if d := e.nearest(p, k); len(d) >= k {
		spacing = d[k-1]
	}
	return ClampScale(ClampScale(spacing) * e.multiplier)
}

// nearest returns up to k neighbor distances in ascending order.
func (e *ScaleEstimator) nearest(p math.Vec3, k int) []float64 {
	if e.tree == nil {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	e.tree.NearestSet(keep, kdtree.Point{p.X, p.Y, p.Z})

	dists := make([]float64, 0, k)
	for _, c := range keep.Heap {
		// Unfilled slots keep the keeper's sentinel.
		if c.Comparable == nil {
			continue
		}
		// Point distances are squared.
		dists = append(dists, gomath.Sqrt(c.Dist))
	}
	sort.Float64s(dists)
	return dists
}

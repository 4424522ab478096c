package splat

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

func unitTriangle() *mesh.Mesh {
	return &mesh.Mesh{
		Name:      "tri",
		World:     math.Identity(),
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Faces:     [][]int{{0, 1, 2}},
	}
}

// strip returns n unit squares along X, each split into two triangles.
func strip(n int) *mesh.Mesh {
	m := &mesh.Mesh{Name: "strip", World: math.Identity()}
	for i := 0; i <= n; i++ {
		x := float64(i)
		m.Positions = append(m.Positions, math.Vec3{X: x}, math.Vec3{X: x, Y: 1})
	}
	for i := 0; i < n; i++ {
		a, b, c, d := 2*i, 2*i+2, 2*i+3, 2*i+1
		m.Faces = append(m.Faces, []int{a, b, c}, []int{a, c, d})
	}
	return m
}

func TestSampleVerticesCount(t *testing.T) {
	m := strip(3)
	for _, useNormals := range []bool{true, false} {
		samples := SampleVertices(m, math.Identity(), useNormals)
		if len(samples) != len(m.Positions) {
			t.Fatalf("got %d samples, want %d", len(samples), len(m.Positions))
		}
		for i, s := range samples {
			if s.Vertex != i || s.Face != -1 {
				t.Errorf("sample %d references vertex %d face %d", i, s.Vertex, s.Face)
			}
			if s.Normal != (math.Vec3{Z: 1}) {
				t.Errorf("sample %d normal %v, want +Z", i, s.Normal)
			}
		}
	}
}

func TestSampleVerticesUsesProvidedNormals(t *testing.T) {
	m := unitTriangle()
	m.Normals = []math.Vec3{{X: 1}, {X: 1}, {X: 1}}
	// Rotating 90 degrees about Z turns +X into +Y.
	xform := math.RotateAxis(math.Vec3{Z: 1}, gomath.Pi/2)

	samples := SampleVertices(m, xform, true)
	for _, s := range samples {
		if !s.Normal.NearlyEqual(math.Vec3{Y: 1}, 1e-12) {
			t.Errorf("normal %v, want +Y", s.Normal)
		}
	}
	if !samples[1].Position.NearlyEqual(math.Vec3{Y: 1}, 1e-12) {
		t.Errorf("vertex 1 at %v, want (0,1,0)", samples[1].Position)
	}

	samples = SampleVertices(m, xform, false)
	if samples[0].Normal != (math.Vec3{Z: 1}) {
		t.Errorf("normals disabled: got %v, want +Z", samples[0].Normal)
	}
}

func TestSampleSurfaceLegacySequence(t *testing.T) {
	// Area 0.5 at density 4 gives a budget of two samples.
	samples := SampleSurface(unitTriangle(), math.Identity(), SurfaceOptions{Density: 4, UseNormals: true})
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	// i=0: r1=0, r2=0.
	if samples[0].Position != (math.Vec3{}) {
		t.Errorf("first sample %v, want origin", samples[0].Position)
	}
	// i=1: r1=frac(sqrt(0.1)), r2=0.7, reflected because r1+r2 > 1.
	want := math.Vec3{X: 1 - gomath.Sqrt(0.1), Y: 0.3}
	if !samples[1].Position.NearlyEqual(want, 1e-12) {
		t.Errorf("second sample %v, want %v", samples[1].Position, want)
	}
	for _, s := range samples {
		if s.Face != 0 || s.Vertex != -1 {
			t.Errorf("sample references face %d vertex %d", s.Face, s.Vertex)
		}
		if !s.Normal.NearlyEqual(math.Vec3{Z: 1}, 1e-12) {
			t.Errorf("normal %v, want +Z", s.Normal)
		}
	}
}

func TestSampleSurfaceDependsOnFrame(t *testing.T) {
	opts := SurfaceOptions{Density: 40}
	a := SampleSurface(unitTriangle(), math.Identity(), opts)
	b := SampleSurface(unitTriangle(), math.Identity(), opts)
	opts.Frame = 100
	c := SampleSurface(unitTriangle(), math.Identity(), opts)

	if len(a) != len(b) || len(a) != len(c) {
		t.Fatalf("counts differ: %d %d %d", len(a), len(b), len(c))
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between identical runs", i)
		}
		if a[i].Position != c[i].Position {
			same = false
		}
	}
	if same {
		t.Error("changing the frame did not change the sample positions")
	}
}

func TestSampleSurfaceRandomSequenceReproducible(t *testing.T) {
	opts := SurfaceOptions{Density: 50, Sequence: SequenceRandom, Seed: 7, Frame: 3}
	a := SampleSurface(strip(2), math.Identity(), opts)
	b := SampleSurface(strip(2), math.Identity(), opts)
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("counts %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between runs with the same seed", i)
		}
	}
}

func TestSampleSurfaceStaysInsideTriangle(t *testing.T) {
	for _, seq := range []Sequence{SequenceLegacy, SequenceRandom} {
		samples := SampleSurface(unitTriangle(), math.Identity(), SurfaceOptions{Density: 500, Sequence: seq})
		if len(samples) != 250 {
			t.Fatalf("%s: got %d samples, want 250", seq, len(samples))
		}
		for _, s := range samples {
			p := s.Position
			if p.X < -1e-12 || p.Y < -1e-12 || p.X+p.Y > 1+1e-12 || p.Z != 0 {
				t.Fatalf("%s: sample %v outside the triangle", seq, p)
			}
		}
	}
}

func TestSampleSurfaceQuadUsesFirstThreeVertices(t *testing.T) {
	quad := &mesh.Mesh{
		World:     math.Identity(),
		Positions: []math.Vec3{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
		Faces:     [][]int{{0, 1, 2, 3}},
	}
	samples := SampleSurface(quad, math.Identity(), SurfaceOptions{Density: 100})
	// The quad's full area sets the budget.
	if len(samples) != 100 {
		t.Fatalf("got %d samples, want 100", len(samples))
	}
	for _, s := range samples {
		if s.Position.Y > s.Position.X+1e-12 {
			t.Fatalf("sample %v outside triangle (0,1,2)", s.Position)
		}
	}
}

func TestSampleSurfacePerFaceFloor(t *testing.T) {
	m := strip(4) // 8 faces of area 0.5
	density := 1.0
	samples := SampleSurface(m, math.Identity(), SurfaceOptions{Density: density})

	perFace := make(map[int]int)
	for _, s := range samples {
		perFace[s.Face]++
	}
	if len(perFace) != len(m.Faces) {
		t.Errorf("%d faces received samples, want %d", len(perFace), len(m.Faces))
	}
	budget := int(gomath.Floor(4 * density))
	if len(samples) < budget {
		t.Errorf("got %d samples, want at least the budget %d", len(samples), budget)
	}
	if len(samples) != 8 {
		t.Errorf("got %d samples, want 8 (one per face)", len(samples))
	}
}

func TestSampleSurfaceZeroArea(t *testing.T) {
	flat := &mesh.Mesh{
		World:     math.Identity(),
		Positions: []math.Vec3{{}, {X: 1}, {X: 2}},
		Faces:     [][]int{{0, 1, 2}},
	}
	if got := SampleSurface(flat, math.Identity(), SurfaceOptions{Density: 100}); len(got) != 0 {
		t.Errorf("zero-area mesh produced %d samples", len(got))
	}

	m := unitTriangle()
	m.Positions = append(m.Positions, math.Vec3{X: 2}, math.Vec3{X: 3})
	m.Faces = append(m.Faces, []int{1, 3, 4}, []int{0, 1}, []int{0, 1, 9})
	samples := SampleSurface(m, math.Identity(), SurfaceOptions{Density: 10})
	if len(samples) == 0 {
		t.Fatal("no samples on the valid face")
	}
	for _, s := range samples {
		if s.Face != 0 {
			t.Errorf("degenerate face %d received a sample", s.Face)
		}
	}
}

func TestSampleSurfaceMirroredNormal(t *testing.T) {
	samples := SampleSurface(unitTriangle(), math.Scale(1, 1, -1), SurfaceOptions{Density: 2, UseNormals: true})
	if len(samples) == 0 {
		t.Fatal("no samples")
	}
	if !samples[0].Normal.NearlyEqual(math.Vec3{Z: -1}, 1e-12) {
		t.Errorf("mirrored normal %v, want -Z", samples[0].Normal)
	}
}

func TestSampleSurfaceWorldArea(t *testing.T) {
	// Scaling by 2 quadruples the area and so the budget.
	samples := SampleSurface(unitTriangle(), math.Scale(2, 2, 2), SurfaceOptions{Density: 4})
	if len(samples) != 8 {
		t.Errorf("got %d samples, want 8", len(samples))
	}
}

package splat

import (
	"errors"
	"math"
	"testing"

	vmath "github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

func triangleScene() *mesh.Scene {
	return &mesh.Scene{Meshes: []*mesh.Mesh{{
		Name:      "tri",
		World:     vmath.Identity(),
		Positions: []vmath.Vec3{{}, {X: 1}, {Y: 1}},
		Faces:     [][]int{{0, 1, 2}},
	}}}
}

func TestGenerateVertexMode(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeVertex

	res, err := Generate(triangleScene(), opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}

	wantColor := PackColor(1)
	for i, r := range res.Records {
		p := r.Packed()
		if r.Rotation != vmath.QuatIdentity() {
			t.Errorf("record %d rotation %v, want identity", i, r.Rotation)
		}
		if math.Abs(p[3]) > 1e-12 {
			t.Errorf("record %d log scale %v, want 0 for unit spacing", i, p[3])
		}
		for c := 4; c < 7; c++ {
			if math.Abs(p[c]-wantColor) > 1e-12 {
				t.Errorf("record %d f_dc[%d] = %v, want %v", i, c-4, p[c], wantColor)
			}
		}
		if p[7] != OpacityLimit {
			t.Errorf("record %d opacity %v, want %v", i, p[7], OpacityLimit)
		}
	}

	if len(res.Meshes) != 1 {
		t.Fatalf("got %d mesh stats", len(res.Meshes))
	}
	st := res.Meshes[0]
	if st.Name != "tri" || st.Vertices != 3 || st.Faces != 1 || st.Samples != 3 {
		t.Errorf("stats %+v", st)
	}
}

func TestGenerateSurfaceMode(t *testing.T) {
	scene := triangleScene()
	scene.Meshes[0].World = vmath.Translate(10, 0, 0)
	scene.Frame = 5

	opts := DefaultOptions()
	opts.Density = 20
	res, err := Generate(scene, opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Frame != 5 {
		t.Errorf("Frame = %d, want 5", res.Frame)
	}
	if len(res.Records) != 10 {
		t.Fatalf("got %d records, want 10", len(res.Records))
	}
	for _, r := range res.Records {
		if r.Position.X < 10 || r.Position.X > 11 {
			t.Errorf("record at %v ignores the world transform", r.Position)
		}
		if r.LogScale > 0 {
			t.Errorf("log scale %v exceeds the vertex spacing", r.LogScale)
		}
	}
}

func TestGenerateMultipleMeshesConcatenate(t *testing.T) {
	scene := triangleScene()
	second := *scene.Meshes[0]
	second.Name = "copy"
	scene.Meshes = append(scene.Meshes, nil, &second)

	opts := DefaultOptions()
	opts.Mode = ModeVertex
	res, err := Generate(scene, opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Records) != 6 || len(res.Meshes) != 2 {
		t.Errorf("got %d records over %d meshes", len(res.Records), len(res.Meshes))
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(nil, DefaultOptions()); !errors.Is(err, ErrNoInputGeometry) {
		t.Errorf("nil scene: %v", err)
	}
	if _, err := Generate(&mesh.Scene{}, DefaultOptions()); !errors.Is(err, ErrNoInputGeometry) {
		t.Errorf("empty scene: %v", err)
	}

	opts := DefaultOptions()
	opts.Axes = Axes{Forward: AxisZ, Up: AxisNegZ}
	if _, err := Generate(triangleScene(), opts); !errors.Is(err, ErrInvalidAxisConfig) {
		t.Errorf("parallel axes: %v", err)
	}
}

func TestGenerateAxisRemap(t *testing.T) {
	scene := &mesh.Scene{Meshes: []*mesh.Mesh{{
		World:     vmath.Identity(),
		Positions: []vmath.Vec3{{Z: 1}},
	}}}
	opts := DefaultOptions()
	opts.Mode = ModeVertex
	opts.Axes = Axes{Forward: AxisNegZ, Up: AxisY}

	res, err := Generate(scene, opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("got %d records", len(res.Records))
	}
	if got := res.Records[0].Position; !got.NearlyEqual(vmath.Vec3{Y: 1}, 1e-12) {
		t.Errorf("up point maps to %v, want (0,1,0)", got)
	}
}

func TestGenerateOrientationFollowsNormal(t *testing.T) {
	// A wall in the XZ plane faces -Y.
	scene := &mesh.Scene{Meshes: []*mesh.Mesh{{
		World:     vmath.Identity(),
		Positions: []vmath.Vec3{{}, {X: 1}, {X: 1, Z: 1}},
		Faces:     [][]int{{0, 1, 2}},
	}}}
	opts := DefaultOptions()
	opts.Density = 10

	res, err := Generate(scene, opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, r := range res.Records {
		got := r.Rotation.Rotate(ReferenceAxis)
		if !got.NearlyEqual(vmath.Vec3{Y: -1}, 1e-9) {
			t.Fatalf("rotated reference %v, want (0,-1,0)", got)
		}
	}

	opts.UseNormals = false
	res, _ = Generate(scene, opts)
	if res.Records[0].Rotation != vmath.QuatIdentity() {
		t.Errorf("normals disabled: rotation %v, want identity", res.Records[0].Rotation)
	}
}

func TestParseModeAndSequence(t *testing.T) {
	if m, err := ParseMode("Vertex"); err != nil || m != ModeVertex {
		t.Errorf("ParseMode(Vertex) = %v, %v", m, err)
	}
	if m, err := ParseMode("surface"); err != nil || m != ModeSurface {
		t.Errorf("ParseMode(surface) = %v, %v", m, err)
	}
	if _, err := ParseMode("volume"); err == nil {
		t.Error("ParseMode(volume) succeeded")
	}
	if s, err := ParseSequence("random"); err != nil || s != SequenceRandom {
		t.Errorf("ParseSequence(random) = %v, %v", s, err)
	}
	if s, err := ParseSequence(""); err != nil || s != SequenceLegacy {
		t.Errorf("ParseSequence(\"\") = %v, %v", s, err)
	}
}

package shader

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func typeOf(uniform string) string {
	switch uniform {
	case UniformTime:
		return "float"
	case UniformMouse, UniformViewport:
		return "vec2"
	default:
		return "mat4"
	}
}

func TestSourcesDeclareInterface(t *testing.T) {
	for _, name := range []string{UniformTime, UniformMouse, UniformModelView, UniformProjection, UniformViewport} {
		if !strings.Contains(VertexGLSL, "uniform "+typeOf(name)+" "+name+";") {
			t.Errorf("vertex source missing uniform %q", name)
		}
	}
	for _, name := range []string{AttribCorner, AttribPosition, AttribColor, AttribSize} {
		if !strings.Contains(VertexGLSL, " "+name+";") {
			t.Errorf("vertex source missing attribute %q", name)
		}
	}
	if !strings.Contains(FragmentGLSL, "discard") {
		t.Error("fragment source must discard outside the sprite circle")
	}
	if !strings.Contains(string(FragmentKage), "func Fragment") {
		t.Error("kage source must define Fragment")
	}
}

func TestDisplaceDrift(t *testing.T) {
	base := mgl32.Vec3{10, 20, 30}
	var time float32 = 5000

	got := Displace(base, time, mgl32.Vec2{})

	wantY := base[1] + float32(math.Sin(float64(time*0.001+base[0]*0.01)))*2
	wantX := base[0] + float32(math.Cos(float64(time*0.0015+base[2]*0.01)))*1.5
	if !near(got[0], wantX) || !near(got[1], wantY) {
		t.Errorf("expected (%f, %f), got (%f, %f)", wantX, wantY, got[0], got[1])
	}
	if got[2] != base[2] {
		t.Errorf("z must not move, got %f", got[2])
	}
}

func TestDisplacePointerPullIsBounded(t *testing.T) {
	mice := []mgl32.Vec2{{1, 1}, {-1, 1}, {0.3, -0.7}, {1, -1}}
	bases := []mgl32.Vec3{{0, 0, 0}, {0.1, 0.1, 5}, {40, -20, 10}, {-59, 3, 2}}

	for _, m := range mice {
		for _, b := range bases {
			still := Displace(b, 0, mgl32.Vec2{})
			pulled := Displace(b, 0, m)
			shift := mgl32.Vec2{pulled[0] - still[0], pulled[1] - still[1]}

			// Denominator is at least 1, so the shift never exceeds the influence
			if shift.Len() > m.Mul(MouseScale).Len()+1e-6 {
				t.Errorf("pull %v at %v exceeds influence: %f", m, b, shift.Len())
			}
		}
	}
}

func TestPointSizePerspective(t *testing.T) {
	if got := PointSize(2, -30); !near(got, 20) {
		t.Errorf("expected 20px at depth 30, got %f", got)
	}
	if PointSize(2, -60) >= PointSize(2, -30) {
		t.Error("farther particles must render smaller")
	}
}

func TestFragment(t *testing.T) {
	color := mgl32.Vec3{0.2, 0.8, 1.0}

	rgb, alpha, ok := Fragment(color, mgl32.Vec2{})
	if !ok {
		t.Fatal("center fragment discarded")
	}
	if !near(alpha, 0.8) {
		t.Errorf("expected center alpha 0.8, got %f", alpha)
	}
	if !near(rgb[0], 0.6) || !near(rgb[1], 2.4) || !near(rgb[2], 3.0) {
		t.Errorf("expected tripled color at center, got %v", rgb)
	}

	// Parabolic falloff
	_, alpha, ok = Fragment(color, mgl32.Vec2{0.25, 0})
	if !ok || !near(alpha, 0.25*0.8) {
		t.Errorf("expected alpha 0.2 at half radius, got %f (ok=%v)", alpha, ok)
	}

	// Rim survives with zero alpha, corners are discarded
	if _, alpha, ok = Fragment(color, mgl32.Vec2{0.5, 0}); !ok || alpha != 0 {
		t.Errorf("rim: expected kept with alpha 0, got %f (ok=%v)", alpha, ok)
	}
	if _, _, ok = Fragment(color, mgl32.Vec2{0.5, 0.5}); ok {
		t.Error("corner fragment must be discarded")
	}
}

func TestBlendIsAdditive(t *testing.T) {
	rgb, alpha, _ := Fragment(mgl32.Vec3{1, 0.2, 0.8}, mgl32.Vec2{0.1, 0})

	once := Blend(mgl32.Vec3{}, rgb, alpha)
	twice := Blend(once, rgb, alpha)

	for i := 0; i < 3; i++ {
		if !near(twice[i], 2*once[i]) {
			t.Errorf("channel %d: overlap should double, got %f vs %f", i, twice[i], once[i])
		}
	}
}

func BenchmarkDisplace(b *testing.B) {
	base := mgl32.Vec3{12, -7, 33}
	mouse := mgl32.Vec2{0.4, -0.2}
	for i := 0; i < b.N; i++ {
		_ = Displace(base, float32(i), mouse)
	}
}

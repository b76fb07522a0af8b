package rlgl

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/glowfield/gfx"
	"github.com/pthm-cable/glowfield/shader"
)

func TestToMatrixKeepsTranslation(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	got := toMatrix(m)

	if got.M12 != 1 || got.M13 != 2 || got.M14 != 3 || got.M15 != 1 {
		t.Errorf("translation lost: %+v", got)
	}
	if got.M0 != 1 || got.M5 != 1 || got.M10 != 1 {
		t.Errorf("diagonal lost: %+v", got)
	}
}

func TestFlattenCorners(t *testing.T) {
	got := flattenCorners()
	if len(got) != 2*len(shader.QuadCorners) {
		t.Fatalf("expected %d floats, got %d", 2*len(shader.QuadCorners), len(got))
	}
	for i, c := range shader.QuadCorners {
		if got[2*i] != c[0] || got[2*i+1] != c[1] {
			t.Errorf("corner %d: expected %v, got (%v, %v)", i, c, got[2*i], got[2*i+1])
		}
	}
}

func TestBlendMode(t *testing.T) {
	if blendMode(gfx.BlendAdditive) != rl.BlendAdditive {
		t.Error("additive blend not mapped")
	}
}

func TestDisposeUnknownHandle(t *testing.T) {
	b := New()
	b.Dispose(gfx.Handle{Kind: gfx.KindBuffer, ID: 7})
	b.Dispose(gfx.Handle{Kind: gfx.KindProgram, ID: 7})
	b.Dispose(gfx.Handle{})
}

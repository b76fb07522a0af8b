// Package shader holds the particle program sources and a CPU rendition of
// both stages. The CPU stages are used by backends that project on the host
// and by tests that pin the numeric behavior of the GPU program.
package shader

import (
	_ "embed"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

//go:embed particle.vs
var VertexGLSL string

//go:embed particle.fs
var FragmentGLSL string

//go:embed particle.kage
var FragmentKage []byte

// Uniform names shared by every backend.
const (
	UniformTime       = "time"
	UniformMouse      = "mouse"
	UniformModelView  = "modelViewMatrix"
	UniformProjection = "projectionMatrix"
	UniformViewport   = "viewport"
)

// Attribute names.
const (
	AttribCorner   = "corner"
	AttribPosition = "position"
	AttribColor    = "color"
	AttribSize     = "size"
)

// Vertex stage constants.
const (
	DriftFreqY     = 0.001
	DriftFreqX     = 0.0015
	DriftPhase     = 0.01
	DriftAmpY      = 2.0
	DriftAmpX      = 1.5
	MouseScale     = 0.1
	PointSizeScale = 300.0
)

// Fragment stage constants.
const (
	SpriteRadius = 0.5
	GlowGain     = 2.0
	AlphaScale   = 0.8
)

// QuadCorners lists the sprite corners as two triangles.
var QuadCorners = [6][2]float32{
	{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5},
	{-0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5},
}

func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }

// Displace applies the object-space part of the vertex stage: drift over
// time and the distance-attenuated pull toward the pointer.
func Displace(base mgl32.Vec3, time float32, mouse mgl32.Vec2) mgl32.Vec3 {
	pos := base

	pos[1] += sin32(time*DriftFreqY+base[0]*DriftPhase) * DriftAmpY
	pos[0] += cos32(time*DriftFreqX+base[2]*DriftPhase) * DriftAmpX

	influence := mouse.Mul(MouseScale)
	d := mgl32.Vec2{pos[0] - influence[0], pos[1] - influence[1]}
	k := 1.0 / (d.Len() + 1.0)
	pos[0] += influence[0] * k
	pos[1] += influence[1] * k

	return pos
}

// PointSize returns the sprite size in pixels for a view-space depth.
// viewZ is negative in front of the camera.
func PointSize(size, viewZ float32) float32 {
	return size * (PointSizeScale / -viewZ)
}

// Fragment shades one sprite fragment. coord is the fragment position
// relative to the sprite center in [-0.5, 0.5]. ok is false when the
// fragment is discarded.
func Fragment(color mgl32.Vec3, coord mgl32.Vec2) (rgb mgl32.Vec3, alpha float32, ok bool) {
	dist := coord.Len()
	if dist > SpriteRadius {
		return mgl32.Vec3{}, 0, false
	}

	a := 1 - dist*2
	a *= a

	rgb = color.Mul(1 + a*GlowGain)
	return rgb, a * AlphaScale, true
}

// Blend composites a shaded fragment onto dst with additive blending
// (source weighted by its alpha, destination kept at full weight).
func Blend(dst, rgb mgl32.Vec3, alpha float32) mgl32.Vec3 {
	return dst.Add(rgb.Mul(alpha))
}

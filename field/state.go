package field

import "github.com/go-gl/mathgl/mgl32"

// Per-frame rotation increments of the whole cloud, in radians.
const (
	YawStep   = 0.001
	PitchStep = 0.0005
)

// Rotation is the accumulated rigid rotation of the cloud.
type Rotation struct {
	Yaw, Pitch float64
}

// State is the mutable field state shared by the frame loop and the input
// bridge. It is owned by one Renderer and lives exactly as long as it.
type State struct {
	TimeMs   float64    // Host time of the last frame; never decreases
	Pointer  mgl32.Vec2 // Last pointer position in NDC
	Rotation Rotation
	Aspect   float32 // Viewport width / height
	Frames   int64
}

// advance moves the state to the frame at host time nowMs.
func (s *State) advance(nowMs float64) {
	if nowMs > s.TimeMs {
		s.TimeMs = nowMs
	}
	s.Rotation.Yaw += YawStep
	s.Rotation.Pitch += PitchStep
	s.Frames++
}

// Shader debug tool - renders one frame of the particle field to a PNG file
// for inspection.
//
// Usage: go run ./cmd/shaderdebug -time 1500 -mouse-x 0.5 -out debug.png
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/glowfield/camera"
	"github.com/pthm-cable/glowfield/field"
	"github.com/pthm-cable/glowfield/gfx"
	"github.com/pthm-cable/glowfield/gfx/rlgl"
	"github.com/pthm-cable/glowfield/shader"
)

func main() {
	outPath := flag.String("out", "debug.png", "Output PNG path")
	width := flag.Int("width", 800, "Render width")
	height := flag.Int("height", 600, "Render height")
	particles := flag.Int("particles", field.DefaultParticleCount, "Particle count")
	seed := flag.Int64("seed", 1, "RNG seed")
	timeMs := flag.Float64("time", 0, "Shader time in ms")
	yaw := flag.Float64("yaw", 0, "Cloud yaw in radians")
	pitch := flag.Float64("pitch", 0, "Cloud pitch in radians")
	mouseX := flag.Float64("mouse-x", 0, "Pointer x in NDC")
	mouseY := flag.Float64("mouse-y", 0, "Pointer y in NDC")
	flag.Parse()

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(*width), int32(*height), "Shader Debug")
	defer rl.CloseWindow()

	gpu := rlgl.New()
	program, err := gpu.CompileProgram(gfx.ProgramSource{
		VertexGLSL:   shader.VertexGLSL,
		FragmentGLSL: shader.FragmentGLSL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compile shader: %v\n", err)
		os.Exit(1)
	}
	defer gpu.Dispose(program)

	attrs := field.Generate(*particles, rand.New(rand.NewSource(*seed)))
	call := gfx.DrawCall{Program: program, Count: attrs.Len(), Blend: gfx.BlendAdditive}
	for _, b := range []struct {
		dst  *gfx.Handle
		spec gfx.BufferSpec
	}{
		{&call.Position, gfx.BufferSpec{Name: shader.AttribPosition, Components: 3, Data: attrs.Positions}},
		{&call.Color, gfx.BufferSpec{Name: shader.AttribColor, Components: 3, Data: attrs.Colors}},
		{&call.Size, gfx.BufferSpec{Name: shader.AttribSize, Components: 1, Data: attrs.Sizes}},
	} {
		h, err := gpu.AllocateBuffer(b.spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to upload %s: %v\n", b.spec.Name, err)
			os.Exit(1)
		}
		defer gpu.Dispose(h)
		*b.dst = h
	}

	cam := camera.New(float32(*width), float32(*height), camera.DefaultConfig())
	call.Uniforms = gfx.Uniforms{
		Time:       float32(*timeMs),
		Mouse:      mgl32.Vec2{float32(*mouseX), float32(*mouseY)},
		ModelView:  cam.ModelView(*yaw, *pitch),
		Projection: cam.Projection(),
		Viewport:   mgl32.Vec2{float32(*width), float32(*height)},
	}

	// Create render texture
	target := rl.LoadRenderTexture(int32(*width), int32(*height))
	defer rl.UnloadRenderTexture(target)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	if err := gpu.Draw(call); err != nil {
		rl.EndTextureMode()
		fmt.Fprintf(os.Stderr, "Draw failed: %v\n", err)
		os.Exit(1)
	}
	rl.EndTextureMode()

	// Get image from texture and flip it (OpenGL convention)
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)

	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if success {
		fmt.Printf("Field rendered to: %s (%dx%d, %d particles)\n", *outPath, *width, *height, attrs.Len())
	} else {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
}

package field

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
)

// Distribution bounds of the particle cloud.
const (
	MinRadius   = 10.0
	RadiusRange = 50.0
	MaxRadius   = MinRadius + RadiusRange

	MinSize   = 1.0
	SizeRange = 3.0
	MaxSize   = MinSize + SizeRange // exclusive
)

// BasePosition is a particle's fixed position in object space.
type BasePosition struct {
	X, Y, Z float32
}

// Tint is a particle's fixed RGB color.
type Tint struct {
	R, G, B float32
}

// SpriteSize is a particle's base point-sprite scale.
type SpriteSize struct {
	Value float32
}

// Palette colors.
var (
	Cyan   = Tint{R: 0.2, G: 0.8, B: 1.0}
	Purple = Tint{R: 0.6, G: 0.2, B: 1.0}
	Pink   = Tint{R: 1.0, G: 0.2, B: 0.8}
)

// Palette lists the colors a particle can take, in draw order.
var Palette = [3]Tint{Cyan, Purple, Pink}

// paletteCutoffs are cumulative weights for Palette (0.3, 0.3, 0.4).
var paletteCutoffs = [2]float64{0.3, 0.6}

// pickTint maps a uniform draw in [0, 1) to a palette color.
func pickTint(c float64) Tint {
	switch {
	case c < paletteCutoffs[0]:
		return Cyan
	case c < paletteCutoffs[1]:
		return Purple
	default:
		return Pink
	}
}

// Particle is one unpacked entry of the attribute buffers.
type Particle struct {
	Position BasePosition
	Color    Tint
	Size     float32
}

// Radius returns the distance of the particle from the origin.
func (p Particle) Radius() float64 {
	x, y, z := float64(p.Position.X), float64(p.Position.Y), float64(p.Position.Z)
	return math.Sqrt(x*x + y*y + z*z)
}

// sampleParticle draws one particle. Spherical coordinates use
// phi = acos(2u-1) so points do not cluster at the poles.
func sampleParticle(rng *rand.Rand) Particle {
	radius := rng.Float64()*RadiusRange + MinRadius
	theta := rng.Float64() * 2 * math.Pi
	phi := math.Acos(rng.Float64()*2 - 1)

	sinPhi := math.Sin(phi)
	pos := BasePosition{
		X: float32(radius * sinPhi * math.Cos(theta)),
		Y: float32(radius * sinPhi * math.Sin(theta)),
		Z: float32(radius * math.Cos(phi)),
	}

	tint := pickTint(rng.Float64())

	size := float32(rng.Float64()*SizeRange + MinSize)
	if size >= MaxSize {
		// float32 rounding can land on the exclusive bound
		size = math.Nextafter32(MaxSize, 0)
	}

	return Particle{Position: pos, Color: tint, Size: size}
}

// Attributes holds the particles of one field. Each particle is an entity
// carrying BasePosition, Tint and SpriteSize; the entities are the
// authoritative records and live as long as the Attributes. The packed
// buffers hold 3 floats per particle for positions and colors and 1 for
// sizes, in entity creation order. Nothing is mutated after Generate.
type Attributes struct {
	Positions []float32
	Colors    []float32
	Sizes     []float32

	world    *ecs.World
	mapper   *ecs.Map3[BasePosition, Tint, SpriteSize]
	filter   *ecs.Filter3[BasePosition, Tint, SpriteSize]
	entities []ecs.Entity
}

// Len returns the number of particle entities in the world.
func (a *Attributes) Len() int {
	n := 0
	query := a.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Particle reads the components of particle i.
func (a *Attributes) Particle(i int) Particle {
	pos, tint, size := a.mapper.Get(a.entities[i])
	return Particle{Position: *pos, Color: *tint, Size: size.Value}
}

// World returns the ECS world holding the particle entities.
func (a *Attributes) World() *ecs.World {
	return a.world
}

// Generate creates n particles as entities in a fresh ECS world and packs
// their components into GPU-ready buffers.
func Generate(n int, rng *rand.Rand) *Attributes {
	world := ecs.NewWorld()
	a := &Attributes{
		world:    world,
		mapper:   ecs.NewMap3[BasePosition, Tint, SpriteSize](world),
		filter:   ecs.NewFilter3[BasePosition, Tint, SpriteSize](world),
		entities: make([]ecs.Entity, 0, n),
	}

	for i := 0; i < n; i++ {
		p := sampleParticle(rng)
		e := a.mapper.NewEntity(&p.Position, &p.Color, &SpriteSize{Value: p.Size})
		a.entities = append(a.entities, e)
	}

	a.pack()
	return a
}

// pack copies every particle entity into the flat attribute slices.
func (a *Attributes) pack() {
	n := len(a.entities)
	a.Positions = make([]float32, 0, n*3)
	a.Colors = make([]float32, 0, n*3)
	a.Sizes = make([]float32, 0, n)

	for _, e := range a.entities {
		pos, tint, size := a.mapper.Get(e)
		a.Positions = append(a.Positions, pos.X, pos.Y, pos.Z)
		a.Colors = append(a.Colors, tint.R, tint.G, tint.B)
		a.Sizes = append(a.Sizes, size.Value)
	}
}

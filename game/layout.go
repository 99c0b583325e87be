package game

import (
	"fmt"
	"math"
)

// World-setup collaborator: deterministic obstacle placement keyed by the
// match seed. Trees come from fractal-noise forests plus a few fixed
// landmarks; buildings cluster in villages on ground that is neither beach
// nor lagoon. The simulation core only consumes the resulting positions and
// radii; how these objects look is the client's business.

// noise2D implements 2D improved Perlin noise
func noise2D(x, y float64, seed int) float64 {
	// Deterministic pseudo-random number generator based on position and seed
	permute := func(i int) int {
		return ((i * 34) + seed*6547 + 12345) % 289
	}

	ix := int(math.Floor(x))
	iy := int(math.Floor(y))
	fx := x - float64(ix)
	fy := y - float64(iy)

	fade := func(t float64) float64 {
		return t * t * t * (t*(t*6-15) + 10)
	}

	a := permute(ix) + permute(iy)
	b := permute(ix+1) + permute(iy)
	c := permute(ix) + permute(iy+1)
	d := permute(ix+1) + permute(iy+1)

	getGrad := func(h int, x, y float64) float64 {
		h1 := h % 4
		var u, v float64
		if h1 < 2 {
			u, v = x, y
		} else {
			u, v = y, x
		}
		if h1&1 != 0 {
			u = -u
		}
		if h1&2 != 0 {
			v = -v * 2
		} else {
			v = v * 2
		}
		return u + v
	}

	ga := getGrad(a, fx, fy)
	gb := getGrad(b, fx-1, fy)
	gc := getGrad(c, fx, fy-1)
	gd := getGrad(d, fx-1, fy-1)

	u := fade(fx)
	v := fade(fy)

	result := (1-u)*((1-v)*ga+v*gc) + u*((1-v)*gb+v*gd)

	return (result + 1) * 0.5
}

// fbm implements Fractal Brownian Motion over noise2D
func fbm(x, y float64, octaves int, lacunarity, persistence float64, seed int) float64 {
	var total float64
	frequency := 0.02 // base frequency tuned to the island footprint
	amplitude := 1.0
	var maxValue float64

	for i := 0; i < octaves; i++ {
		total += noise2D(x*frequency, y*frequency, seed+i*1000) * amplitude
		maxValue += amplitude
		frequency *= lacunarity
		amplitude *= persistence
	}

	return total / maxValue
}

// layoutBuilder accumulates obstacles during world setup.
type layoutBuilder struct {
	field     *HeightField
	obstacles []*ObstacleState
	counter   int
}

// placeable rejects beach, lagoon and out-of-island ground.
func (b *layoutBuilder) placeable(x, z float64) bool {
	h := b.field.HeightAt(x, z)
	return h > beachLevel+0.1
}

func (b *layoutBuilder) add(kind ObstacleKind, x, z, scale, baseRadius float64, health int) {
	if !b.placeable(x, z) {
		return
	}
	b.counter++
	radius := baseRadius * scale
	b.obstacles = append(b.obstacles, &ObstacleState{
		ID:       fmt.Sprintf("%s_%d", kind, b.counter),
		Kind:     kind,
		Position: Position{X: x, Y: b.field.HeightAt(x, z), Z: z},
		Scale:    scale,
		Radius:   radius,
		Health:   health,
	})
}

func (b *layoutBuilder) addTree(scale, x, z float64) {
	b.add(ObstacleTree, x, z, scale, 1.0, 20)
}

func (b *layoutBuilder) addBuilding(scale, x, z float64) {
	b.add(ObstacleBuilding, x, z, scale, 2.2, 60)
}

// treeFromNoise places a tree where the combined noise bands exceed the
// density threshold, with scale varying deterministically by position.
func (b *layoutBuilder) treeFromNoise(x, z, densityThreshold float64, seed int) {
	biomeNoise := fbm(x, z, 3, 2.0, 0.5, seed+42)
	terrainNoise := fbm(x, z, 4, 2.0, 0.5, seed+123)
	detailNoise := fbm(x, z, 6, 2.2, 0.6, seed+987)

	combined := biomeNoise*0.4 + terrainNoise*0.4 + detailNoise*0.2
	if combined > densityThreshold {
		scale := 0.8 + fbm(x, z, 3, 2.0, 0.5, seed+555)*0.6
		b.addTree(scale, x, z)
	}
}

// villageAt rings a handful of buildings around a center.
func (b *layoutBuilder) villageAt(centerX, centerZ, radius float64, count int) {
	for i := 0; i < count; i++ {
		angle := float64(i) / float64(count) * math.Pi * 2
		x := centerX + math.Cos(angle)*radius
		z := centerZ + math.Sin(angle)*radius
		scale := 1.0 + (math.Sin(angle*3)+1)*0.25
		b.addBuilding(scale, x, z)
	}
}

// GenerateLayout builds the static obstacle set for a match. The same field
// (and therefore seed) always produces the same layout.
func GenerateLayout(field *HeightField) []*ObstacleState {
	b := &layoutBuilder{field: field}
	seed := int(field.Seed % 100000)
	half := field.Size / 2
	inner := half * islandFalloffStart

	// Forests across the island interior.
	step := field.Size / 48
	for x := -inner; x <= inner; x += step {
		for z := -inner; z <= inner; z += step {
			b.treeFromNoise(x, z, 0.58, seed)
		}
	}

	// Villages at seed-derived spots inside the island.
	for i := 0; i < 3; i++ {
		angle := hash01(field.Seed, 800+i) * 2 * math.Pi
		dist := (0.2 + 0.3*hash01(field.Seed, 900+i)) * half
		b.villageAt(math.Cos(angle)*dist, math.Sin(angle)*dist, 8+4*hash01(field.Seed, 1000+i), 5)
	}

	// A landmark ring of large trees near the center for orientation.
	for i := 0; i < 8; i++ {
		angle := float64(i) / 8.0 * math.Pi * 2
		b.addTree(2.0, math.Cos(angle)*inner*0.35, math.Sin(angle)*inner*0.35)
	}

	return b.obstacles
}

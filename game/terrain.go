package game

import (
	"math"
)

// HeightQueryMode selects how HeightAt maps world coordinates to samples.
// Nearest-sample lookup is the historical behavior and produces blocky
// contact response at low segment counts; bilinear is available as tuning.
type HeightQueryMode string

const (
	QueryNearest  HeightQueryMode = "nearest"
	QueryBilinear HeightQueryMode = "bilinear"
)

const (
	islandFalloffStart = 0.60 // fraction of field radius where the coast fade begins
	beachBandStart     = 0.82 // fraction of field radius where remaining elevation flattens
	beachLevel         = 0.35
	lagoonFloor        = 0.10
	lagoonInnerBound   = 0.70 // lagoon centers stay inside this fraction of the radius
	volcanoCount       = 2
	lagoonCount        = 3
	cliffThreshold     = 0.72
	cliffBaseline      = 3.0
	cliffRise          = 4.5
)

// HeightField is a seeded procedural heightmap. Samples are generated once at
// construction and afterwards only change through Deform, which may only
// lower them and never below zero.
type HeightField struct {
	Size     float64 // world-unit edge length, centered on the origin
	Segments int     // grid cells per edge
	Seed     int64

	cell    float64
	mode    HeightQueryMode
	heights [][]float64 // [gz][gx], (Segments+1)^2 samples
}

// NewHeightField generates the full grid for the given seed. Generation is
// deterministic: the same seed always yields the same field.
func NewHeightField(size float64, segments int, seed int64, mode HeightQueryMode) *HeightField {
	if segments < 1 {
		segments = 1
	}
	if mode != QueryBilinear {
		mode = QueryNearest
	}
	hf := &HeightField{
		Size:     size,
		Segments: segments,
		Seed:     seed,
		cell:     size / float64(segments),
		mode:     mode,
		heights:  make([][]float64, segments+1),
	}

	vol := volcanoFeatures(seed, size)
	lag := lagoonFeatures(seed, size)

	half := size / 2
	for gz := 0; gz <= segments; gz++ {
		hf.heights[gz] = make([]float64, segments+1)
		for gx := 0; gx <= segments; gx++ {
			x := -half + float64(gx)*hf.cell
			z := -half + float64(gz)*hf.cell
			hf.heights[gz][gx] = generateSample(x, z, seed, size, vol, lag)
		}
	}
	return hf
}

// coneFeature is a seed-derived volcanic cone or lagoon center.
type coneFeature struct {
	x, z   float64
	radius float64
	height float64
}

// hash01 is a cheap deterministic unit-interval hash, in the spirit of the
// permute-based noise the map generators use.
func hash01(seed int64, n int) float64 {
	v := math.Sin(float64(seed)*12.9898+float64(n)*78.233) * 43758.5453
	return v - math.Floor(v)
}

func volcanoFeatures(seed int64, size float64) []coneFeature {
	out := make([]coneFeature, 0, volcanoCount)
	for i := 0; i < volcanoCount; i++ {
		angle := hash01(seed, 100+i) * 2 * math.Pi
		dist := (0.15 + 0.30*hash01(seed, 200+i)) * size / 2
		out = append(out, coneFeature{
			x:      math.Cos(angle) * dist,
			z:      math.Sin(angle) * dist,
			radius: 12 + 8*hash01(seed, 300+i),
			height: 7 + 4*hash01(seed, 400+i),
		})
	}
	return out
}

func lagoonFeatures(seed int64, size float64) []coneFeature {
	out := make([]coneFeature, 0, lagoonCount)
	for i := 0; i < lagoonCount; i++ {
		angle := hash01(seed, 500+i) * 2 * math.Pi
		dist := hash01(seed, 600+i) * lagoonInnerBound * size / 2
		out = append(out, coneFeature{
			x:      math.Cos(angle) * dist,
			z:      math.Sin(angle) * dist,
			radius: 10 + 8*hash01(seed, 700+i),
		})
	}
	return out
}

func smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// generateSample builds one height sample: trigonometric octaves, island
// falloff and beach band, then the volcano / lagoon / cliff feature passes,
// clamped non-negative.
func generateSample(x, z float64, seed int64, size float64, vol, lag []coneFeature) float64 {
	s := float64(seed % 10007)

	base := 2.0
	mountain := 6.0 * math.Sin(x*0.018+s*1.3) * math.Cos(z*0.021+s*0.7)
	hill := 2.5 * math.Sin(x*0.045+s*2.1) * math.Cos(z*0.043+s*1.9)
	ridge := 1.8 * math.Sin((x+z)*0.07+s*0.5)
	detail := 0.7 * math.Sin(x*0.15+s*3.3) * math.Cos(z*0.17+s*2.7)
	micro := 0.25 * math.Sin(x*0.45+s*4.1) * math.Cos(z*0.47+s*5.3)

	h := base + mountain + hill + ridge + detail + micro

	// Island falloff: fade to a coastline past 60% of the field radius.
	half := size / 2
	n := math.Sqrt(x*x+z*z) / half
	if n > islandFalloffStart {
		t := (n - islandFalloffStart) / (1 - islandFalloffStart)
		h *= 1 - smoothstep(t)
	}
	// Beach band: whatever elevation survives near the edge flattens out.
	if n > beachBandStart && h > beachLevel {
		h = beachLevel
	}

	// Volcanic cones, with a crater carved inside 20% of each cone radius.
	for _, c := range vol {
		d := math.Hypot(x-c.x, z-c.z)
		if d < c.radius {
			bump := c.height * (1 - d/c.radius)
			craterR := 0.2 * c.radius
			if d < craterR {
				bump -= 0.6 * c.height * (1 - d/craterR)
			}
			h += bump
		}
	}

	// Lagoons: quadratic depression toward a shallow floor.
	for _, c := range lag {
		d := math.Hypot(x-c.x, z-c.z)
		if d < c.radius {
			t := d / c.radius
			depressed := lagoonFloor + (h-lagoonFloor)*t*t
			if depressed < h {
				h = depressed
			}
		}
	}

	// Cliff bands: a secondary high-frequency noise pushes already-elevated
	// terrain into a sharp face.
	cliffNoise := math.Sin(x*0.09+s*7.7) * math.Cos(z*0.11+s*6.1)
	if cliffNoise > cliffThreshold && h > cliffBaseline {
		h += cliffRise
	}

	if h < 0 {
		h = 0
	}
	return h
}

// HeightAt returns the terrain height at world (x, z), or 0 outside the
// field bounds. The default policy snaps to the nearest grid sample; bilinear
// interpolation is opt-in via the query mode.
func (hf *HeightField) HeightAt(x, z float64) float64 {
	half := hf.Size / 2
	if x < -half || x > half || z < -half || z > half {
		return 0
	}
	fx := (x + half) / hf.cell
	fz := (z + half) / hf.cell

	if hf.mode == QueryBilinear {
		gx0 := int(fx)
		gz0 := int(fz)
		gx1 := min(gx0+1, hf.Segments)
		gz1 := min(gz0+1, hf.Segments)
		tx := fx - float64(gx0)
		tz := fz - float64(gz0)
		h00 := hf.heights[gz0][gx0]
		h10 := hf.heights[gz0][gx1]
		h01 := hf.heights[gz1][gx0]
		h11 := hf.heights[gz1][gx1]
		return (h00*(1-tx)+h10*tx)*(1-tz) + (h01*(1-tx)+h11*tx)*tz
	}

	gx := int(fx)
	gz := int(fz)
	if gx > hf.Segments {
		gx = hf.Segments
	}
	if gz > hf.Segments {
		gz = hf.Segments
	}
	return hf.heights[gz][gx]
}

// Deform permanently lowers every sample within radius of point by
// depth*(1-dist/radius)^2, clamped at zero. Non-positive radius or depth is a
// no-op. Repeating the same deformation only deepens the crater.
func (hf *HeightField) Deform(point Position, radius, depth float64) {
	if radius <= 0 || depth <= 0 {
		return
	}
	half := hf.Size / 2

	gxMin := int(math.Floor((point.X - radius + half) / hf.cell))
	gxMax := int(math.Ceil((point.X + radius + half) / hf.cell))
	gzMin := int(math.Floor((point.Z - radius + half) / hf.cell))
	gzMax := int(math.Ceil((point.Z + radius + half) / hf.cell))

	gxMin = max(gxMin, 0)
	gzMin = max(gzMin, 0)
	gxMax = min(gxMax, hf.Segments)
	gzMax = min(gzMax, hf.Segments)

	for gz := gzMin; gz <= gzMax; gz++ {
		for gx := gxMin; gx <= gxMax; gx++ {
			sx := -half + float64(gx)*hf.cell
			sz := -half + float64(gz)*hf.cell
			dist := math.Hypot(sx-point.X, sz-point.Z)
			if dist > radius {
				continue
			}
			falloff := 1 - dist/radius
			h := hf.heights[gz][gx] - depth*falloff*falloff
			if h < 0 {
				h = 0
			}
			hf.heights[gz][gx] = h
		}
	}
}

// Fill overwrites every sample with a constant height. Used for flat test
// ranges and the degraded legacy-height mode.
func (hf *HeightField) Fill(height float64) {
	if height < 0 {
		height = 0
	}
	for gz := range hf.heights {
		for gx := range hf.heights[gz] {
			hf.heights[gz][gx] = height
		}
	}
}

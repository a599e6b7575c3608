/*package detector describes a sampling calorimeter as a stack of layers which
stretch infinitely in the transverse plane, and transports shower particles
through it.
*/
package detector

import (
	"errors"
	"fmt"
	"math"

	"github.com/phil-mansfield/goshower/geom"
	"github.com/phil-mansfield/goshower/io"
	"github.com/phil-mansfield/goshower/particle"
	"github.com/phil-mansfield/goshower/rand"
)

const (
	// Steps at or below degenerateStep are lengthened by nudgeStep so that a
	// particle resting on a boundary always makes progress.
	degenerateStep = 1e-5
	nudgeStep      = 1e-4

	// Direction components smaller than this never reach a boundary along
	// their axis.
	minComponent = 1e-12

	// Photons travel 9/7 of a radiation length before pair producing.
	photonLengthRatio = 9.0 / 7.0
)

var (
	ErrConfig = errors.New("detector: configuration error")

	log = io.NamedLogger("detector")
)

// Region is one of the (up to) two material zones of a layer's cells.
type Region int

const (
	Outer Region = iota
	Inner
)

func (r Region) String() string {
	if r == Inner {
		return "Inner"
	}
	return "Outer"
}

// Material describes a single material zone.
type Material struct {
	// Density is the number of radiation lengths per unit length.
	Density float64
	// Size is the cell width for the outer material and the side of the
	// concentric square for the inner material.
	Size float64
	// Response is the ionisation yield per unit path length. Zero for
	// passive material.
	Response float64
}

// Layer is a single slab of the calorimeter. The transverse plane is tiled
// with square cells, each of which may hold a concentric square of a second
// material.
type Layer struct {
	name      string
	thickness float64

	outer, inner Material
	twoMats      bool
	edges        []float64 // Region boundaries within a cell, ascending

	grid       geom.Grid
	ionisation float64
	cells      []float64
	missed     float64
}

// NewLayer creates a layer with cells x cells instrumented cells. inner is
// optional; at most one inner material may be given.
func NewLayer(
	name string, thickness float64, cells int,
	outer Material, inner ...Material,
) (*Layer, error) {
	if thickness <= 0 || math.IsInf(thickness, 0) || math.IsNaN(thickness) {
		return nil, fmt.Errorf(
			"%w: Layer '%s' needs a positive thickness, but has %g.",
			ErrConfig, name, thickness,
		)
	} else if cells <= 0 {
		return nil, fmt.Errorf(
			"%w: Layer '%s' needs a positive number of cells, but has %d.",
			ErrConfig, name, cells,
		)
	} else if !(outer.Size > 0) {
		return nil, fmt.Errorf(
			"%w: Layer '%s' needs a positive cell size, but has %g.",
			ErrConfig, name, outer.Size,
		)
	} else if len(inner) > 1 {
		return nil, fmt.Errorf(
			"%w: Layer '%s' given %d inner materials, but at most one is "+
				"supported.", ErrConfig, name, len(inner),
		)
	}

	if err := checkMaterial(name, "outer", outer); err != nil {
		return nil, err
	}

	l := &Layer{name: name, thickness: thickness, outer: outer}
	l.edges = []float64{0, outer.Size}

	if len(inner) == 1 {
		in := inner[0]
		if err := checkMaterial(name, "inner", in); err != nil {
			return nil, err
		}
		if !(in.Size > 0 && in.Size < outer.Size) {
			return nil, fmt.Errorf(
				"%w: inner material of Layer '%s' must be in range (0, %g), "+
					"but is %g.", ErrConfig, name, outer.Size, in.Size,
			)
		}

		l.inner, l.twoMats = in, true
		lo := (outer.Size - in.Size) / 2
		l.edges = []float64{0, lo, lo + in.Size, outer.Size}
	}

	l.grid.Init(cells, outer.Size)
	l.cells = make([]float64, l.grid.Area)

	return l, nil
}

func checkMaterial(name, zone string, m Material) error {
	if m.Density < 0 || math.IsNaN(m.Density) {
		return fmt.Errorf(
			"%w: %s material of Layer '%s' has negative density %g.",
			ErrConfig, zone, name, m.Density,
		)
	} else if m.Response < 0 || math.IsNaN(m.Response) {
		return fmt.Errorf(
			"%w: %s material of Layer '%s' has negative response %g.",
			ErrConfig, zone, name, m.Response,
		)
	}
	return nil
}

func (l *Layer) Name() string { return l.name }
func (l *Layer) Thickness() float64 { return l.thickness }
func (l *Layer) NumCells() int { return l.grid.Cells }
func (l *Layer) CellSize() float64 { return l.outer.Size }
func (l *Layer) TwoMaterials() bool { return l.twoMats }
func (l *Layer) Grid() geom.Grid { return l.grid }
func (l *Layer) Ionisation() float64 { return l.ionisation }
func (l *Layer) Missed() float64 { return l.missed }

// Height is the transverse width of the instrumented grid.
func (l *Layer) Height() float64 {
	return float64(l.grid.Cells) * l.outer.Size
}

// Response is the largest response of the layer's materials.
func (l *Layer) Response() float64 {
	if l.twoMats {
		return math.Max(l.outer.Response, l.inner.Response)
	}
	return l.outer.Response
}

// Active returns true if any material in the layer produces a signal.
func (l *Layer) Active() bool { return l.Response() > 0 }

// Material returns the material of the given region. Single material layers
// return their outer material for every region.
func (l *Layer) Material(r Region) Material {
	if r == Inner && l.twoMats {
		return l.inner
	}
	return l.outer
}

// CellIons returns a copy of the cell grid in [y][x] order, flattened.
func (l *Layer) CellIons() []float64 {
	out := make([]float64, len(l.cells))
	copy(out, l.cells)
	return out
}

// Cell returns the ionisation in the cell at (x, y).
func (l *Layer) Cell(x, y int) float64 {
	return l.cells[l.grid.Idx(x, y)]
}

/////////////
// Regions //
/////////////

// Classify returns the material region containing the particle. Particles
// exactly on a region boundary are placed in the region they are moving
// into.
func (l *Layer) Classify(p *particle.Particle) Region {
	if !l.twoMats {
		return Outer
	}
	if l.inBand(p.X, p.Dir.X) && l.inBand(p.Y, p.Dir.Y) {
		return Inner
	}
	return Outer
}

// inBand returns true if u lies within the inner material's span along one
// axis.
func (l *Layer) inBand(u, d float64) bool {
	m := geom.PMod(u, l.outer.Size)
	lo, hi := l.edges[1], l.edges[2]

	switch {
	case m > lo && m < hi:
		return true
	case m == lo:
		return d > 0
	case m == hi:
		return d < 0
	}
	return false
}

/////////////////
// Step limits //
/////////////////

// DistanceToBoundary returns the distance the particle can travel before it
// reaches the end of the layer, a cell edge or a material boundary. localZ is
// the particle's position relative to the start of the layer.
func (l *Layer) DistanceToBoundary(p *particle.Particle, localZ float64) float64 {
	dist := math.Inf(+1)
	switch {
	case p.Dir.Z > minComponent:
		dist = (l.thickness - localZ) / p.Dir.Z
	case p.Dir.Z < -minComponent:
		dist = localZ / -p.Dir.Z
	}

	dist = math.Min(dist, l.transverseDistance(p.X, p.Dir.X))
	dist = math.Min(dist, l.transverseDistance(p.Y, p.Dir.Y))

	if dist <= degenerateStep {
		// Rounding can leave a particle a hair away from the boundary it
		// just reached.
		log.Debugf(
			"Nudging degenerate step %g in Layer '%s' to %g (%s).",
			dist, l.name, dist+nudgeStep, p,
		)
		dist += nudgeStep
	}

	return dist
}

// transverseDistance returns the distance to the next cell or region edge
// along one transverse axis.
func (l *Layer) transverseDistance(u, d float64) float64 {
	if math.Abs(d) < minComponent {
		return math.Inf(+1)
	}

	m := geom.PMod(u, l.outer.Size)
	if d > 0 {
		for _, b := range l.edges {
			if b > m {
				return (b - m) / d
			}
		}
		// m is always below the last edge.
		return (l.outer.Size - m) / d
	}

	if m == 0 {
		m = l.outer.Size
	}
	for i := len(l.edges) - 1; i >= 0; i-- {
		if b := l.edges[i]; b < m {
			return (m - b) / -d
		}
	}
	return m / -d
}

// StepLimit returns the longest step allowed in the particle's current
// region: radLengths radiation lengths. Steps in empty material are
// unlimited.
func (l *Layer) StepLimit(p *particle.Particle, radLengths float64) float64 {
	return l.stepLimit(l.Classify(p), radLengths)
}

func (l *Layer) stepLimit(r Region, radLengths float64) float64 {
	density := l.Material(r).Density
	if density <= 0 {
		return math.Inf(+1)
	}
	return radLengths / density
}

// InteractionLength returns the mean free path of the particle in its
// current region.
func (l *Layer) InteractionLength(p *particle.Particle) float64 {
	return l.interactionLength(l.Classify(p), p.Kind)
}

func (l *Layer) interactionLength(r Region, kind particle.Kind) float64 {
	density := l.Material(r).Density
	if density <= 0 {
		return math.Inf(+1)
	}
	length := 1 / density
	if kind == particle.Photon {
		length *= photonLengthRatio
	}
	return length
}

////////////////////////////////
// Ionisation and interaction //
////////////////////////////////

// Deposit records the ionisation left by a particle traveling a distance
// step from its current position.
func (l *Layer) Deposit(p *particle.Particle, step float64) {
	l.deposit(p, l.Classify(p), step)
}

func (l *Layer) deposit(p *particle.Particle, r Region, step float64) {
	if !p.Ionising() {
		return
	}

	response := l.Material(r).Response
	count := response * step
	l.ionisation += count

	if response > 0 {
		if idx, ok := l.grid.Locate(p.X, p.Y, p.Dir.X, p.Dir.Y); ok {
			l.cells[idx] += count
		} else {
			l.missed += count
		}
	}
}

// MaybeInteract rolls for an interaction of a particle which has just
// traveled a distance step in its current region. The particle is returned
// unchanged if it doesn't interact; otherwise its daughters are returned.
func (l *Layer) MaybeInteract(
	gen rand.Generator, p particle.Particle, std, step float64,
) []particle.Particle {
	return l.maybeInteract(gen, p, l.Classify(&p), std, step)
}

func (l *Layer) maybeInteract(
	gen rand.Generator, p particle.Particle, r Region, std, step float64,
) []particle.Particle {
	length := l.interactionLength(r, p.Kind)
	if gen.Uniform() < step/length {
		return p.Interact(gen, std)
	}
	return []particle.Particle{p}
}

// Reset clears the recorded ionisation. The missed ionisation is kept; see
// ResetMissed.
func (l *Layer) Reset() {
	l.ionisation = 0
	for i := range l.cells {
		l.cells[i] = 0
	}
}

// ResetMissed clears the ionisation recorded outside the grid.
func (l *Layer) ResetMissed() { l.missed = 0 }

// clone returns a deep copy of the layer.
func (l *Layer) clone() *Layer {
	c := *l
	c.edges = append([]float64(nil), l.edges...)
	c.cells = append([]float64(nil), l.cells...)
	return &c
}

func (l *Layer) String() string {
	return fmt.Sprintf(
		"%-10s %.3f %.2f %.2f cm %.3f",
		l.name, l.outer.Density, l.thickness, l.Height(), l.ionisation,
	)
}

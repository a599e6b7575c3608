package detector

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/phil-mansfield/goshower/particle"
	"github.com/phil-mansfield/goshower/rand"
)

// Volume is a layer positioned at a given start along the propagation axis.
type Volume struct {
	Z     float64
	Layer *Layer
}

// End returns the position along the propagation axis where the volume ends.
func (v *Volume) End() float64 { return v.Z + v.Layer.thickness }

// Contains returns true if z is in [Z, End).
func (v *Volume) Contains(z float64) bool { return z >= v.Z && z < v.End() }

// Calorimeter is a strictly one dimensional detector model: layers are
// positioned one after the other along the positive z axis and stretch
// infinitely in x and y.
type Calorimeter struct {
	volumes []Volume
	zEnd    float64
}

// New returns an empty calorimeter which starts at z = 0.
func New() *Calorimeter {
	return &Calorimeter{}
}

// AddLayer adds a copy of a layer to the back of the calorimeter.
func (cal *Calorimeter) AddLayer(l *Layer) error {
	if l == nil {
		return fmt.Errorf("%w: cannot add a nil Layer.", ErrConfig)
	} else if !(l.thickness > 0) || l.grid.Cells <= 0 {
		return fmt.Errorf(
			"%w: Layer '%s' was not created with NewLayer.", ErrConfig, l.name,
		)
	}

	cal.volumes = append(cal.volumes, Volume{cal.zEnd, l.clone()})
	cal.zEnd += l.thickness
	return nil
}

// AddLayers adds copies of a list of layers, one after the other, to the
// back of the calorimeter.
func (cal *Calorimeter) AddLayers(ls []*Layer) error {
	for _, l := range ls {
		if err := cal.AddLayer(l); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of layers.
func (cal *Calorimeter) Len() int { return len(cal.volumes) }

// End returns the position where the last layer ends.
func (cal *Calorimeter) End() float64 { return cal.zEnd }

// Volume returns the i-th volume. The layer it points to is owned by the
// calorimeter.
func (cal *Calorimeter) Volume(i int) Volume { return cal.volumes[i] }

// Layer returns the i-th layer.
func (cal *Calorimeter) Layer(i int) *Layer { return cal.volumes[i].Layer }

// Locate returns the volume containing z and true, or false if z is outside
// the calorimeter.
func (cal *Calorimeter) Locate(z float64) (*Volume, bool) {
	i := sort.Search(len(cal.volumes), func(i int) bool {
		return z < cal.volumes[i].End()
	})
	if i == len(cal.volumes) || !cal.volumes[i].Contains(z) {
		return nil, false
	}
	return &cal.volumes[i], true
}

// Step moves a particle forward by a single step and returns the particles
// that leave the step: nothing if the particle is outside the calorimeter,
// was absorbed or travels (almost) perpendicular to z, the stepped particle
// itself, or its two daughters.
//
// The step ends at the first layer, cell or material boundary and is never
// longer than radLengths radiation lengths of the material it crosses. std is
// the variance of the angular offsets given to daughters.
func (cal *Calorimeter) Step(
	gen rand.Generator, p particle.Particle, std, radLengths float64,
) []particle.Particle {
	v, ok := cal.Locate(p.Z)
	if !ok {
		return nil
	}
	l := v.Layer

	if math.Abs(p.Dir.Z) < particle.MinAxial {
		// It would only ever wander transversely, so it escapes the grid.
		log.Debugf("Dropping sideways particle in Layer '%s' (%s).", l.name, p)
		return nil
	}

	r := l.Classify(&p)
	step := math.Min(
		l.DistanceToBoundary(&p, p.Z-v.Z),
		l.stepLimit(r, radLengths),
	)

	l.deposit(&p, r, step)
	p.Advance(step)
	return l.maybeInteract(gen, p, r, std, step)
}

//////////////
// Readouts //
//////////////

func (cal *Calorimeter) collect(active bool, f func(v *Volume)) {
	for i := range cal.volumes {
		v := &cal.volumes[i]
		if !active || v.Layer.Active() {
			f(v)
		}
	}
}

// Positions returns the start of each layer. If active is true, only active
// layers are included.
func (cal *Calorimeter) Positions(active bool) []float64 {
	out := []float64{}
	cal.collect(active, func(v *Volume) { out = append(out, v.Z) })
	return out
}

// Ionisations returns the ionisation deposited in each layer. If active is
// true, only active layers are included.
func (cal *Calorimeter) Ionisations(active bool) []float64 {
	out := []float64{}
	cal.collect(active, func(v *Volume) {
		out = append(out, v.Layer.ionisation)
	})
	return out
}

// IonsByLayer returns a copy of each layer's cell grid, flattened in [y][x]
// order. If active is true, only active layers are included.
func (cal *Calorimeter) IonsByLayer(active bool) [][]float64 {
	out := [][]float64{}
	cal.collect(active, func(v *Volume) {
		out = append(out, v.Layer.CellIons())
	})
	return out
}

// IonsMissed returns the ionisation that fell outside of each layer's grid.
// If active is true, only active layers are included.
func (cal *Calorimeter) IonsMissed(active bool) []float64 {
	out := []float64{}
	cal.collect(active, func(v *Volume) {
		out = append(out, v.Layer.missed)
	})
	return out
}

// Layers returns the calorimeter's layers. If active is true, only active
// layers are included.
func (cal *Calorimeter) Layers(active bool) []*Layer {
	out := []*Layer{}
	cal.collect(active, func(v *Volume) { out = append(out, v.Layer) })
	return out
}

// Reset clears the recorded ionisation in each layer.
func (cal *Calorimeter) Reset() {
	for i := range cal.volumes {
		cal.volumes[i].Layer.Reset()
	}
}

// ResetMissed clears the ionisation recorded outside of each layer's grid.
func (cal *Calorimeter) ResetMissed() {
	for i := range cal.volumes {
		cal.volumes[i].Layer.ResetMissed()
	}
}

// Clone returns a deep copy of the calorimeter, including its recorded
// ionisation. A clone can be stepped concurrently with cal.
func (cal *Calorimeter) Clone() *Calorimeter {
	c := &Calorimeter{
		volumes: make([]Volume, len(cal.volumes)),
		zEnd:    cal.zEnd,
	}
	for i, v := range cal.volumes {
		c.volumes[i] = Volume{v.Z, v.Layer.clone()}
	}
	return c
}

func (cal *Calorimeter) String() string {
	sb := &strings.Builder{}
	sb.WriteString("The layers of the calorimeter:\n")
	for _, v := range cal.volumes {
		fmt.Fprintf(sb, "%.2f %s\n", v.Z, v.Layer)
	}
	return sb.String()
}

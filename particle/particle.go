/*package particle implements the electrons and photons which make up an
electromagnetic shower.
*/
package particle

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/goshower/rand"
)

const (
	// Cutoff is the default energy (GeV) at or below which a particle no
	// longer branches when it interacts.
	Cutoff = 0.01

	// MinAxial is the smallest propagation-axis component of a unit
	// direction which still counts as moving through the calorimeter.
	MinAxial = 1e-6

	// slopeFloor is the smallest propagation-axis direction component used
	// when rebuilding directions from paraxial slopes.
	slopeFloor = 1e-9
)

var (
	ErrDirection = errors.New("particle: zero-length direction")
	ErrEnergy    = errors.New("particle: invalid energy")
	ErrKind      = errors.New("particle: unknown kind")
)

// Kind is the type of a particle.
type Kind int

const (
	Electron Kind = iota
	Photon
	EndKind
)

type kindInfo struct {
	name      string
	ionising  bool
	daughters [2]Kind
}

// An electron radiates a photon (bremsstrahlung) and a photon converts into
// an electron pair.
var kinds = [EndKind]kindInfo{
	Electron: {"elec", true, [2]Kind{Electron, Photon}},
	Photon:   {"phot", false, [2]Kind{Electron, Electron}},
}

func (k Kind) String() string {
	switch k {
	case Electron:
		return "Electron"
	case Photon:
		return "Photon"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a case-insensitive kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	var k Kind
	for k = 0; k < EndKind; k++ {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrKind, s)
}

// Particle is a single quantum in flight. Z is the position along the
// propagation axis and X, Y are transverse offsets.
type Particle struct {
	Kind    Kind
	Z, X, Y float64
	Dir     r3.Vec // Unit length
	Energy  float64
	Cutoff  float64
	Path    float64 // Distance traveled since creation
}

// New creates a particle with the default Cutoff. dir is normalized; it is an
// error for it to have zero length or to point (almost) perpendicular to the
// propagation axis.
func New(kind Kind, z, x, y, energy float64, dir r3.Vec) (Particle, error) {
	if kind < 0 || kind >= EndKind {
		return Particle{}, fmt.Errorf("%w: %d", ErrKind, int(kind))
	}
	if energy < 0 || math.IsNaN(energy) || math.IsInf(energy, 0) {
		return Particle{}, fmt.Errorf("%w: %g", ErrEnergy, energy)
	}

	n := r3.Norm(dir)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Particle{}, fmt.Errorf("%w: %v", ErrDirection, dir)
	} else if math.Abs(dir.Z)/n < MinAxial {
		return Particle{}, fmt.Errorf(
			"%w: %v never advances along z", ErrDirection, dir,
		)
	}

	p := Particle{
		Kind: kind, Z: z, X: x, Y: y,
		Dir: r3.Scale(1/n, dir), Energy: energy, Cutoff: Cutoff,
	}
	return p, nil
}

// NewElectron creates an electron. See New.
func NewElectron(z, x, y, energy float64, dir r3.Vec) (Particle, error) {
	return New(Electron, z, x, y, energy, dir)
}

// NewPhoton creates a photon. See New.
func NewPhoton(z, x, y, energy float64, dir r3.Vec) (Particle, error) {
	return New(Photon, z, x, y, energy, dir)
}

// Ionising returns true if particles of this kind leave ionisation along
// their path.
func (p *Particle) Ionising() bool { return kinds[p.Kind].ionising }

// Advance moves the particle a distance step along its direction.
func (p *Particle) Advance(step float64) {
	p.Z += step * p.Dir.Z
	p.X += step * p.Dir.X
	p.Y += step * p.Dir.Y
	p.Path += step
}

// Interact splits the particle into its two daughters: an electron and a
// photon for an electron, an electron pair for a photon. The energy is split
// at a uniform random fraction and each daughter's direction is the parent's
// deflected by an independent 2D gaussian offset (variance std) in paraxial
// slope space. A particle at or below its cutoff is absorbed and nil is
// returned.
func (p Particle) Interact(gen rand.Generator, std float64) []Particle {
	if p.Energy <= p.Cutoff {
		return nil
	}

	split := gen.Uniform()
	dx1, dy1 := gen.Offset(std)
	dx2, dy2 := gen.Offset(std)

	e1 := split * p.Energy
	e2 := p.Energy - e1

	ks := kinds[p.Kind].daughters
	return []Particle{
		p.daughter(ks[0], e1, Deflect(p.Dir, dx1, dy1)),
		p.daughter(ks[1], e2, Deflect(p.Dir, dx2, dy2)),
	}
}

func (p *Particle) daughter(kind Kind, energy float64, dir r3.Vec) Particle {
	return Particle{
		Kind: kind, Z: p.Z, X: p.X, Y: p.Y,
		Dir: dir, Energy: energy, Cutoff: p.Cutoff,
	}
}

// Deflect perturbs the paraxial slopes (dx/dz, dy/dz) of dir by (ox, oy) and
// returns the resulting unit vector. The sign of the propagation-axis
// component is preserved.
func Deflect(dir r3.Vec, ox, oy float64) r3.Vec {
	dz := dir.Z
	if math.Abs(dz) < slopeFloor {
		dz = math.Copysign(slopeFloor, dz)
	}

	v := r3.Vec{X: dir.X/dz + ox, Y: dir.Y/dz + oy, Z: 1}
	if dz < 0 {
		v = r3.Scale(-1, v)
	}
	return r3.Unit(v)
}

func (p Particle) String() string {
	return fmt.Sprintf(
		"%-10s z:%.3f x:%.3f y:%.3f E:%.3f",
		kinds[p.Kind].name, p.Z, p.X, p.Y, p.Energy,
	)
}

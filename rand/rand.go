/*package rand provides the seedable random number generators used to drive
interaction decisions and angular scattering in a shower.
*/
package rand

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Generator is the source of randomness for a shower. Implementations are
// not safe for concurrent use; give each goroutine its own Generator.
type Generator interface {
	// Uniform returns a uniform variate in [0, 1).
	Uniform() float64
	// Offset returns a draw from a 2D normal distribution with zero mean and
	// covariance [[std, 0], [0, std]].
	Offset(std float64) (dx, dy float64)
}

// PCG is a Generator backed by a permuted congruential generator.
type PCG struct {
	seed, stream uint64
	src          *source
	rng          *rand.Rand

	// The most recent offset distribution. Showers use a single std, so
	// this is rebuilt almost never.
	std    float64
	normal *distmv.Normal
	buf    []float64
}

var _ Generator = (*PCG)(nil)

// source adapts a PCG to both the Uint64-only and the seedable Source
// interfaces used by gonum.
type source struct {
	pcg    *rand.PCG
	stream uint64
}

func (s *source) Uint64() uint64 { return s.pcg.Uint64() }

func (s *source) Seed(seed uint64) { s.pcg.Seed(seed, s.stream) }

// NewGenerator returns a deterministic Generator for the given seed.
func NewGenerator(seed uint64) *PCG {
	return newStream(seed, 0)
}

// NewStream returns the Generator for one stream of a seed. Split(i) of a
// Generator with stream s is NewStream(seed, s+i+1).
func NewStream(seed, stream uint64) *PCG {
	return newStream(seed, stream)
}

// NewTimeSeed returns a Generator seeded from the current time.
func NewTimeSeed() *PCG {
	return NewGenerator(uint64(time.Now().UnixNano()))
}

func newStream(seed, stream uint64) *PCG {
	src := &source{rand.NewPCG(seed, stream), stream}
	return &PCG{
		seed: seed, stream: stream,
		src: src, rng: rand.New(src),
		buf: make([]float64, 2),
	}
}

// Seed returns the seed the generator was created with.
func (gen *PCG) Seed() uint64 { return gen.seed }

// Stream returns the index of the generator's stream.
func (gen *PCG) Stream() uint64 { return gen.stream }

// Split returns an independent Generator derived from the same seed. Equal
// values of i always give the same stream.
func (gen *PCG) Split(i int) *PCG {
	return newStream(gen.seed, gen.stream+uint64(i)+1)
}

// Uniform returns a uniform variate in [0, 1).
func (gen *PCG) Uniform() float64 {
	return gen.rng.Float64()
}

// Offset returns a 2D gaussian offset with covariance diag(std, std). A
// non-positive std gives no offset.
func (gen *PCG) Offset(std float64) (dx, dy float64) {
	if std <= 0 {
		return 0, 0
	}

	if gen.normal == nil || gen.std != std {
		sigma := mat.NewSymDense(2, []float64{std, 0, 0, std})
		normal, ok := distmv.NewNormal([]float64{0, 0}, sigma, gen.src)
		if !ok {
			// diag(std, std) with std > 0 is always positive definite.
			panic("rand: offset covariance is not positive definite")
		}
		gen.normal, gen.std = normal, std
	}

	x := gen.normal.Rand(gen.buf)
	return x[0], x[1]
}

package goshower

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/phil-mansfield/goshower/particle"
	"github.com/phil-mansfield/goshower/rand"
)

// Beam describes the incident particle of a sweep, minus its energy.
type Beam struct {
	Kind particle.Kind
	X, Y float64
	Dir  r3.Vec
}

// Particle returns the beam's incident particle at the given energy. It
// starts at the front face of the calorimeter.
func (b Beam) Particle(energy float64) (particle.Particle, error) {
	return particle.New(b.Kind, 0, b.X, b.Y, energy, b.Dir)
}

// Point is the outcome of simulating a single incident energy.
type Point struct {
	Energy  float64
	Runs    int
	Result  *Result
	Elapsed time.Duration
	// Stream is the generator stream the energy was simulated with. It is
	// zero if the sweep's generator couldn't be split.
	Stream uint64

	// Mean and StdDev summarize the total ionisation of the runs.
	Mean, StdDev float64
}

// splitter is a Generator which can derive independent streams.
type splitter interface {
	Split(i int) *rand.PCG
}

// Sweep simulates the beam at every energy, runs[i] times for energies[i].
// Each energy is run on its own copy of the calorimeter, so at most threads
// energies are simulated at once. If the simulation's generator can't be
// split, energies are simulated one after the other from the shared
// generator.
func (sim *Simulation) Sweep(
	ctx context.Context, beam Beam, energies []float64, runs []int, threads int,
) ([]Point, error) {
	if len(runs) != len(energies) {
		return nil, fmt.Errorf(
			"%w: %d energies were given, but %d run counts.",
			ErrRuns, len(energies), len(runs),
		)
	}

	split, ok := sim.gen.(splitter)
	if !ok || threads < 1 {
		threads = 1
	}

	points := make([]Point, len(energies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for i := range energies {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			sub := &Simulation{
				cal: sim.cal, gen: sim.gen,
				Std: sim.Std, RadLengths: sim.RadLengths,
				ActiveOnly: sim.ActiveOnly,
				log:        sim.log,
				logger:     sim.logger.WithField("energy", energies[i]),
			}
			var stream uint64
			if ok {
				gen := split.Split(i)
				sub.cal, sub.gen, stream = sim.cal.Clone(), gen, gen.Stream()
			}

			pt, err := sub.point(beam, energies[i], runs[i])
			if err != nil {
				return err
			}
			pt.Stream = stream
			points[i] = pt
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Runs returns a slice giving the same number of runs for every energy.
func Runs(energies []float64, runs int) []int {
	out := make([]int, len(energies))
	for i := range out {
		out[i] = runs
	}
	return out
}

func (sim *Simulation) point(beam Beam, energy float64, runs int) (Point, error) {
	p, err := beam.Particle(energy)
	if err != nil {
		return Point{}, err
	}

	start := time.Now()
	res, err := sim.Simulate(p, runs)
	if err != nil {
		return Point{}, err
	}

	pt := Point{
		Energy: energy, Runs: runs, Result: res,
		Elapsed: time.Since(start),
	}
	totals := res.Totals()
	if len(totals) > 1 {
		pt.Mean, pt.StdDev = stat.MeanStdDev(totals, nil)
	} else {
		pt.Mean = totals[0]
	}

	if sim.log {
		sim.logger.Infof(
			"%.2f GeV %s: response %.4g +/- %.4g in %s.",
			energy, beam.Kind, pt.Mean, pt.StdDev, pt.Elapsed,
		)
	}
	return pt, nil
}

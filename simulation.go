/*package goshower runs electromagnetic showers through a layered calorimeter
and collects the ionisation they leave behind over many independent runs.
*/
package goshower

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/goshower/detector"
	"github.com/phil-mansfield/goshower/io"
	"github.com/phil-mansfield/goshower/particle"
	"github.com/phil-mansfield/goshower/rand"
)

const (
	// DefaultRadLengths is the default longest step, in radiation lengths.
	DefaultRadLengths = 0.01
	// DefaultSigma is the default variance of daughter angular offsets.
	DefaultSigma = 0.05
)

var (
	ErrRuns = errors.New("goshower: invalid number of runs")

	log = io.NamedLogger("goshower")
)

// Simulation runs incident particles through a single calorimeter.
type Simulation struct {
	cal *detector.Calorimeter
	gen rand.Generator

	// Std is the variance of the angular offsets given to daughters.
	Std float64
	// RadLengths is the longest step, in radiation lengths.
	RadLengths float64
	// ActiveOnly restricts results to layers with a non-zero response.
	ActiveOnly bool

	log    bool
	logger logrus.FieldLogger
	ms     runtime.MemStats
}

// NewSimulation creates a simulation which owns cal and draws from gen.
func NewSimulation(cal *detector.Calorimeter, gen rand.Generator) *Simulation {
	return &Simulation{
		cal: cal, gen: gen,
		Std: DefaultSigma, RadLengths: DefaultRadLengths,
		logger: log,
	}
}

// Log turns progress logging on or off.
func (sim *Simulation) Log(flag bool) { sim.log = flag }

// Calorimeter returns the calorimeter the simulation runs through.
func (sim *Simulation) Calorimeter() *detector.Calorimeter { return sim.cal }

// Result holds the ionisation recorded over a number of runs. Per-run arrays
// are indexed as [run][layer]; grids are flattened in [y][x] order.
type Result struct {
	Names     []string
	Positions []float64
	Cells     []int

	Ionisations [][]float64
	Grids       [][][]float64
	// Missed is the ionisation which fell outside each layer's grid during
	// each run.
	Missed [][]float64
}

func (sim *Simulation) newResult(runs int) *Result {
	layers := sim.cal.Layers(sim.ActiveOnly)
	res := &Result{
		Names:       make([]string, len(layers)),
		Positions:   sim.cal.Positions(sim.ActiveOnly),
		Cells:       make([]int, len(layers)),
		Ionisations: make([][]float64, runs),
		Grids:       make([][][]float64, runs),
		Missed:      make([][]float64, runs),
	}
	for i, l := range layers {
		res.Names[i] = l.Name()
		res.Cells[i] = l.NumCells()
	}
	return res
}

// Runs returns the number of runs in the result.
func (res *Result) Runs() int { return len(res.Ionisations) }

// Layers returns the number of layers in the result.
func (res *Result) Layers() int { return len(res.Names) }

// Totals returns the total ionisation of each run.
func (res *Result) Totals() []float64 {
	out := make([]float64, len(res.Ionisations))
	for i, ions := range res.Ionisations {
		out[i] = floats.Sum(ions)
	}
	return out
}

// Data converts the result into the form written to result files. hd gives
// the run's metadata; its Runs and Layers are filled in.
func (res *Result) Data(hd io.ResultHeader) *io.ResultData {
	hd.Runs, hd.Layers = int64(res.Runs()), int64(res.Layers())
	data := &io.ResultData{
		Header:      hd,
		Cells:       make([]int64, len(res.Cells)),
		Positions:   res.Positions,
		Ionisations: res.Ionisations,
		Missed:      res.Missed,
		Grids:       res.Grids,
	}
	for i, n := range res.Cells {
		data.Cells[i] = int64(n)
	}
	return data
}

// Simulate runs p through the calorimeter runs times. The calorimeter is
// reset before every run.
func (sim *Simulation) Simulate(p particle.Particle, runs int) (*Result, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrRuns, runs)
	}

	res := sim.newResult(runs)
	for i := 0; i < runs; i++ {
		sim.cal.Reset()
		missed := sim.cal.IonsMissed(sim.ActiveOnly)

		steps := sim.shower(p)
		sim.collect(res, i, missed)

		if sim.log {
			sim.logger.Infof(
				"Run %d/%d of %s: %d steps, %.4g ionisation.",
				i+1, runs, p.Kind, steps, floats.Sum(res.Ionisations[i]),
			)
		}
	}

	sim.logMemory()
	return res, nil
}

// SimulateMultiple runs several incident particles through the calorimeter
// as a single event. The result holds one run.
func (sim *Simulation) SimulateMultiple(ps []particle.Particle) (*Result, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: no incident particles", ErrRuns)
	}

	res := sim.newResult(1)
	sim.cal.Reset()
	missed := sim.cal.IonsMissed(sim.ActiveOnly)

	steps := 0
	for _, p := range ps {
		steps += sim.shower(p)
	}
	sim.collect(res, 0, missed)

	if sim.log {
		sim.logger.Infof(
			"Event of %d particles: %d steps, %.4g ionisation.",
			len(ps), steps, floats.Sum(res.Ionisations[0]),
		)
	}

	sim.logMemory()
	return res, nil
}

// shower steps every particle in flight until none are left and returns the
// number of steps taken.
func (sim *Simulation) shower(p particle.Particle) int {
	ps := []particle.Particle{p}
	next := []particle.Particle{}

	steps := 0
	for len(ps) > 0 {
		next = next[:0]
		for i := range ps {
			next = append(
				next, sim.cal.Step(sim.gen, ps[i], sim.Std, sim.RadLengths)...,
			)
		}
		steps += len(ps)
		ps, next = next, ps
	}
	return steps
}

// collect records the calorimeter's current state as run i. missed is the
// missed ionisation from before the run.
func (sim *Simulation) collect(res *Result, i int, missed []float64) {
	res.Ionisations[i] = sim.cal.Ionisations(sim.ActiveOnly)
	res.Grids[i] = sim.cal.IonsByLayer(sim.ActiveOnly)
	res.Missed[i] = floats.SubTo(
		make([]float64, len(missed)), sim.cal.IonsMissed(sim.ActiveOnly), missed,
	)
}

func (sim *Simulation) logMemory() {
	if !sim.log {
		return
	}
	runtime.ReadMemStats(&sim.ms)
	sim.logger.Infof(
		"Alloc: %5d MB, Sys: %5d MB",
		sim.ms.Alloc>>20, sim.ms.Sys>>20,
	)
}

package goshower

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/goshower/detector"
	"github.com/phil-mansfield/goshower/io"
	"github.com/phil-mansfield/goshower/particle"
	"github.com/phil-mansfield/goshower/rand"
)

// NewLayer builds the layer described by a [Layer] section.
func NewLayer(con *io.LayerConfig) (*detector.Layer, error) {
	outer := detector.Material{
		Density: con.Density, Size: con.CellSize, Response: con.Response,
	}
	if !con.HasInner() {
		return detector.NewLayer(con.Name, con.Thickness, con.Cells, outer)
	}

	inner := detector.Material{
		Density: con.InnerDensity, Size: con.InnerSize,
		Response: con.InnerResponse,
	}
	return detector.NewLayer(con.Name, con.Thickness, con.Cells, outer, inner)
}

// NewCalorimeter builds the calorimeter described by a configuration file:
// the layers named by its [Simulate] section, front to back.
func NewCalorimeter(wrap *io.SimulateWrapper) (*detector.Calorimeter, error) {
	cons, err := wrap.Layers()
	if err != nil {
		return nil, err
	}

	cal := detector.New()
	for i := range cons {
		l, err := NewLayer(&cons[i])
		if err != nil {
			return nil, err
		}
		if err = cal.AddLayer(l); err != nil {
			return nil, err
		}
	}
	return cal, nil
}

// NewBeam builds the incident beam described by a [Simulate] section.
func NewBeam(con *io.SimulateConfig) (Beam, error) {
	kind, err := particle.ParseKind(con.Particle)
	if err != nil {
		return Beam{}, err
	}

	b := Beam{
		Kind: kind, X: con.X, Y: con.Y,
		Dir: r3.Vec{X: con.DirX, Y: con.DirY, Z: con.DirZ},
	}
	// Catch zero-length directions before any energy is simulated.
	if _, err := b.Particle(1); err != nil {
		return Beam{}, err
	}
	return b, nil
}

// NewSimulationFromConfig builds the calorimeter and beam described by a
// configuration file and wraps them in a Simulation.
func NewSimulationFromConfig(
	wrap *io.SimulateWrapper, gen rand.Generator,
) (*Simulation, Beam, error) {
	cal, err := NewCalorimeter(wrap)
	if err != nil {
		return nil, Beam{}, err
	}
	beam, err := NewBeam(&wrap.Simulate)
	if err != nil {
		return nil, Beam{}, err
	}

	sim := NewSimulation(cal, gen)
	sim.Std = wrap.Simulate.Sigma
	sim.RadLengths = wrap.Simulate.RadLengths
	sim.ActiveOnly = wrap.Simulate.ActiveOnly
	return sim, beam, nil
}

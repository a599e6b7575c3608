package goshower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/goshower/detector"
	"github.com/phil-mansfield/goshower/io"
	"github.com/phil-mansfield/goshower/particle"
	"github.com/phil-mansfield/goshower/rand"
)

func exampleWrapper(t *testing.T) *io.SimulateWrapper {
	wrap := io.DefaultSimulateWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, io.ExampleSimulateFile))
	return wrap
}

func TestNewCalorimeter(t *testing.T) {
	cal, err := NewCalorimeter(exampleWrapper(t))
	require.NoError(t, err)

	assert.Equal(t, 2, cal.Len())
	assert.Equal(t, 140.0, cal.End())
	assert.Equal(t, []float64{0, 40}, cal.Positions(false))

	l := cal.Layer(0)
	assert.Equal(t, "short", l.Name())
	assert.True(t, l.TwoMaterials())
	assert.True(t, l.Active())
	assert.Equal(t, 1.5, l.CellSize())
	assert.Equal(t, detector.Material{Density: 0.01, Size: 1, Response: 1},
		l.Material(detector.Inner))
}

func TestNewLayerSingleMaterial(t *testing.T) {
	l, err := NewLayer(&io.LayerConfig{
		Name: "lead", Thickness: 2, Cells: 5, Density: 1, CellSize: 1,
	})
	require.NoError(t, err)
	assert.False(t, l.TwoMaterials())
	assert.False(t, l.Active())

	_, err = NewLayer(&io.LayerConfig{Name: "bad", Thickness: 2, Cells: 5})
	assert.ErrorIs(t, err, detector.ErrConfig)
}

func TestNewBeam(t *testing.T) {
	wrap := exampleWrapper(t)
	beam, err := NewBeam(&wrap.Simulate)
	require.NoError(t, err)
	assert.Equal(t, particle.Electron, beam.Kind)

	p, err := beam.Particle(2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Energy)
	assert.Equal(t, 0.0, p.Z)
	assert.Equal(t, 1.0, p.Dir.Z)

	con := wrap.Simulate
	con.Particle = "muon"
	_, err = NewBeam(&con)
	assert.ErrorIs(t, err, particle.ErrKind)

	con = wrap.Simulate
	con.DirZ = 0
	_, err = NewBeam(&con)
	assert.ErrorIs(t, err, particle.ErrDirection)

	// A beam along the layers never reaches the back of the calorimeter.
	con.DirX = 1
	_, err = NewBeam(&con)
	assert.ErrorIs(t, err, particle.ErrDirection)
}

func TestNewSimulationFromConfig(t *testing.T) {
	wrap := exampleWrapper(t)
	wrap.Simulate.Sigma = 0.1
	wrap.Simulate.ActiveOnly = true

	sim, beam, err := NewSimulationFromConfig(wrap, rand.NewGenerator(1))
	require.NoError(t, err)
	assert.Equal(t, 0.1, sim.Std)
	assert.Equal(t, DefaultRadLengths, sim.RadLengths)
	assert.True(t, sim.ActiveOnly)
	assert.Equal(t, particle.Electron, beam.Kind)

	wrap.Simulate.Layer = append(wrap.Simulate.Layer, "missing")
	_, _, err = NewSimulationFromConfig(wrap, rand.NewGenerator(1))
	assert.ErrorIs(t, err, io.ErrConfig)
}

package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/goshower/particle"
	"github.com/phil-mansfield/goshower/rand"
)

func testCalorimeter(t *testing.T) *Calorimeter {
	passive, err := NewLayer("passive", 1, 30, Material{1, 1.5, 0})
	require.NoError(t, err)
	active, err := NewLayer("active", 100, 30, Material{0.01, 1, 1})
	require.NoError(t, err)

	cal := New()
	require.NoError(t, cal.AddLayers([]*Layer{passive, active}))
	return cal
}

func TestAddLayer(t *testing.T) {
	cal := New()
	assert.ErrorIs(t, cal.AddLayer(nil), ErrConfig)
	assert.ErrorIs(t, cal.AddLayer(&Layer{}), ErrConfig)
	assert.Equal(t, 0, cal.Len())

	l := singleLayer(t, 1)
	require.NoError(t, cal.AddLayer(l))
	require.NoError(t, cal.AddLayer(l))

	assert.Equal(t, 2, cal.Len())
	assert.Equal(t, 20.0, cal.End())
	assert.Equal(t, []float64{0, 10}, cal.Positions(false))

	// Layers are copied on insertion.
	assert.NotSame(t, l, cal.Layer(0))
	assert.NotSame(t, cal.Layer(0), cal.Layer(1))
	p := electron(0.5, 0.5, forward)
	l.Deposit(&p, 1)
	assert.Equal(t, []float64{0, 0}, cal.Ionisations(false))
}

func TestLocate(t *testing.T) {
	cal := testCalorimeter(t)

	table := []struct {
		z   float64
		idx int
	}{
		{-0.1, -1},
		{0, 0},
		{0.5, 0},
		{1, 1},
		{100.9, 1},
		{101, -1},
		{1e3, -1},
	}

	for i, test := range table {
		v, ok := cal.Locate(test.z)
		if test.idx < 0 {
			if ok {
				t.Errorf("%d) Expected z = %g to be outside, got %g.",
					i+1, test.z, v.Z)
			}
			continue
		}
		if !ok {
			t.Errorf("%d) Expected z = %g to be inside.", i+1, test.z)
		} else if v.Layer != cal.Layer(test.idx) {
			t.Errorf("%d) Expected z = %g in layer %d, got '%s'.",
				i+1, test.z, test.idx, v.Layer.Name())
		}
	}
}

func TestStepExit(t *testing.T) {
	cal := testCalorimeter(t)
	gen := rand.NewGenerator(3)

	for _, z := range []float64{cal.End(), cal.End() + 5, -1} {
		p := electron(0, 0, forward)
		p.Z = z
		assert.Empty(t, cal.Step(gen, p, 0.05, 0.01))
	}

	var empty Calorimeter
	assert.Empty(t, empty.Step(gen, electron(0, 0, forward), 0.05, 0.01))
}

func TestStepSideways(t *testing.T) {
	air, err := NewLayer("air", 10, 30, Material{0, 1, 1})
	require.NoError(t, err)
	cal := New()
	require.NoError(t, cal.AddLayer(air))

	table := []r3.Vec{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: -1, Z: 0},
		{X: 1, Y: 0, Z: 1e-8},
	}

	for i, dir := range table {
		p := electron(0.5, 0.5, dir)
		p.Z = 5
		if ps := cal.Step(fixed{0}, p, 0.05, 0.01); len(ps) != 0 {
			t.Errorf("%d) Expected sideways particle to end, got %v.", i+1, ps)
		}
	}
	assert.Equal(t, []float64{0}, cal.Ionisations(false))

	// A shallow but finite angle still crosses the empty layer.
	p := electron(0.5, 0.5, r3.Vec{X: 1, Y: 0, Z: 0.01})
	p.Z = 5
	steps := 0
	for ps := []particle.Particle{p}; len(ps) > 0; steps++ {
		require.Len(t, ps, 1)
		ps = cal.Step(fixed{0}, ps[0], 0.05, 0.01)
	}
	assert.True(t, steps > 1)
	assert.InDelta(t, cal.Ionisations(false)[0],
		floats.Sum(cal.IonsByLayer(false)[0])+cal.IonsMissed(false)[0], 1e-9)
}

func TestStep(t *testing.T) {
	cal := testCalorimeter(t)

	// Never interacts: the step is capped by the radiation length fraction.
	p := electron(0, 0, forward)
	ps := cal.Step(fixed{0.99}, p, 0.05, 0.01)
	require.Len(t, ps, 1)
	assert.InDelta(t, 0.01, ps[0].Z, 1e-12)
	assert.InDelta(t, 0.01, ps[0].Path, 1e-12)
	assert.Equal(t, []float64{0, 0}, cal.Ionisations(false))

	// Crossing into the active layer stops at the layer boundary.
	p.Z = 0.995
	ps = cal.Step(fixed{0.99}, p, 0.05, 0.01)
	require.Len(t, ps, 1)
	assert.InDelta(t, 1, ps[0].Z, 1e-12)

	// The sparse active material allows much longer steps, and ionisation
	// is recorded in the cell the step starts in.
	ps = cal.Step(fixed{0.99}, ps[0], 0.05, 0.5)
	require.Len(t, ps, 1)
	assert.InDelta(t, 51, ps[0].Z, 1e-9)
	ions := cal.Ionisations(false)
	assert.Equal(t, 0.0, ions[0])
	assert.InDelta(t, 50, ions[1], 1e-9)

	grids := cal.IonsByLayer(true)
	require.Len(t, grids, 1)
	g := cal.Layer(1).Grid()
	assert.InDelta(t, 50, grids[0][g.Idx(15, 15)], 1e-9)

	// Interacting steps return daughters.
	p = electron(0, 0, forward)
	p.Energy = 2
	ps = cal.Step(fixed{0}, p, 0.05, 0.01)
	require.Len(t, ps, 2)
	assert.InDelta(t, 2, ps[0].Energy+ps[1].Energy, 1e-12)
}

func TestActiveReadouts(t *testing.T) {
	cal := testCalorimeter(t)

	assert.Equal(t, []float64{0, 1}, cal.Positions(false))
	assert.Equal(t, []float64{1}, cal.Positions(true))
	assert.Len(t, cal.Ionisations(true), 1)
	assert.Len(t, cal.IonsByLayer(false), 2)
	assert.Len(t, cal.IonsByLayer(false)[0], 900)
	assert.Len(t, cal.IonsMissed(false), 2)
	assert.Len(t, cal.Layers(true), 1)
	assert.Equal(t, "active", cal.Layers(true)[0].Name())
}

func TestShowerConservation(t *testing.T) {
	cal := testCalorimeter(t)
	gen := rand.NewGenerator(11)

	p, err := particle.NewElectron(0, 0.1, 0.1, 5, r3.Vec{X: 0.05, Y: 0.02, Z: 1})
	require.NoError(t, err)

	ps := []particle.Particle{p}
	for len(ps) > 0 {
		next := []particle.Particle{}
		for _, p := range ps {
			next = append(next, cal.Step(gen, p, 0.05, 0.01)...)
		}
		ps = next
	}

	ions := cal.Ionisations(false)
	grids := cal.IonsByLayer(false)
	missed := cal.IonsMissed(false)
	assert.Equal(t, 0.0, ions[0])
	assert.True(t, ions[1] > 0)
	for i := range ions {
		assert.InDelta(t, ions[i], floats.Sum(grids[i])+missed[i], 1e-9)
	}

	for i := 0; i < 2; i++ {
		cal.Reset()
		assert.Equal(t, []float64{0, 0}, cal.Ionisations(false))
		assert.Equal(t, 0.0, floats.Max(cal.IonsByLayer(false)[1]))
	}
	assert.Equal(t, missed, cal.IonsMissed(false))

	cal.ResetMissed()
	assert.Equal(t, []float64{0, 0}, cal.IonsMissed(false))
}

func TestTwoMaterialShowerConservation(t *testing.T) {
	sandwich := twoMaterialLayer(t)
	cal := New()
	require.NoError(t, cal.AddLayers([]*Layer{sandwich, sandwich, sandwich}))

	table := []struct {
		seed uint64
		x, y float64
		dir  r3.Vec
	}{
		{1, 1, 1, r3.Vec{X: 0.05, Y: 0, Z: 1}},
		{2, 0.5, 1, r3.Vec{X: 0.1, Y: -0.05, Z: 1}},
		{3, -3, 2.5, r3.Vec{X: -0.2, Y: 0.3, Z: 1}},
	}

	for i, test := range table {
		cal.Reset()
		cal.ResetMissed()
		gen := rand.NewGenerator(test.seed)

		p, err := particle.NewElectron(0, test.x, test.y, 5, test.dir)
		require.NoError(t, err)

		steps, inner := 0, 0
		ps := []particle.Particle{p}
		for len(ps) > 0 {
			next := []particle.Particle{}
			for _, p := range ps {
				if v, ok := cal.Locate(p.Z); ok && v.Layer.Classify(&p) == Inner {
					inner++
				}
				next = append(next, cal.Step(gen, p, 0.05, 0.05)...)
			}
			steps += len(ps)
			ps = next
		}

		if inner == 0 || inner == steps {
			t.Errorf("%d) Shower never crossed between regions: %d of %d "+
				"steps inside.", i+1, inner, steps)
		}

		ions := cal.Ionisations(false)
		grids := cal.IonsByLayer(false)
		missed := cal.IonsMissed(false)
		assert.True(t, floats.Sum(ions) > 0, "shower %d", i+1)
		for j := range ions {
			assert.InDelta(t, ions[j], floats.Sum(grids[j])+missed[j], 1e-9,
				"shower %d, layer %d", i+1, j)
		}
	}
}

func TestCalorimeterClone(t *testing.T) {
	cal := testCalorimeter(t)
	c := cal.Clone()
	assert.Equal(t, cal.String(), c.String())

	p := electron(0, 0, forward)
	p.Z = 50
	c.Step(fixed{0.99}, p, 0.05, 0.01)

	assert.Equal(t, []float64{0, 0}, cal.Ionisations(false))
	assert.True(t, c.Ionisations(false)[1] > 0)
}

package io

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gopkg.in/gcfg.v1"
)

const (
	ExampleSimulateFile = `[Simulate]

#######################
# Required Parameters #
#######################

# Directory which result files will be written to.
Output = path/to/output/dir

# The incident particle: electron or photon.
Particle = electron

# Incident energies in GeV. Each energy is simulated separately and written to
# its own file. Energy may be given any number of times. Alternatively,
# EnergyFile names a whitespace separated table whose first column gives the
# energies. If RunsColumn is set, the second column of EnergyFile gives the
# number of runs at each energy.
Energy = 0.1
Energy = 2
Energy = 4
# EnergyFile = path/to/energies.txt
# RunsColumn = true

# Names of the layers which make up the calorimeter, from front to back. Each
# name must have a matching [Layer "name"] section.
Layer = short
Layer = long

#######################
# Optional Parameters #
#######################

# Number of times the incident particle is run through the calorimeter at
# each energy. Default is 10.
# Runs = 10

# Variance of the angular offsets given to daughter particles. Default is 0.05.
# Sigma = 0.05

# Longest step, in radiation lengths. Default is 0.01.
# RadLengths = 0.01

# Seed for the random number generator. Negative seeds are replaced with the
# current time. Default is -1.
# Seed = 1

# Entry point and direction of the incident particle. The direction is
# normalized before use. Default is a head-on particle at the origin.
# X = 0
# Y = 0
# DirX = 0.01
# DirY = 0.15
# DirZ = 0.9886

# Only record layers with a non-zero response.
# ActiveOnly = true

# Number of energies simulated at once. Default is 1.
# Threads = 4

# SQLite database which a summary of every run is added to.
# Catalog = path/to/runs.db

# Will result in files named pre_2.0GeV_10runs_data_app.gcal:
# PrependName = pre_
# AppendName  = _app

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out

[Layer "short"]

# Thickness along the propagation axis.
Thickness = 40
# Number of cells along each side of the readout grid.
Cells = 30

# Material filling the cell. Density is measured in radiation lengths per
# unit length; Response is the ionisation produced per unit path length and
# is zero for passive material.
Density = 1
CellSize = 1.5
Response = 0

# Optional concentric square of a second material in each cell. InnerSize must
# be smaller than CellSize.
InnerDensity = 0.01
InnerSize = 1.0
InnerResponse = 1

[Layer "long"]
Thickness = 100
Cells = 30
Density = 1
CellSize = 1.5
Response = 0
InnerDensity = 0.01
InnerSize = 1.0
InnerResponse = 1`

	ExamplePlotFile = `[Plot]

#######################
# Required Parameters #
#######################

# Result file written in Simulate mode.
Input = path/to/2.0GeV_10runs_data.gcal
# Image which the figure will be written to.
Output = path/to/profile.png

#######################
# Optional Parameters #
#######################

# Index of the layer whose transverse profile is drawn. Default is the last
# layer in the file.
# Layer = 1

# Draw the longitudinal profile with a logarithmic y axis.
# LogScale = true`
)

var ErrConfig = errors.New("io: configuration error")

type SharedConfig struct {
	// Required
	Output string
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type SimulateConfig struct {
	SharedConfig

	// Required
	Particle   string
	Energy     []float64
	EnergyFile string
	Layer      []string

	// Optional
	Runs                    int
	Sigma, RadLengths       float64
	Seed                    int64
	X, Y                    float64
	DirX, DirY, DirZ        float64
	ActiveOnly, RunsColumn  bool
	Threads                 int
	Catalog                 string
	AppendName, PrependName string
}

type SimulateWrapper struct {
	Simulate SimulateConfig
	Layer    map[string]*LayerConfig
}

func DefaultSimulateWrapper() *SimulateWrapper {
	con := SimulateConfig{}
	con.Runs = 10
	con.Sigma = 0.05
	con.RadLengths = 0.01
	con.Seed = -1
	con.DirZ = 1
	con.Threads = 1
	return &SimulateWrapper{Simulate: con}
}

func (con *SimulateConfig) ValidParticle() bool {
	p := strings.ToLower(strings.TrimSpace(con.Particle))
	return p == "electron" || p == "photon"
}
func (con *SimulateConfig) ValidEnergy() bool {
	if len(con.Energy) == 0 {
		return false
	}
	for _, e := range con.Energy {
		if !(e > 0) || math.IsInf(e, 0) {
			return false
		}
	}
	return true
}
func (con *SimulateConfig) ValidEnergyFile() bool {
	return con.EnergyFile != ""
}
func (con *SimulateConfig) ValidLayer() bool {
	return len(con.Layer) > 0
}
func (con *SimulateConfig) ValidRuns() bool {
	return con.Runs > 0
}
func (con *SimulateConfig) ValidSigma() bool {
	return con.Sigma >= 0
}
func (con *SimulateConfig) ValidRadLengths() bool {
	return con.RadLengths > 0
}
func (con *SimulateConfig) ValidDir() bool {
	return con.DirX != 0 || con.DirY != 0 || con.DirZ != 0
}
func (con *SimulateConfig) ValidThreads() bool {
	return con.Threads > 0
}
func (con *SimulateConfig) ValidCatalog() bool {
	return con.Catalog != ""
}
func (con *SimulateConfig) TimeSeed() bool {
	return con.Seed < 0
}

// CheckInit checks every value of a [Simulate] section, returning an error
// describing the first invalid one.
func (con *SimulateConfig) CheckInit() error {
	switch {
	case !con.ValidOutput():
		return fmt.Errorf("%w: Invalid/non-existent 'Output' value.", ErrConfig)
	case !con.ValidParticle():
		return fmt.Errorf(
			"%w: 'Particle' must be 'electron' or 'photon', but is '%s'.",
			ErrConfig, con.Particle,
		)
	case con.ValidEnergy() == con.ValidEnergyFile():
		return fmt.Errorf(
			"%w: You must set exactly one of 'Energy' and 'EnergyFile', and "+
				"every 'Energy' must be positive.", ErrConfig,
		)
	case !con.ValidLayer():
		return fmt.Errorf("%w: Need to specify at least one 'Layer'.", ErrConfig)
	case !con.ValidRuns():
		return fmt.Errorf(
			"%w: 'Runs' must be positive, but is %d.", ErrConfig, con.Runs,
		)
	case !con.ValidSigma():
		return fmt.Errorf(
			"%w: 'Sigma' must be non-negative, but is %g.", ErrConfig, con.Sigma,
		)
	case !con.ValidRadLengths():
		return fmt.Errorf(
			"%w: 'RadLengths' must be positive, but is %g.",
			ErrConfig, con.RadLengths,
		)
	case !con.ValidDir():
		return fmt.Errorf(
			"%w: 'DirX', 'DirY' and 'DirZ' can't all be zero.", ErrConfig,
		)
	case !con.ValidThreads():
		return fmt.Errorf(
			"%w: 'Threads' must be positive, but is %d.", ErrConfig, con.Threads,
		)
	}
	return nil
}

type LayerConfig struct {
	// Required
	Thickness                   float64
	Cells                       int
	Density, CellSize, Response float64

	// Optional
	InnerDensity, InnerSize, InnerResponse float64

	Name string
}

// HasInner returns true if the layer has a second, inner material.
func (layer *LayerConfig) HasInner() bool { return layer.InnerSize > 0 }

func (layer *LayerConfig) CheckInit(name string) error {
	if layer.Thickness <= 0 {
		return fmt.Errorf(
			"%w: Need to specify a positive Thickness for Layer '%s'.",
			ErrConfig, name,
		)
	} else if layer.Cells <= 0 {
		return fmt.Errorf(
			"%w: Need to specify a positive number of Cells for Layer '%s'.",
			ErrConfig, name,
		)
	} else if layer.Cells > maxCells {
		return fmt.Errorf(
			"%w: Layer '%s' has %d Cells, but at most %d are supported.",
			ErrConfig, name, layer.Cells, maxCells,
		)
	} else if layer.CellSize <= 0 {
		return fmt.Errorf(
			"%w: Need to specify a positive CellSize for Layer '%s'.",
			ErrConfig, name,
		)
	}

	if layer.Density < 0 || layer.InnerDensity < 0 {
		return fmt.Errorf(
			"%w: Layer '%s' given a negative density.", ErrConfig, name,
		)
	} else if layer.Response < 0 || layer.InnerResponse < 0 {
		return fmt.Errorf(
			"%w: Layer '%s' given a negative response.", ErrConfig, name,
		)
	} else if layer.InnerSize < 0 || layer.InnerSize >= layer.CellSize {
		return fmt.Errorf(
			"%w: InnerSize of Layer '%s' must be in range [0, %g), but is %g.",
			ErrConfig, name, layer.CellSize, layer.InnerSize,
		)
	}

	layer.Name = name
	return nil
}

// Layers returns the layers named by the [Simulate] section, in order.
func (wrap *SimulateWrapper) Layers() ([]LayerConfig, error) {
	for name, layer := range wrap.Layer {
		if err := layer.CheckInit(name); err != nil {
			return nil, err
		}
	}

	layers := []LayerConfig{}
	for _, name := range wrap.Simulate.Layer {
		layer, ok := wrap.Layer[name]
		if !ok {
			return nil, fmt.Errorf(
				"%w: No [Layer \"%s\"] section for 'Layer' value '%s'.",
				ErrConfig, name, name,
			)
		}
		layers = append(layers, *layer)
	}
	return layers, nil
}

// ReadSimulateConfig reads and checks a Simulate mode configuration file.
func ReadSimulateConfig(fname string) (*SimulateWrapper, error) {
	wrap := DefaultSimulateWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Simulate.CheckInit(); err != nil {
		return nil, err
	}
	if _, err := wrap.Layers(); err != nil {
		return nil, err
	}
	return wrap, nil
}

type PlotConfig struct {
	// Required
	Input, Output string

	// Optional
	Layer    int
	LogScale bool
}

type PlotWrapper struct {
	Plot PlotConfig
}

func DefaultPlotWrapper() *PlotWrapper {
	return &PlotWrapper{PlotConfig{Layer: -1}}
}

func (con *PlotConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *PlotConfig) ValidOutput() bool {
	return con.Output != ""
}

func (con *PlotConfig) CheckInit() error {
	switch {
	case !con.ValidInput():
		return fmt.Errorf("%w: 'Input' is a required field of [Plot].", ErrConfig)
	case !con.ValidOutput():
		return fmt.Errorf("%w: 'Output' is a required field of [Plot].", ErrConfig)
	}
	return nil
}

// ReadPlotConfig reads and checks a Plot mode configuration file.
func ReadPlotConfig(fname string) (*PlotWrapper, error) {
	wrap := DefaultPlotWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Plot.CheckInit(); err != nil {
		return nil, err
	}
	return wrap, nil
}

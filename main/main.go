package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"runtime/pprof"
	"strings"

	"github.com/caarlos0/env/v11"
	plt "github.com/phil-mansfield/pyplot"
	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/goshower"
	"github.com/phil-mansfield/goshower/catalog"
	"github.com/phil-mansfield/goshower/io"
	"github.com/phil-mansfield/goshower/rand"
	"github.com/phil-mansfield/goshower/render"
)

var log = io.NamedLogger("main")

// Environment holds the settings which may be overridden without editing a
// configuration file.
type Environment struct {
	Debug   bool   `env:"GOSHOWER_DEBUG"`
	Threads int    `env:"GOSHOWER_THREADS"`
	Profile string `env:"GOSHOWER_PROFILE"`
}

func parseEnv() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return Environment{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		if err := fg.log.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		if err := fg.prof.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var simulate, plot, exampleConfig string
	vars := map[string]*string{
		"Simulate":      &simulate,
		"Plot":          &plot,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&simulate, "Simulate", "",
		"Configuration file for [Simulate] mode.",
	)
	flag.StringVar(
		&plot, "Plot", "",
		"Configuration file for [Plot] mode.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Simulate' "+
			"and 'Plot'.",
	)

	flag.Parse()

	e, err := parseEnv()
	if err != nil {
		log.Fatal(err.Error())
	}
	if e.Debug {
		io.SetLevel(logrus.DebugLevel)
	}

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Simulate":
		wrap, err := io.ReadSimulateConfig(simulate)
		if err != nil {
			log.Fatal(err.Error())
		}
		if e.Threads > 0 {
			wrap.Simulate.Threads = e.Threads
		}
		if e.Profile != "" {
			wrap.Simulate.ProfileFile = e.Profile
		}
		simulateMain(wrap)

	case "Plot":
		wrap, err := io.ReadPlotConfig(plot)
		if err != nil {
			log.Fatal(err.Error())
		}
		plotMain(&wrap.Plot)

	case "ExampleConfig":
		switch exampleConfig {
		case "Simulate":
			fmt.Println(io.ExampleSimulateFile)
		case "Plot":
			fmt.Println(io.ExamplePlotFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Simulate' and 'Plot'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but goshower "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func setupIO(con *io.SharedConfig) *FileGroup {
	fg := &FileGroup{}
	var err error

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		io.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

func simulateMain(wrap *io.SimulateWrapper) {
	con := &wrap.Simulate
	fg := setupIO(&con.SharedConfig)
	defer fg.Close()

	log.Println("Running Simulate main.")

	energies, runs := con.Energy, goshower.Runs(con.Energy, con.Runs)
	if con.ValidEnergyFile() {
		var err error
		energies, runs, err = io.ReadEnergies(con.EnergyFile, con.RunsColumn)
		if err != nil {
			log.Fatal(err.Error())
		}
		if !con.RunsColumn {
			runs = goshower.Runs(energies, con.Runs)
		}
	}

	var gen *rand.PCG
	if con.TimeSeed() {
		gen = rand.NewTimeSeed()
	} else {
		gen = rand.NewGenerator(uint64(con.Seed))
	}
	log.Debugf("Seed: %d", gen.Seed())

	sim, beam, err := goshower.NewSimulationFromConfig(wrap, gen)
	if err != nil {
		log.Fatal(err.Error())
	}
	sim.Log(true)
	log.Print(sim.Calorimeter())

	ctx := context.Background()
	points, err := sim.Sweep(ctx, beam, energies, runs, con.Threads)
	if err != nil {
		log.Fatal(err.Error())
	}

	if err = os.MkdirAll(con.Output, 0755); err != nil {
		log.Fatal(err.Error())
	}

	var store *catalog.Store
	if con.ValidCatalog() {
		if store, err = catalog.Open(con.Catalog); err != nil {
			log.Fatal(err.Error())
		}
		defer store.Close()
	}

	for _, pt := range points {
		fname := path.Join(con.Output, io.ResultName(
			con.PrependName, con.AppendName, pt.Energy, pt.Runs,
		))

		hd := io.ResultHeader{
			Kind: int64(beam.Kind),
			Seed: int64(gen.Seed()), Stream: int64(pt.Stream),
			Energy: pt.Energy, Sigma: sim.Std, RadLengths: sim.RadLengths,
			X: beam.X, Y: beam.Y,
			DirX: beam.Dir.X, DirY: beam.Dir.Y, DirZ: beam.Dir.Z,
		}
		if err = io.WriteResultFile(fname, pt.Result.Data(hd)); err != nil {
			log.Fatal(err.Error())
		}
		log.Printf("Wrote %s.", fname)

		if store == nil {
			continue
		}
		_, err = store.Record(ctx, catalog.Run{
			Particle: beam.Kind.String(), Energy: pt.Energy, Runs: pt.Runs,
			EnterX: beam.X, EnterY: beam.Y,
			Sigma: sim.Std, RadLengths: sim.RadLengths,
			Seed: int64(gen.Seed()), Stream: int64(pt.Stream),
			Output: fname, Elapsed: pt.Elapsed,
			Mean: pt.Mean, StdDev: pt.StdDev,
		})
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func plotMain(con *io.PlotConfig) {
	data, err := io.ReadResultFile(con.Input)
	if err != nil {
		log.Fatal(err.Error())
	}

	err = render.PlotProfiles(data, con.Layer, con.LogScale, con.Output)
	if err != nil {
		log.Fatal(err.Error())
	}
	plt.Execute()

	log.Printf("Wrote %s and %s.", con.Output, render.TransverseName(con.Output))
}

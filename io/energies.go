package io

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/table"
)

// ReadEnergies reads the incident energies from the first column of a text
// table. If runsCol is true, the second column gives the number of runs at
// each energy; otherwise runs is nil.
func ReadEnergies(fname string, runsCol bool) (energies []float64, runs []int, err error) {
	colIdxs := []int{0}
	if runsCol {
		colIdxs = append(colIdxs, 1)
	}

	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, nil, err
	}

	energies = cols[0]
	for i, e := range energies {
		if !(e > 0) || math.IsInf(e, 0) {
			return nil, nil, fmt.Errorf(
				"%w: Energy %d in '%s' must be positive, but is %g.",
				ErrConfig, i+1, fname, e,
			)
		}
	}

	if !runsCol {
		return energies, nil, nil
	}

	runs = make([]int, len(cols[1]))
	for i, r := range cols[1] {
		if r < 1 || r != math.Floor(r) {
			return nil, nil, fmt.Errorf(
				"%w: Run count %d in '%s' must be a positive integer, but is %g.",
				ErrConfig, i+1, fname, r,
			)
		}
		runs[i] = int(r)
	}
	return energies, runs, nil
}

/*package render turns the contents of result files into shower profiles
and figures.
*/
package render

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/phil-mansfield/goshower/io"
)

var ErrLayer = errors.New("render: layer out of range")

// Longitudinal returns the mean ionisation of each layer, averaged over
// every run in data.
func Longitudinal(data *io.ResultData) []float64 {
	out := make([]float64, int(data.Header.Layers))
	if len(data.Ionisations) == 0 {
		return out
	}
	for _, ions := range data.Ionisations {
		floats.Add(out, ions)
	}
	floats.Scale(1/float64(len(data.Ionisations)), out)
	return out
}

// LongitudinalStdDev returns the run-to-run standard deviation of each
// layer's ionisation. It is zero when there are fewer than two runs.
func LongitudinalStdDev(data *io.ResultData) []float64 {
	out := make([]float64, int(data.Header.Layers))
	if len(data.Ionisations) < 2 {
		return out
	}

	buf := make([]float64, len(data.Ionisations))
	for j := range out {
		for i, ions := range data.Ionisations {
			buf[i] = ions[j]
		}
		out[j] = stat.StdDev(buf, nil)
	}
	return out
}

// Transverse returns the mean ionisation of each column of cells in the
// given layer, summed along y. Negative layers count back from the end, so
// -1 is the last layer.
func Transverse(data *io.ResultData, layer int) ([]float64, error) {
	layers := len(data.Cells)
	if layer < 0 {
		layer += layers
	}
	if layer < 0 || layer >= layers {
		return nil, fmt.Errorf("%w: layer %d of %d.", ErrLayer, layer, layers)
	}

	n := int(data.Cells[layer])
	out := make([]float64, n)
	if len(data.Grids) == 0 {
		return out, nil
	}

	for _, grids := range data.Grids {
		grid := grids[layer]
		for y := 0; y < n; y++ {
			floats.Add(out, grid[y*n:(y+1)*n])
		}
	}
	floats.Scale(1/float64(len(data.Grids)), out)
	return out, nil
}

// CellCenters returns the centers of a row of n cells in units of the cell
// width, measured from the beam axis.
func CellCenters(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i-n/2) + 0.5
	}
	return xs
}

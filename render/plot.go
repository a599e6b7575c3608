package render

import (
	"fmt"
	"path/filepath"
	"strings"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/goshower/io"
	"github.com/phil-mansfield/goshower/particle"
)

// TransverseName returns the name of the transverse figure that goes with
// the longitudinal figure fname.
func TransverseName(fname string) string {
	ext := filepath.Ext(fname)
	return strings.TrimSuffix(fname, ext) + "_transverse" + ext
}

// PlotProfiles queues figures of the longitudinal profile of data (written
// to fname) and the transverse profile of one layer (written to
// TransverseName(fname)). Nothing is drawn until plt.Execute is called.
func PlotProfiles(
	data *io.ResultData, layer int, logScale bool, fname string,
) error {
	long, longErr := Longitudinal(data), LongitudinalStdDev(data)
	trans, err := Transverse(data, layer)
	if err != nil {
		return err
	}
	if layer < 0 {
		layer += len(data.Cells)
	}

	hd := &data.Header
	title := fmt.Sprintf(
		`%.1f GeV %s: %d runs`, hd.Energy, particle.Kind(hd.Kind), hd.Runs,
	)

	lo, hi := make([]float64, len(long)), make([]float64, len(long))
	for i := range long {
		lo[i], hi[i] = long[i]-longErr[i], long[i]+longErr[i]
	}

	plt.Figure()
	plt.Plot(data.Positions, long, "k", plt.LW(2))
	plt.Plot(data.Positions, long, "ok")
	plt.Plot(data.Positions, lo, plt.C("DimGray"))
	plt.Plot(data.Positions, hi, plt.C("DimGray"))

	plt.Title(title)
	plt.XLabel(`Depth`, plt.FontSize(16))
	plt.YLabel(`Ionisation`, plt.FontSize(16))
	if logScale {
		plt.YScale("log")
	}
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)

	n := len(trans)
	plt.Figure(plt.FigSize(8, 8))
	plt.Plot(CellCenters(n), trans, "k", plt.LW(2))

	plt.Title(fmt.Sprintf("%s, layer %d", title, layer))
	plt.XLabel(`$x$ [cell widths]`, plt.FontSize(16))
	plt.YLabel(`Ionisation`, plt.FontSize(16))
	plt.XLim(-float64(n)/2, float64(n)/2)
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(TransverseName(fname))

	return nil
}

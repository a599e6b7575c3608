package io

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	end = binary.LittleEndian

	ErrFormat = errors.New("io: malformed result file")
)

// Bounds on the sizes accepted from a file header.
const (
	maxRuns   = 1 << 24
	maxLayers = 1 << 12
	maxCells  = 1 << 12
)

// ResultHeader is the fixed-size block at the start of every result file.
type ResultHeader struct {
	Endianness int64
	HeaderSize int64

	Kind         int64
	Runs, Layers int64
	// Seed and Stream identify the generator stream the runs used.
	Seed, Stream int64

	Energy, Sigma, RadLengths float64
	X, Y                      float64
	DirX, DirY, DirZ          float64
}

// ResultData is the full contents of a result file. Per-run arrays are
// indexed as [run][layer] and grids as [run][layer][y*cells + x].
type ResultData struct {
	Header ResultHeader

	Cells       []int64
	Positions   []float64
	Ionisations [][]float64
	Missed      [][]float64
	Grids       [][][]float64
}

// ResultName returns the name of the file holding the runs at one energy.
func ResultName(prep, app string, energy float64, runs int) string {
	return fmt.Sprintf("%s%.1fGeV_%druns_data%s.gcal", prep, energy, runs, app)
}

// check returns an error if the arrays of data don't match its header.
func (data *ResultData) check() error {
	hd := &data.Header
	runs, layers := int(hd.Runs), int(hd.Layers)

	if len(data.Cells) != layers || len(data.Positions) != layers {
		return fmt.Errorf(
			"%w: header has %d layers, but %d cell counts and %d positions "+
				"were given.", ErrFormat, layers, len(data.Cells),
			len(data.Positions),
		)
	} else if len(data.Ionisations) != runs || len(data.Missed) != runs ||
		len(data.Grids) != runs {
		return fmt.Errorf("%w: header has %d runs, but arrays don't.",
			ErrFormat, runs)
	}

	for i := 0; i < runs; i++ {
		if len(data.Ionisations[i]) != layers || len(data.Missed[i]) != layers ||
			len(data.Grids[i]) != layers {
			return fmt.Errorf("%w: run %d doesn't have %d layers.",
				ErrFormat, i, layers)
		}
		for j := 0; j < layers; j++ {
			n := int(data.Cells[j])
			if len(data.Grids[i][j]) != n*n {
				return fmt.Errorf(
					"%w: grid of layer %d in run %d has %d cells, not %d.",
					ErrFormat, j, i, len(data.Grids[i][j]), n*n,
				)
			}
		}
	}
	return nil
}

// WriteResult writes data to wr. The header's Endianness and HeaderSize are
// filled in.
func WriteResult(wr io.Writer, data *ResultData) error {
	data.Header.Endianness = endiannessFlag(end)
	data.Header.HeaderSize = int64(binary.Size(&data.Header))
	if err := data.check(); err != nil {
		return err
	}

	if err := binary.Write(wr, end, &data.Header); err != nil {
		return err
	}
	if err := binary.Write(wr, end, data.Cells); err != nil {
		return err
	}
	if err := binary.Write(wr, end, data.Positions); err != nil {
		return err
	}

	for _, xs := range data.Ionisations {
		if err := binary.Write(wr, end, xs); err != nil {
			return err
		}
	}
	for _, xs := range data.Missed {
		if err := binary.Write(wr, end, xs); err != nil {
			return err
		}
	}
	for _, run := range data.Grids {
		for _, grid := range run {
			if err := binary.Write(wr, end, grid); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteResultFile writes data to the file fname.
func WriteResultFile(fname string, data *ResultData) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	wr := bufio.NewWriter(f)
	if err = WriteResult(wr, data); err != nil {
		return err
	}
	if err = wr.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// ReadResult reads a result written by WriteResult.
func ReadResult(rd io.Reader) (*ResultData, error) {
	// The flags are symmetric, so the byte order doesn't matter here.
	flag := make([]byte, 8)
	if _, err := io.ReadFull(rd, flag); err != nil {
		return nil, err
	}
	order, err := endianness(int64(binary.LittleEndian.Uint64(flag)))
	if err != nil {
		return nil, err
	}

	data := &ResultData{}
	hd := &data.Header
	rd = io.MultiReader(bytes.NewReader(flag), rd)
	if err := binary.Read(rd, order, hd); err != nil {
		return nil, err
	}

	if hd.HeaderSize != int64(binary.Size(hd)) {
		return nil, fmt.Errorf(
			"%w: expected header size of %d, found %d.",
			ErrFormat, binary.Size(hd), hd.HeaderSize,
		)
	} else if hd.Runs < 0 || hd.Runs > maxRuns ||
		hd.Layers < 0 || hd.Layers > maxLayers {
		return nil, fmt.Errorf(
			"%w: header has %d runs and %d layers.", ErrFormat, hd.Runs,
			hd.Layers,
		)
	}

	runs, layers := int(hd.Runs), int(hd.Layers)
	data.Cells = make([]int64, layers)
	data.Positions = make([]float64, layers)
	if err := binary.Read(rd, order, data.Cells); err != nil {
		return nil, err
	}
	if err := binary.Read(rd, order, data.Positions); err != nil {
		return nil, err
	}
	for j, n := range data.Cells {
		if n <= 0 || n > maxCells {
			return nil, fmt.Errorf(
				"%w: layer %d has %d cells.", ErrFormat, j, n,
			)
		}
	}

	data.Ionisations = make([][]float64, runs)
	data.Missed = make([][]float64, runs)
	data.Grids = make([][][]float64, runs)

	for _, xss := range [][][]float64{data.Ionisations, data.Missed} {
		for i := range xss {
			xss[i] = make([]float64, layers)
			if err := binary.Read(rd, order, xss[i]); err != nil {
				return nil, err
			}
		}
	}

	for i := range data.Grids {
		data.Grids[i] = make([][]float64, layers)
		for j, n := range data.Cells {
			data.Grids[i][j] = make([]float64, n*n)
			if err := binary.Read(rd, order, data.Grids[i][j]); err != nil {
				return nil, err
			}
		}
	}

	return data, nil
}

// ReadResultFile reads a result from the file fname.
func ReadResultFile(fname string) (*ResultData, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadResult(bufio.NewReader(f))
}

// endiannessFlag converts a byte order into a header flag: -1 for little
// endian and 0 for big endian.
func endiannessFlag(order binary.ByteOrder) int64 {
	if order == binary.LittleEndian {
		return -1
	}
	return 0
}

func endianness(flag int64) (binary.ByteOrder, error) {
	switch flag {
	case -1:
		return binary.LittleEndian, nil
	case 0:
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: unrecognized endianness flag %d.", ErrFormat, flag)
}

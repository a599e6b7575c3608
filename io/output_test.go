package io

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testData() *ResultData {
	return &ResultData{
		Header: ResultHeader{
			Runs: 2, Layers: 2, Seed: 7, Stream: 3, Energy: 2, Sigma: 0.05,
			RadLengths: 0.01, DirZ: 1,
		},
		Cells:       []int64{1, 2},
		Positions:   []float64{0, 40},
		Ionisations: [][]float64{{0, 10}, {0, 12}},
		Missed:      [][]float64{{0, 1}, {0, 0}},
		Grids: [][][]float64{
			{{0}, {1, 2, 3, 3}},
			{{0}, {4, 4, 4, 0}},
		},
	}
}

func TestResultName(t *testing.T) {
	assert.Equal(t, "2.0GeV_10runs_data.gcal", ResultName("", "", 2, 10))
	assert.Equal(t, "pre_0.1GeV_3runs_data_app.gcal",
		ResultName("pre_", "_app", 0.1, 3))
}

func TestResultFile(t *testing.T) {
	data := testData()
	fname := path.Join(t.TempDir(), ResultName("", "", 2, 2))
	require.NoError(t, WriteResultFile(fname, data))

	read, err := ReadResultFile(fname)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), read.Header.Endianness)
	assert.Equal(t, int64(binary.Size(ResultHeader{})), read.Header.HeaderSize)
	assert.Equal(t, data, read)
}

func TestWriteResultMismatch(t *testing.T) {
	table := []func(data *ResultData){
		func(data *ResultData) { data.Header.Runs = 3 },
		func(data *ResultData) { data.Header.Layers = 1 },
		func(data *ResultData) { data.Cells = []int64{1, 3} },
		func(data *ResultData) { data.Missed[1] = []float64{0} },
		func(data *ResultData) { data.Grids[0] = data.Grids[0][:1] },
	}

	for i, modify := range table {
		data := testData()
		modify(data)
		err := WriteResult(&bytes.Buffer{}, data)
		if err == nil {
			t.Errorf("%d) Expected an error from mismatched result.", i+1)
		} else {
			assert.ErrorIs(t, err, ErrFormat)
		}
	}
}

func TestReadResultErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteResult(buf, testData()))
	raw := buf.Bytes()

	// Truncated.
	_, err := ReadResult(bytes.NewReader(raw[:len(raw)-8]))
	assert.Error(t, err)

	// Unknown endianness flag.
	bad := append([]byte{}, raw...)
	bad[0] = 7
	_, err = ReadResult(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrFormat)

	// Wrong header size.
	bad = append([]byte{}, raw...)
	bad[8]++
	_, err = ReadResult(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ReadResult(bytes.NewReader(nil))
	assert.Error(t, err)

	// Corrupt sizes. Runs and Layers are the fourth and fifth header words.
	table := []struct {
		offset int
		value  int64
	}{
		{24, 1 << 50},
		{24, maxRuns + 1},
		{24, -1},
		{32, 1 << 50},
		{32, maxLayers + 1},
		{32, -3},
	}
	for i, test := range table {
		bad = append([]byte{}, raw...)
		binary.LittleEndian.PutUint64(bad[test.offset:], uint64(test.value))
		if _, err = ReadResult(bytes.NewReader(bad)); !errors.Is(err, ErrFormat) {
			t.Errorf("%d) Expected ErrFormat for header word %d = %d, got %v.",
				i+1, test.offset/8, test.value, err)
		}
	}
}

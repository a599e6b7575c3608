package io

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, text string) string {
	fname := path.Join(t.TempDir(), "energies.txt")
	require.NoError(t, os.WriteFile(fname, []byte(text), 0644))
	return fname
}

func TestReadEnergies(t *testing.T) {
	fname := writeTable(t, "0.1 10\n2.0 20\n4.0 5\n")

	energies, runs, err := ReadEnergies(fname, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 2, 4}, energies)
	assert.Equal(t, []int{10, 20, 5}, runs)

	energies, runs, err = ReadEnergies(fname, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 2, 4}, energies)
	assert.Nil(t, runs)
}

func TestReadEnergiesInvalid(t *testing.T) {
	_, _, err := ReadEnergies(writeTable(t, "1.0 10\n-2.0 10\n"), true)
	assert.ErrorIs(t, err, ErrConfig)

	_, _, err = ReadEnergies(writeTable(t, "1.0 10\n2.0 2.5\n"), true)
	assert.ErrorIs(t, err, ErrConfig)

	_, _, err = ReadEnergies(path.Join(t.TempDir(), "missing.txt"), false)
	assert.Error(t, err)
}

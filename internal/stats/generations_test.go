package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationsFileRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGenerationsFile(&buf, []int{3, -1, 0, 17}))
	assert.Equal(t, "3\n-1\n0\n17\n", buf.String())

	values, err := ReadGenerationsFile(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{3, -1, 0, 17}, values)

	_, err = ReadGenerationsFile(strings.NewReader("4\nx\n"))
	require.Error(t, err)
}

func TestGenerationsFileName(t *testing.T) {
	assert.Equal(t,
		"how_many_generations_5x5_100_300_max_gen_k8_popsize_7.txt",
		GenerationsFileName(5, 5, 100, 300, "k8_popsize_7"))
}

func TestSummarizeGenerations(t *testing.T) {
	s := SummarizeGenerations([]int{4, -1, 2, 6, -1, 8})
	assert.Equal(t, 6, s.Runs)
	assert.Equal(t, 4, s.Found)
	assert.Equal(t, 2, s.Failed)
	assert.InDelta(t, 4.0/6.0, s.SuccessRate, 1e-9)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 5.0, s.Median, 1e-9)
	assert.Equal(t, 2, s.Min)
	assert.Equal(t, 8, s.Max)
	assert.InDelta(t, 2.2360679, s.StdDev, 1e-6)

	empty := SummarizeGenerations([]int{-1})
	assert.Equal(t, 0, empty.Found)
	assert.Zero(t, empty.Mean)
}

func TestGenerationsHistogram(t *testing.T) {
	bins, err := GenerationsHistogram([]int{0, 1, 5, 9, -1, 10}, 5)
	require.NoError(t, err)
	assert.Equal(t, []HistogramBin{
		{Lower: 0, Upper: 4, Count: 2},
		{Lower: 5, Upper: 9, Count: 2},
		{Lower: 10, Upper: 14, Count: 1},
	}, bins)

	bins, err = GenerationsHistogram([]int{-1}, 5)
	require.NoError(t, err)
	assert.Empty(t, bins)

	_, err = GenerationsHistogram(nil, 0)
	require.Error(t, err)
}

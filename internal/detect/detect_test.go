package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/RMahshie/tscmscan/internal/spectrogram"
	"github.com/RMahshie/tscmscan/pkg/models"
)

func newSpectrogram(t *testing.T, low, high float64, rows [][]float64) *spectrogram.Spectrogram {
	t.Helper()

	sweeps := make([]models.SweepRow, len(rows))
	for i, bins := range rows {
		sweeps[i] = models.SweepRow{
			Date:       "2024-03-01",
			Time:       "12:00:00",
			FreqLowHz:  low,
			FreqHighHz: high,
			PowerBins:  bins,
			Line:       i + 1,
		}
	}

	sg, err := spectrogram.Build(sweeps)
	require.NoError(t, err)
	return sg
}

// Three sweeps, four bins, bin 2 always 10 dB above the rest.
func toneSpectrogram(t *testing.T) *spectrogram.Spectrogram {
	return newSpectrogram(t, 100e6, 130e6, [][]float64{
		{10, 10, 20, 10},
		{10, 10, 20, 10},
		{10, 10, 20, 10},
	})
}

func TestDetect_PersistentTone(t *testing.T) {
	sg := toneSpectrogram(t)

	res := New(DefaultMarginDB).Detect(sg)

	assert.Equal(t, []float64{100e6, 110e6, 120e6, 130e6}, sg.Axis)
	assert.Equal(t, []float64{10, 10, 20, 10}, res.AvgPower)
	assert.Equal(t, 10.0, res.Baseline)
	assert.Equal(t, 16.0, res.Threshold)
	assert.Equal(t, []models.CandidateRecord{{FreqHz: 120e6, AvgPowerDB: 20}}, res.Candidates)
}

func TestDetect_LargeMarginSuppressesTone(t *testing.T) {
	res := New(15).Detect(toneSpectrogram(t))

	assert.Equal(t, 25.0, res.Threshold)
	assert.Empty(t, res.Candidates)
	assert.NotNil(t, res.Candidates)
}

func TestDetect_FlatSpectrumHasNoCandidates(t *testing.T) {
	sg := newSpectrogram(t, 1e6, 2e6, [][]float64{
		{-40, -40, -40, -40, -40},
		{-40, -40, -40, -40, -40},
	})

	for _, margin := range []float64{0, 0.5, DefaultMarginDB} {
		res := New(margin).Detect(sg)
		assert.Empty(t, res.Candidates, "margin %v", margin)
	}
}

func TestDetect_SingleSweep(t *testing.T) {
	row := []float64{-60, -58, -45, -61, -30}
	sg := newSpectrogram(t, 400e6, 404e6, [][]float64{row})

	res := New(DefaultMarginDB).Detect(sg)

	assert.Equal(t, row, res.AvgPower)
	assert.Equal(t, -58.0, res.Baseline)
	assert.Equal(t, []models.CandidateRecord{
		{FreqHz: 402e6, AvgPowerDB: -45},
		{FreqHz: 404e6, AvgPowerDB: -30},
	}, res.Candidates)
}

func TestDetect_TieAtThresholdExcluded(t *testing.T) {
	sg := newSpectrogram(t, 0, 2, [][]float64{{0, 0, 6}})

	res := New(6).Detect(sg)
	assert.Equal(t, 6.0, res.Threshold)
	assert.Empty(t, res.Candidates)
}

func TestDetect_OrderedByFrequency(t *testing.T) {
	sg := newSpectrogram(t, 0, 5, [][]float64{{0, 40, 0, 20, 0, 30}})

	res := New(DefaultMarginDB).Detect(sg)
	require.Len(t, res.Candidates, 3)
	for i := 1; i < len(res.Candidates); i++ {
		assert.Less(t, res.Candidates[i-1].FreqHz, res.Candidates[i].FreqHz)
	}
}

func TestDetect_MarginMonotonic(t *testing.T) {
	sg := newSpectrogram(t, 0, 9, [][]float64{
		{1, 3, 9, 2, 14, 5, 7, 22, 3, 4},
		{2, 4, 8, 1, 12, 6, 9, 18, 2, 5},
	})

	prev := -1
	for margin := 0.0; margin <= 20; margin += 0.5 {
		n := len(New(margin).Detect(sg).Candidates)
		if prev >= 0 {
			assert.LessOrEqual(t, n, prev, "margin %v", margin)
		}
		prev = n
	}
}

func TestDetect_MedianReducerIgnoresOutlierSweep(t *testing.T) {
	sg := newSpectrogram(t, 0, 3, [][]float64{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 60, 0, 0},
	})

	mean := Detector{MarginDB: DefaultMarginDB, Reducer: ReducerMean}.Detect(sg)
	median := Detector{MarginDB: DefaultMarginDB, Reducer: ReducerMedian}.Detect(sg)

	assert.Len(t, mean.Candidates, 1)
	assert.Empty(t, median.Candidates)
}

func TestReduce(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		10, 40,
	})

	assert.Equal(t, []float64{4, 25}, Reduce(m, ReducerMean))
	assert.Equal(t, []float64{2.5, 25}, Reduce(m, ReducerMedian))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want float64
	}{
		{name: "empty", data: nil, want: 0},
		{name: "single", data: []float64{3}, want: 3},
		{name: "odd", data: []float64{5, 1, 3}, want: 3},
		{name: "even", data: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "duplicates", data: []float64{10, 10, 20, 10}, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]float64(nil), tt.data...)
			assert.Equal(t, tt.want, Median(input))
			assert.Equal(t, tt.data, input, "input must not be reordered")
		})
	}
}

func TestParseReducer(t *testing.T) {
	r, err := ParseReducer("")
	require.NoError(t, err)
	assert.Equal(t, ReducerMean, r)

	r, err = ParseReducer(" Median ")
	require.NoError(t, err)
	assert.Equal(t, ReducerMedian, r)

	_, err = ParseReducer("max")
	assert.Error(t, err)
}

package analytics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

func series(n int, f func(i int) float64) ([]float64, []float64) {
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		y[i] = f(i)
	}
	return x, y
}

func TestDownsample_NoReductionNeeded(t *testing.T) {
	x, y := series(5, func(i int) float64 { return float64(i * i) })

	for _, target := range []int{5, 10, 0, 1, 2} {
		indices, err := Downsample(x, y, target)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, indices, "target %d", target)
	}
}

func TestDownsample_EmptyAndSinglePoint(t *testing.T) {
	indices, err := Downsample([]float64{}, []float64{}, 10)
	require.NoError(t, err)
	assert.Empty(t, indices)

	indices, err = Downsample([]float64{1}, []float64{10}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, indices)
}

func TestDownsample_InvalidArguments(t *testing.T) {
	_, err := Downsample([]float64{1, 2, 3}, []float64{1, 2}, 2)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = Downsample([]float64{1, 2, 3}, []float64{1, 2, 3}, -1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestDownsample_ExactTargetAndOrdering(t *testing.T) {
	x, y := series(1000, func(i int) float64 { return math.Sin(float64(i) / 30) })

	for _, target := range []int{3, 10, 57, 100, 999} {
		indices, err := Downsample(x, y, target)
		require.NoError(t, err)
		require.Len(t, indices, target)
		assert.Equal(t, 0, indices[0])
		assert.Equal(t, 999, indices[len(indices)-1])
		for i := 1; i < len(indices); i++ {
			assert.Greater(t, indices[i], indices[i-1], "target %d position %d", target, i)
		}
	}
}

func TestDownsample_PreservesSpike(t *testing.T) {
	x, y := series(100, func(i int) float64 {
		if i == 40 {
			return 100
		}
		return 0
	})

	indices, err := Downsample(x, y, 20)
	require.NoError(t, err)

	found := false
	for _, idx := range indices {
		if idx >= 39 && idx <= 41 {
			found = true
		}
	}
	assert.True(t, found, "spike should survive downsampling, got %v", indices)
}

func TestDownsample_TiesPickEarliestIndex(t *testing.T) {
	// All points collinear, every triangle has zero area
	x, y := series(10, func(i int) float64 { return 0 })

	indices, err := Downsample(x, y, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 5, 9}, indices)
}

func TestDownsample_Deterministic(t *testing.T) {
	x, y := series(500, func(i int) float64 { return float64((i * 7919) % 113) })

	first, err := Downsample(x, y, 50)
	require.NoError(t, err)
	second, err := Downsample(x, y, 50)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDownsampleSamples(t *testing.T) {
	samples := make([]models.TelemetrySample, 300)
	for i := range samples {
		samples[i] = models.TelemetrySample{
			Distance: float64(i) * 10,
			Speed:    200 + 100*math.Sin(float64(i)/20),
			Gear:     int32(1 + i%8),
		}
	}

	out, err := DownsampleSamples(samples, 60)
	require.NoError(t, err)
	require.Len(t, out, 60)
	assert.Equal(t, samples[0], out[0])
	assert.Equal(t, samples[299], out[59])

	// Speed range should be preserved by shape-aware selection
	minSpeed, maxSpeed := math.Inf(1), math.Inf(-1)
	for _, s := range out {
		minSpeed = math.Min(minSpeed, s.Speed)
		maxSpeed = math.Max(maxSpeed, s.Speed)
	}
	assert.Greater(t, maxSpeed-minSpeed, 150.0)

	short, err := DownsampleSamples(samples[:10], 60)
	require.NoError(t, err)
	assert.Equal(t, samples[:10], short)
}

func BenchmarkDownsample(b *testing.B) {
	x, y := series(20000, func(i int) float64 { return math.Sin(float64(i) / 50) })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Downsample(x, y, 1000)
	}
}

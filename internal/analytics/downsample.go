// Package analytics реализует числовой движок аналитики телеметрии:
// LTTB-прореживание трасс, выравнивание кругов по дистанции с расчетом дельты,
// разбиение гонки на отрезки по шинам, поиск выбросов и оценку деградации.
// Все функции чистые и не держат состояния, кроме пула PaceAnalyzer.
package analytics

import (
	"fmt"
	"math"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

// Downsample выбирает индексы точек по алгоритму Largest-Triangle-Three-Buckets.
// Возвращает строго возрастающие индексы; первый и последний индекс сохраняются всегда.
// Если n <= target или target < 3, возвращаются все индексы [0, n).
func Downsample(x, y []float64, target int) ([]int, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: x has %d points, y has %d", ErrInvalidArgument, len(x), len(y))
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: negative target %d", ErrInvalidArgument, target)
	}

	n := len(x)
	if n <= target || target < 3 {
		return identity(n), nil
	}

	sampled := make([]int, 0, target)
	sampled = append(sampled, 0)

	// Ширина корзины без первой и последней точки
	bucketSize := float64(n-2) / float64(target-2)
	lastBucket := target - 3
	prev := 0

	for i := 0; i <= lastBucket; i++ {
		start := int(math.Floor(float64(i)*bucketSize)) + 1
		end := int(math.Floor(float64(i+1)*bucketSize)) + 1
		if i == lastBucket {
			end = n - 1
		}

		// Центроид следующей корзины; для последней это точка n-1
		nextStart := end
		nextEnd := int(math.Floor(float64(i+2)*bucketSize)) + 1
		if nextEnd > n || i == lastBucket {
			nextEnd = n
		}
		avgX, avgY := centroid(x, y, nextStart, nextEnd)

		px, py := x[prev], y[prev]
		maxArea := -1.0
		maxIdx := start
		for j := start; j < end; j++ {
			area := math.Abs((px-avgX)*(y[j]-py)-(px-x[j])*(avgY-py)) * 0.5
			if area > maxArea {
				maxArea = area
				maxIdx = j
			}
		}

		sampled = append(sampled, maxIdx)
		prev = maxIdx
	}

	sampled = append(sampled, n-1)
	return sampled, nil
}

// DownsampleSamples прореживает телеметрию круга по паре (дистанция, скорость)
func DownsampleSamples(samples []models.TelemetrySample, target int) ([]models.TelemetrySample, error) {
	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = s.Distance
		y[i] = s.Speed
	}

	indices, err := Downsample(x, y, target)
	if err != nil {
		return nil, err
	}

	out := make([]models.TelemetrySample, len(indices))
	for i, idx := range indices {
		out[i] = samples[idx]
	}
	return out, nil
}

func centroid(x, y []float64, start, end int) (float64, float64) {
	var sumX, sumY float64
	for k := start; k < end; k++ {
		sumX += x[k]
		sumY += y[k]
	}
	count := float64(end - start)
	return sumX / count, sumY / count
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

package analytics

import (
	"math"

	"golang.org/x/exp/slices"
)

// Mean возвращает среднее значение, 0 для пустого набора
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median возвращает медиану, 0 для пустого набора. Входной срез не изменяется.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Min возвращает минимальное значение, 0 для пустого набора
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := math.Inf(1)
	for _, v := range values {
		if v < m {
			m = v
		}
	}
	return m
}

// Slope возвращает наклон прямой МНК для values по индексам 0..n-1.
// Для менее чем двух точек наклон 0.
func Slope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	// x = 0..n-1, центрируем по среднему индексу
	meanX := float64(n-1) / 2
	meanY := Mean(values)
	var sxy, sxx float64
	for i, y := range values {
		dx := float64(i) - meanX
		sxy += dx * (y - meanY)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0
	}
	return sxy / sxx
}

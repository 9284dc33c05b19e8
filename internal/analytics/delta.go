package analytics

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

// ComputeDelta выравнивает два круга по общей сетке дистанции и считает
// дельту времени timeB - timeA в maxPoints равномерно распределенных точках.
// Если у какой-либо трассы нет накопленного времени или диапазоны дистанций
// не пересекаются, возвращается пустой результат без ошибки.
func ComputeDelta(a, b models.LapTrace, maxPoints int) ([]models.DeltaPoint, error) {
	if maxPoints < 0 {
		return nil, fmt.Errorf("%w: negative max points %d", ErrInvalidArgument, maxPoints)
	}

	distA, timeA, okA := elapsedSeries(a.Samples)
	distB, timeB, okB := elapsedSeries(b.Samples)
	if maxPoints == 0 || !okA || !okB {
		return []models.DeltaPoint{}, nil
	}

	lo := math.Max(distA[0], distB[0])
	hi := math.Min(distA[len(distA)-1], distB[len(distB)-1])
	if lo > hi {
		return []models.DeltaPoint{}, nil
	}

	points := make([]models.DeltaPoint, maxPoints)
	for k := 0; k < maxPoints; k++ {
		d := lo
		if maxPoints > 1 {
			d = lo + (hi-lo)*float64(k)/float64(maxPoints-1)
		}
		if k == maxPoints-1 && maxPoints > 1 {
			d = hi
		}
		points[k] = models.DeltaPoint{
			Distance: d,
			Delta:    interpolate(distB, timeB, d) - interpolate(distA, timeA, d),
		}
	}
	return points, nil
}

// SummarizeDelta считает итоговую дельту, максимальные преимущества
// каждого пилота и количество смен лидера по кривой дельты
func SummarizeDelta(driverA, driverB string, delta []models.DeltaPoint) models.DeltaSummary {
	if len(delta) == 0 {
		return models.DeltaSummary{}
	}

	final := delta[len(delta)-1].Delta
	summary := models.DeltaSummary{FinalDelta: final, Leader: driverB}
	if final > 0 {
		summary.Leader = driverA
	}

	maxIdx, minIdx := 0, 0
	for i := 1; i < len(delta); i++ {
		if delta[i].Delta > delta[maxIdx].Delta {
			maxIdx = i
		}
		if delta[i].Delta < delta[minIdx].Delta {
			minIdx = i
		}
		if (delta[i].Delta > 0) != (delta[i-1].Delta > 0) {
			summary.LeadChanges++
		}
	}

	if delta[maxIdx].Delta > 0 {
		summary.MaxAdvantageA = delta[maxIdx].Delta
		summary.MaxAdvantageADistance = delta[maxIdx].Distance
	}
	if delta[minIdx].Delta < 0 {
		summary.MaxAdvantageB = -delta[minIdx].Delta
		summary.MaxAdvantageBDistance = delta[minIdx].Distance
	}
	return summary
}

// elapsedSeries извлекает дистанцию и время; ok=false если хотя бы у одной точки нет времени
func elapsedSeries(samples []models.TelemetrySample) ([]float64, []float64, bool) {
	if len(samples) == 0 {
		return nil, nil, false
	}
	dist := make([]float64, len(samples))
	elapsed := make([]float64, len(samples))
	for i, s := range samples {
		if s.Time == nil {
			return nil, nil, false
		}
		dist[i] = s.Distance
		elapsed[i] = *s.Time
	}
	return dist, elapsed, true
}

// interpolate линейно интерполирует ys(x) по отсортированным xs,
// за пределами диапазона возвращает крайние значения
func interpolate(xs, ys []float64, x float64) float64 {
	last := len(xs) - 1
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[last] {
		return ys[last]
	}

	// i первый индекс с xs[i] >= x, xs[i-1] < x
	i, found := slices.BinarySearch(xs, x)
	if found {
		return ys[i]
	}
	x0, x1 := xs[i-1], xs[i]
	if x1 == x0 {
		return ys[i]
	}
	t := (x - x0) / (x1 - x0)
	return ys[i-1] + t*(ys[i]-ys[i-1])
}

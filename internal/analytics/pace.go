package analytics

import (
	"github.com/Tejasvaidya10/laplens/internal/models"
)

const (
	// OutlierFactor порог выброса: круг медленнее 107% медианы
	OutlierFactor = 1.07
	// MinDegradationLaps минимальное число чистых кругов для регрессии
	MinDegradationLaps = 3
)

// ClassifyLaps помечает круги-выбросы относительно медианы кругов без пит-лейна.
// Возвращает флаг для каждого входного круга в том же порядке.
// Пит-круги и круги без времени выбросами не считаются.
func ClassifyLaps(laps []models.LapRecord) []bool {
	flags := make([]bool, len(laps))

	times := make([]float64, 0, len(laps))
	for _, lap := range laps {
		if lap.HasTime() && !lap.IsPitLap() {
			times = append(times, *lap.LapTime)
		}
	}
	if len(times) == 0 {
		return flags
	}

	threshold := Median(times) * OutlierFactor
	for i, lap := range laps {
		flags[i] = lap.HasTime() && !lap.IsPitLap() && *lap.LapTime > threshold
	}
	return flags
}

// SummarizeStint считает среднее, лучшее время и скорость деградации отрезка.
// outliers параллелен laps. Если чистых кругов нет, берутся все круги отрезка со временем.
func SummarizeStint(stint models.Stint, laps []models.LapRecord, outliers []bool) models.StintSummary {
	summary := models.StintSummary{Stint: stint}

	var clean, all []float64
	for i, lap := range laps {
		if lap.LapNumber < stint.StartLap || lap.LapNumber > stint.EndLap || !lap.HasTime() {
			continue
		}
		all = append(all, *lap.LapTime)
		outlier := i < len(outliers) && outliers[i]
		if !lap.IsPitLap() && !outlier {
			clean = append(clean, *lap.LapTime)
		}
	}

	if len(clean) == 0 {
		clean = all
	}
	if len(clean) == 0 {
		return summary
	}

	summary.AvgLapTime = Mean(clean)
	summary.BestLapTime = Min(clean)
	if len(clean) >= MinDegradationLaps {
		summary.DegRate = Slope(clean)
	}
	return summary
}

// AnalyzeRacePace прогоняет конвейер отрезки -> выбросы -> деградация для одного пилота
func AnalyzeRacePace(driver string, laps []models.LapRecord) models.DriverPace {
	pace := models.DriverPace{
		Driver: driver,
		Laps:   make([]models.PaceLap, 0, len(laps)),
		Stints: make([]models.StintSummary, 0),
	}
	if len(laps) == 0 {
		return pace
	}

	ordered := sortedByLap(laps)
	stints, _ := SegmentStints(driver, ordered)
	outliers := ClassifyLaps(ordered)

	for i, lap := range ordered {
		if !lap.HasTime() {
			continue
		}
		pace.Laps = append(pace.Laps, models.PaceLap{
			Lap:       lap.LapNumber,
			LapTime:   *lap.LapTime,
			Compound:  lap.Compound,
			Stint:     StintForLap(stints, lap.LapNumber),
			IsPitLap:  lap.IsPitLap(),
			IsOutlier: outliers[i],
		})
		pace.TotalRaceTime += *lap.LapTime
	}

	for _, stint := range stints {
		pace.Stints = append(pace.Stints, SummarizeStint(stint, ordered, outliers))
	}
	return pace
}

// FastestLap возвращает самый быстрый круг со временем; при равенстве побеждает более ранний
func FastestLap(laps []models.LapRecord) (models.LapRecord, bool) {
	var best models.LapRecord
	found := false
	for _, lap := range sortedByLap(laps) {
		if !lap.HasTime() {
			continue
		}
		if !found || *lap.LapTime < *best.LapTime {
			best = lap
			found = true
		}
	}
	return best, found
}

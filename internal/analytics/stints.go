package analytics

import (
	"sort"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

// SegmentStints разбивает круги пилота на отрезки по смене состава шин.
// Номера отрезков пересчитываются с 1, номер стинта из исходных данных игнорируется.
// Возврат к ранее использованному составу тоже начинает новый отрезок.
func SegmentStints(driver string, laps []models.LapRecord) ([]models.Stint, []models.PitStopEvent) {
	stints := make([]models.Stint, 0)
	pitStops := make([]models.PitStopEvent, 0)
	if len(laps) == 0 {
		return stints, pitStops
	}

	ordered := sortedByLap(laps)

	stintNumber := 1
	stintStart := ordered[0].LapNumber
	current := ordered[0].Compound

	for i := 1; i < len(ordered); i++ {
		lap := ordered[i]
		if lap.Compound == current {
			continue
		}

		end := ordered[i-1].LapNumber
		stints = append(stints, newStint(driver, stintNumber, current, stintStart, end))
		pitStops = append(pitStops, models.PitStopEvent{Driver: driver, Lap: lap.LapNumber})

		stintNumber++
		stintStart = lap.LapNumber
		current = lap.Compound
	}

	last := ordered[len(ordered)-1].LapNumber
	stints = append(stints, newStint(driver, stintNumber, current, stintStart, last))
	return stints, pitStops
}

// Strategy строит стратегию по шинам для всех пилотов сессии.
// Пилоты перечисляются в порядке первого появления во входных данных.
func Strategy(laps []models.LapRecord) models.StrategyData {
	data := models.StrategyData{
		Stints:   make([]models.Stint, 0),
		PitStops: make([]models.PitStopEvent, 0),
	}

	order, byDriver := GroupByDriver(laps)
	for _, driver := range order {
		stints, pitStops := SegmentStints(driver, byDriver[driver])
		data.Stints = append(data.Stints, stints...)
		data.PitStops = append(data.PitStops, pitStops...)
	}

	data.TotalLaps = TotalLaps(laps)
	return data
}

// TotalLaps возвращает максимальный номер круга, 0 для пустого набора
func TotalLaps(laps []models.LapRecord) int {
	total := 0
	for _, lap := range laps {
		if lap.LapNumber > total {
			total = lap.LapNumber
		}
	}
	return total
}

// StintForLap возвращает номер отрезка, которому принадлежит круг, или 0
func StintForLap(stints []models.Stint, lapNumber int) int {
	for _, s := range stints {
		if lapNumber >= s.StartLap && lapNumber <= s.EndLap {
			return s.StintNumber
		}
	}
	return 0
}

func newStint(driver string, number int, compound models.Compound, start, end int) models.Stint {
	return models.Stint{
		Driver:      driver,
		StintNumber: number,
		Compound:    compound,
		StartLap:    start,
		EndLap:      end,
		Laps:        end - start + 1,
	}
}

// sortedByLap возвращает копию, отсортированную по номеру круга
func sortedByLap(laps []models.LapRecord) []models.LapRecord {
	ordered := make([]models.LapRecord, len(laps))
	copy(ordered, laps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LapNumber < ordered[j].LapNumber
	})
	return ordered
}

// GroupByDriver группирует круги по пилотам в порядке первого появления
func GroupByDriver(laps []models.LapRecord) ([]string, map[string][]models.LapRecord) {
	order := make([]string, 0)
	byDriver := make(map[string][]models.LapRecord)
	for _, lap := range laps {
		if _, ok := byDriver[lap.Driver]; !ok {
			order = append(order, lap.Driver)
		}
		byDriver[lap.Driver] = append(byDriver[lap.Driver], lap)
	}
	return order, byDriver
}

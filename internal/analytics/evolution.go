package analytics

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

// TrackEvolution строит прогресс лучшего времени сессии по номерам кругов.
// Учитываются только точные круги со временем; точка добавляется при улучшении рекорда.
func TrackEvolution(laps []models.LapRecord) models.TrackEvolution {
	evolution := models.TrackEvolution{Points: make([]models.TrackEvolutionPoint, 0)}

	fastest := make(map[int]models.LapRecord)
	lapNumbers := make([]int, 0)
	for _, lap := range laps {
		if !lap.HasTime() || !lap.IsAccurate {
			continue
		}
		current, ok := fastest[lap.LapNumber]
		if !ok {
			lapNumbers = append(lapNumbers, lap.LapNumber)
		}
		if !ok || *lap.LapTime < *current.LapTime {
			fastest[lap.LapNumber] = lap
		}
	}
	if len(lapNumbers) == 0 {
		return evolution
	}
	slices.Sort(lapNumbers)

	best := math.Inf(1)
	for _, n := range lapNumbers {
		lap := fastest[n]
		if *lap.LapTime >= best {
			continue
		}
		best = *lap.LapTime

		point := models.TrackEvolutionPoint{Lap: n, BestTime: best, Driver: lap.Driver}
		if lap.Compound != "" && lap.Compound != models.CompoundUnknown {
			compound := lap.Compound
			point.Compound = &compound
		}
		evolution.Points = append(evolution.Points, point)
	}

	if len(evolution.Points) >= 2 {
		first := evolution.Points[0].BestTime
		last := evolution.Points[len(evolution.Points)-1].BestTime
		evolution.ImprovementRate = (first - last) / float64(len(evolution.Points))
	}
	return evolution
}

// PositionHistory возвращает историю позиций по кругам для каждого пилота.
// Пилоты без единой позиции пропускаются.
func PositionHistory(laps []models.LapRecord) []models.PositionData {
	result := make([]models.PositionData, 0)

	order, byDriver := GroupByDriver(laps)
	for _, driver := range order {
		positions := make([]models.PositionPoint, 0)
		for _, lap := range sortedByLap(byDriver[driver]) {
			if lap.Position == nil {
				continue
			}
			positions = append(positions, models.PositionPoint{Lap: lap.LapNumber, Position: *lap.Position})
		}
		if len(positions) > 0 {
			result = append(result, models.PositionData{Driver: driver, Positions: positions})
		}
	}
	return result
}

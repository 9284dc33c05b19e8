// Package report печатает стратегию и темп гонки в виде текстовых таблиц
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Tejasvaidya10/laplens/internal/analytics"
	"github.com/Tejasvaidya10/laplens/internal/models"
)

const (
	colDriver   = "Driver"
	colStint    = "Stint"
	colCompound = "Compound"
	colLaps     = "Laps"
	colAvg      = "Avg"
	colBest     = "Best"
	colDeg      = "Deg/lap"
	colLap      = "Lap"
	colDuration = "Duration"
	colTotal    = "Total"
	colOutliers = "Outliers"
)

// Analyze считает стратегию и темп по кругам сессии; пустой список пилотов означает всех.
// Пилоты без кругов пропускаются.
func Analyze(ctx context.Context, analyzer *analytics.PaceAnalyzer, laps []models.LapRecord, drivers []string) (models.StrategyData, models.RacePace, error) {
	strategy := analytics.Strategy(laps)

	paces, err := analyzer.Analyze(ctx, analytics.PaceInputs(laps, drivers))
	if err != nil {
		return strategy, models.RacePace{}, fmt.Errorf("failed to analyze race pace: %w", err)
	}

	pace := models.RacePace{
		Drivers:       paces,
		TotalLaps:     strategy.TotalLaps,
		SafetyCarLaps: []int{},
		VSCLaps:       []int{},
	}
	return strategy, pace, nil
}

// Write печатает таблицы темпа, отрезков и пит-стопов
func Write(w io.Writer, strategy models.StrategyData, pace models.RacePace) {
	fmt.Fprintf(w, "Race: %d laps\n", strategy.TotalLaps)
	PaceTable(w, pace)
	StintTable(w, pace)
	PitStopTable(w, strategy)
}

// PaceTable итог гонки по пилотам
func PaceTable(w io.Writer, pace models.RacePace) {
	t := newTable(w)
	t.AppendHeader(table.Row{colDriver, colLaps, colTotal, colOutliers})
	for _, d := range pace.Drivers {
		outliers := 0
		for _, lap := range d.Laps {
			if lap.IsOutlier {
				outliers++
			}
		}
		t.AppendRow(table.Row{d.Driver, len(d.Laps), FormatLapTime(d.TotalRaceTime), outliers})
	}
	t.Render()
}

// StintTable статистика отрезков каждого пилота
func StintTable(w io.Writer, pace models.RacePace) {
	t := newTable(w)
	t.AppendHeader(table.Row{colDriver, colStint, colCompound, colLaps, colAvg, colBest, colDeg})
	for _, d := range pace.Drivers {
		for _, s := range d.Stints {
			t.AppendRow(table.Row{
				d.Driver,
				s.StintNumber,
				s.Compound,
				fmt.Sprintf("%d-%d", s.StartLap, s.EndLap),
				FormatLapTime(s.AvgLapTime),
				FormatLapTime(s.BestLapTime),
				fmt.Sprintf("%+.3f", s.DegRate),
			})
		}
		t.AppendSeparator()
	}
	t.Render()
}

// PitStopTable смены шин
func PitStopTable(w io.Writer, strategy models.StrategyData) {
	t := newTable(w)
	t.AppendHeader(table.Row{colDriver, colLap, colDuration})
	for _, p := range strategy.PitStops {
		duration := "-"
		if p.Duration != nil {
			duration = fmt.Sprintf("%.3f", *p.Duration)
		}
		t.AppendRow(table.Row{p.Driver, p.Lap, duration})
	}
	t.Render()
}

// FormatLapTime форматирует секунды как m:ss.mmm
func FormatLapTime(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	ms := int64(seconds*1000 + 0.5)
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

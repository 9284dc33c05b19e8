package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

func TestTrackEvolution(t *testing.T) {
	laps := []models.LapRecord{
		{Driver: "VER", LapNumber: 1, LapTime: ptr(92.0), Compound: models.CompoundSoft, IsAccurate: true},
		{Driver: "HAM", LapNumber: 1, LapTime: ptr(91.5), Compound: models.CompoundMedium, IsAccurate: true},
		{Driver: "VER", LapNumber: 2, LapTime: ptr(91.0), Compound: models.CompoundSoft, IsAccurate: true},
		{Driver: "HAM", LapNumber: 2, LapTime: ptr(91.2), Compound: models.CompoundMedium, IsAccurate: true},
		{Driver: "VER", LapNumber: 3, LapTime: ptr(91.5), Compound: models.CompoundSoft, IsAccurate: true},
		{Driver: "HAM", LapNumber: 4, LapTime: ptr(90.0), Compound: models.CompoundMedium, IsAccurate: false},
		{Driver: "VER", LapNumber: 4, LapTime: ptr(90.5), Compound: models.CompoundUnknown, IsAccurate: true},
		{Driver: "HAM", LapNumber: 5, IsAccurate: true},
	}

	evolution := TrackEvolution(laps)

	require.Len(t, evolution.Points, 3)
	assert.Equal(t, 1, evolution.Points[0].Lap)
	assert.Equal(t, "HAM", evolution.Points[0].Driver)
	require.NotNil(t, evolution.Points[0].Compound)
	assert.Equal(t, models.CompoundMedium, *evolution.Points[0].Compound)
	assert.Equal(t, 2, evolution.Points[1].Lap)
	assert.Equal(t, 4, evolution.Points[2].Lap)
	assert.Equal(t, 90.5, evolution.Points[2].BestTime)
	assert.Nil(t, evolution.Points[2].Compound)
	assert.InDelta(t, 1.0/3.0, evolution.ImprovementRate, 1e-9)
}

func TestTrackEvolution_SinglePointAndEmpty(t *testing.T) {
	single := TrackEvolution(timedLaps("VER", models.CompoundSoft, 90, 91, 92))
	require.Len(t, single.Points, 1)
	assert.Equal(t, 0.0, single.ImprovementRate)

	empty := TrackEvolution(nil)
	assert.Empty(t, empty.Points)
	assert.Equal(t, 0.0, empty.ImprovementRate)
}

func TestPositionHistory(t *testing.T) {
	laps := []models.LapRecord{
		{Driver: "VER", LapNumber: 2, Position: ptr(1)},
		{Driver: "VER", LapNumber: 1, Position: ptr(2)},
		{Driver: "SAR", LapNumber: 1},
		{Driver: "HAM", LapNumber: 1, Position: ptr(1)},
		{Driver: "HAM", LapNumber: 2},
	}

	history := PositionHistory(laps)
	require.Len(t, history, 2)
	assert.Equal(t, "VER", history[0].Driver)
	assert.Equal(t, []models.PositionPoint{{Lap: 1, Position: 2}, {Lap: 2, Position: 1}}, history[0].Positions)
	assert.Equal(t, "HAM", history[1].Driver)
	assert.Len(t, history[1].Positions, 1)
}

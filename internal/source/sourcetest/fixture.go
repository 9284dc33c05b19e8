// Package sourcetest собирает тестовую сессию на диске для FileSource
package sourcetest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tejasvaidya10/laplens/internal/models"
	"github.com/Tejasvaidya10/laplens/internal/source"
)

// Key ключ тестовой сессии
var Key = source.SessionKey{Season: 2023, Event: "Bahrain Grand Prix", Session: "R"}

// Session возвращает четырехкруговую гонку двух пилотов.
// VER меняет MEDIUM на HARD на 4-м круге, быстрейшие круги VER 2 (90.0) и HAM 3 (90.5).
// Телеметрия HAM отстает на 0.5с к финишу круга.
func Session() source.SessionFile {
	laps := []models.LapRecord{
		lap("VER", 1, 92, models.CompoundMedium, 1),
		lap("VER", 2, 90, models.CompoundMedium, 1),
		lap("VER", 3, 91, models.CompoundMedium, 1),
		lap("VER", 4, 95, models.CompoundHard, 1),
		lap("HAM", 1, 93, models.CompoundMedium, 2),
		lap("HAM", 2, 91, models.CompoundMedium, 2),
		lap("HAM", 3, 90.5, models.CompoundMedium, 2),
		lap("HAM", 4, 92, models.CompoundMedium, 2),
	}
	laps[2].PitIn = true
	laps[3].PitOut = true

	return source.SessionFile{
		Drivers: []models.Driver{
			{Code: "VER", Name: "Max Verstappen", Team: "Red Bull Racing", TeamColor: "#3671C6", Number: 1},
			{Code: "HAM", Name: "Lewis Hamilton", Team: "Mercedes", TeamColor: "#27F4D2", Number: 44},
		},
		Laps: laps,
		Telemetry: []models.LapTrace{
			trace("VER", 2, 0),
			trace("HAM", 3, 0.5),
		},
	}
}

// Write записывает тестовую сессию в каталог dir
func Write(t testing.TB, dir string) source.SessionKey {
	t.Helper()
	path := source.NewFileSource(dir).Path(Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := json.Marshal(Session())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return Key
}

func lap(driver string, n int, seconds float64, compound models.Compound, position int) models.LapRecord {
	s1 := seconds / 3
	return models.LapRecord{
		Driver:     driver,
		LapNumber:  n,
		LapTime:    &seconds,
		Compound:   compound,
		Position:   &position,
		IsAccurate: true,
		Sector1:    &s1,
	}
}

// trace телеметрия на 1000 м, 11 точек; loss добавляется линейно к финишу
func trace(driver string, n int, loss float64) models.LapTrace {
	samples := make([]models.TelemetrySample, 0, 11)
	for i := 0; i <= 10; i++ {
		d := float64(i) * 100
		elapsed := d/50 + loss*d/1000
		samples = append(samples, models.TelemetrySample{
			Distance: d,
			Speed:    180,
			Throttle: 100,
			Gear:     6,
			Time:     &elapsed,
		})
	}
	return models.LapTrace{Driver: driver, LapNumber: n, Samples: samples}
}

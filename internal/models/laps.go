package models

import "strings"

// Compound тип шин
type Compound string

const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
	CompoundUnknown      Compound = "UNKNOWN"
)

// NormalizeCompound приводит название состава к верхнему регистру, пустое значение к UNKNOWN
func NormalizeCompound(s string) Compound {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "NAN" || s == "NONE" {
		return CompoundUnknown
	}
	return Compound(s)
}

// LapRecord одна строка хронометража: пилот, круг, время, шины, пит-флаги
type LapRecord struct {
	Driver     string   `json:"driver"`
	LapNumber  int      `json:"lapNumber"`
	LapTime    *float64 `json:"lapTime,omitempty"`
	Compound   Compound `json:"compound"`
	Stint      *int     `json:"stint,omitempty"`
	PitIn      bool     `json:"pitIn"`
	PitOut     bool     `json:"pitOut"`
	Position   *int     `json:"position,omitempty"`
	IsAccurate bool     `json:"isAccurate"`
	Sector1    *float64 `json:"sector1,omitempty"`
	Sector2    *float64 `json:"sector2,omitempty"`
	Sector3    *float64 `json:"sector3,omitempty"`
}

// IsPitLap сообщает, является ли круг кругом въезда или выезда с пит-лейна
func (l LapRecord) IsPitLap() bool {
	return l.PitIn || l.PitOut
}

// HasTime сообщает, есть ли у круга валидное время
func (l LapRecord) HasTime() bool {
	return l.LapTime != nil
}

// Sectors возвращает времена секторов круга
func (l LapRecord) Sectors() SectorTimes {
	return SectorTimes{Sector1: l.Sector1, Sector2: l.Sector2, Sector3: l.Sector3}
}

// Stint отрезок гонки на одном комплекте шин
type Stint struct {
	Driver      string   `json:"driver"`
	StintNumber int      `json:"stintNumber"`
	Compound    Compound `json:"compound"`
	StartLap    int      `json:"startLap"`
	EndLap      int      `json:"endLap"`
	Laps        int      `json:"laps"`
}

// PitStopEvent смена шин, обнаруженная на круге Lap.
// Duration всегда пустое: длительность остановки не вычисляется.
type PitStopEvent struct {
	Driver   string   `json:"driver"`
	Lap      int      `json:"lap"`
	Duration *float64 `json:"duration"`
}

// StintSummary статистика отрезка по "чистым" кругам
type StintSummary struct {
	Stint
	AvgLapTime  float64 `json:"avgLapTime"`
	BestLapTime float64 `json:"bestLapTime"`
	DegRate     float64 `json:"degRate"`
}

// PaceLap круг с флагами для графика темпа
type PaceLap struct {
	Lap       int      `json:"lap"`
	LapTime   float64  `json:"lapTime"`
	Compound  Compound `json:"compound"`
	Stint     int      `json:"stint"`
	IsPitLap  bool     `json:"isPitLap"`
	IsOutlier bool     `json:"isOutlier"`
}

// DriverPace темп одного пилота
type DriverPace struct {
	Driver        string         `json:"driver"`
	Team          string         `json:"team,omitempty"`
	TeamColor     string         `json:"teamColor,omitempty"`
	Laps          []PaceLap      `json:"laps"`
	Stints        []StintSummary `json:"stints"`
	TotalRaceTime float64        `json:"totalRaceTime"`
}

// RacePace результат анализа темпа по нескольким пилотам.
// SafetyCarLaps и VSCLaps не вычисляются и всегда пусты.
type RacePace struct {
	Drivers       []DriverPace `json:"drivers"`
	TotalLaps     int          `json:"totalLaps"`
	SafetyCarLaps []int        `json:"safetyCarLaps"`
	VSCLaps       []int        `json:"vscLaps"`
}

// StrategyData стратегия по шинам для всей сессии
type StrategyData struct {
	Stints    []Stint        `json:"stints"`
	PitStops  []PitStopEvent `json:"pitStops"`
	TotalLaps int            `json:"totalLaps"`
}

// PositionPoint позиция пилота на круге
type PositionPoint struct {
	Lap      int `json:"lap"`
	Position int `json:"position"`
}

// PositionData история позиций пилота
type PositionData struct {
	Driver    string          `json:"driver"`
	Positions []PositionPoint `json:"positions"`
}

// TrackEvolutionPoint лучшее время сессии на момент круга
type TrackEvolutionPoint struct {
	Lap      int       `json:"lap"`
	BestTime float64   `json:"bestTime"`
	Driver   string    `json:"driver"`
	Compound *Compound `json:"compound"`
}

// TrackEvolution эволюция трассы: прогресс лучшего времени
type TrackEvolution struct {
	Points          []TrackEvolutionPoint `json:"points"`
	ImprovementRate float64               `json:"improvementRate"`
}

// Driver информация о пилоте
type Driver struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	TeamColor string `json:"teamColor"`
	Number    int    `json:"number"`
}

// Season сезон с данными
type Season struct {
	Year int    `json:"year"`
	Name string `json:"name"`
}

// Event этап (гоночный уик-энд)
type Event struct {
	RoundNumber int    `json:"roundNumber"`
	Country     string `json:"country"`
	Location    string `json:"location"`
	EventName   string `json:"eventName"`
	EventDate   string `json:"eventDate"`
}

// Session сессия этапа (FP1, Q, R ...)
type Session struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	SessionType string `json:"sessionType"`
}

// Package models содержит структуры данных телеметрии, кругов и результатов аналитики
package models

// TelemetrySample представляет одну точку телеметрии внутри круга
type TelemetrySample struct {
	Distance float64  `json:"distance"`
	Speed    float64  `json:"speed"`
	Throttle float64  `json:"throttle"`
	Brake    float64  `json:"brake"`
	Gear     int32    `json:"gear"`
	RPM      *float64 `json:"rpm,omitempty"`
	DRS      *int32   `json:"drs,omitempty"`
	// Time накопленное время с начала круга в секундах (по часам сессии)
	Time *float64 `json:"time,omitempty"`
}

// LapTrace содержит телеметрию одного круга одного пилота
type LapTrace struct {
	Driver    string            `json:"driver"`
	LapNumber int               `json:"lapNumber"`
	LapTime   *float64          `json:"lapTime"`
	Samples   []TelemetrySample `json:"data"`
}

// DeltaPoint разница во времени на заданной дистанции.
// Положительное значение означает, что пилот A впереди.
type DeltaPoint struct {
	Distance float64 `json:"distance"`
	Delta    float64 `json:"delta"`
}

// DeltaSummary содержит сводку по кривой дельты
type DeltaSummary struct {
	FinalDelta            float64 `json:"finalDelta"`
	Leader                string  `json:"leader"`
	MaxAdvantageA         float64 `json:"maxAdvantageA"`
	MaxAdvantageADistance float64 `json:"maxAdvantageADistance"`
	MaxAdvantageB         float64 `json:"maxAdvantageB"`
	MaxAdvantageBDistance float64 `json:"maxAdvantageBDistance"`
	LeadChanges           int     `json:"leadChanges"`
}

// SectorTimes времена секторов круга
type SectorTimes struct {
	Sector1 *float64 `json:"sector1"`
	Sector2 *float64 `json:"sector2"`
	Sector3 *float64 `json:"sector3"`
}

// TelemetryComparison результат сравнения телеметрии двух пилотов
type TelemetryComparison struct {
	DriverA  LapTrace     `json:"driverA"`
	DriverB  LapTrace     `json:"driverB"`
	Delta    []DeltaPoint `json:"delta"`
	Summary  DeltaSummary `json:"summary"`
	SectorsA SectorTimes  `json:"sectorsA"`
	SectorsB SectorTimes  `json:"sectorsB"`
}

// TelemetryCompareRequest тело запроса на сравнение телеметрии
type TelemetryCompareRequest struct {
	Season  int    `json:"season"`
	Event   string `json:"event"`
	Session string `json:"session"`
	DriverA string `json:"driverA"`
	DriverB string `json:"driverB"`
	LapA    *int   `json:"lapA,omitempty"`
	LapB    *int   `json:"lapB,omitempty"`
}

package models

import "time"

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Redis     string    `json:"redis"`
	Storage   string    `json:"storage"`
	Database  string    `json:"database"`
	Uptime    string    `json:"uptime"`
}

// SavedAnalysisCreate запрос на сохранение конфигурации анализа
type SavedAnalysisCreate struct {
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Event   string `json:"event"`
	Session string `json:"session"`
	DriverA string `json:"driverA"`
	DriverB string `json:"driverB"`
	LapA    *int   `json:"lapA,omitempty"`
	LapB    *int   `json:"lapB,omitempty"`
}

// SavedAnalysis сохраненная пользователем конфигурация анализа
type SavedAnalysis struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Season    int       `json:"season"`
	Event     string    `json:"event"`
	Session   string    `json:"session"`
	DriverA   string    `json:"driverA"`
	DriverB   string    `json:"driverB"`
	LapA      *int      `json:"lapA,omitempty"`
	LapB      *int      `json:"lapB,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

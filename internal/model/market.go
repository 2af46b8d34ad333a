package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// ReturnSnapshot holds the trailing window return of every signal instrument
// for a single trading day.
type ReturnSnapshot struct {
	Date    time.Time          `json:"date"`
	Returns map[string]float64 `json:"returns"`
}

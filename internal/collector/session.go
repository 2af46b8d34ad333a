package collector

import (
	"time"
	_ "time/tzdata"

	"RiskOffRotator/internal/model"
)

// Daily bars are dated in exchange time; the regular session ends at 16:00.
var exchangeLoc = mustLoadLocation("America/New_York")

const sessionCloseHour = 16

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// completedSessions drops bars whose exchange session has not closed at now.
// A daily bar fetched during trading carries the live price as its close.
func completedSessions(bars []model.OHLCV, now time.Time) []model.OHLCV {
	local := now.In(exchangeLoc)
	today := local.Format(time.DateOnly)
	closed := local.Hour() >= sessionCloseHour

	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		day := b.Time.In(exchangeLoc).Format(time.DateOnly)
		if day > today || (day == today && !closed) {
			continue
		}
		out = append(out, b)
	}
	return out
}

package models

import "time"

type CurrentTimeData struct {
	Time         int64  `json:"time"`
	ReadableTime string `json:"readableTime"`
	// ServiceMinutes is the planner's notion of "now": minutes since local
	// midnight in the feed timezone.
	ServiceMinutes float64 `json:"serviceMinutes"`
	Timezone       string  `json:"timezone"`
}

func NewCurrentTimeData(t time.Time, serviceMinutes float64) CurrentTimeData {
	return CurrentTimeData{
		Time:           t.UnixMilli(),
		ReadableTime:   t.Format(time.RFC3339),
		ServiceMinutes: serviceMinutes,
		Timezone:       t.Location().String(),
	}
}

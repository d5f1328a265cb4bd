package services

import "time"

// ShiftWindow returns the rolling 24-hour reporting bucket containing now,
// anchored at anchorHour local time. With the default 09:00 anchor, a call
// at 08:30 falls into yesterday's shift.
func ShiftWindow(now time.Time, anchorHour int) (time.Time, time.Time) {
	anchor := time.Date(now.Year(), now.Month(), now.Day(), anchorHour, 0, 0, 0, now.Location())
	if now.Before(anchor) {
		anchor = anchor.AddDate(0, 0, -1)
	}
	return anchor, anchor.Add(24 * time.Hour)
}

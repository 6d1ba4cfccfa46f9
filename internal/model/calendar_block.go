package model

import "time"

const DefaultBlockTitle = "Busy"

// CalendarBlock marks a participant as busy for [StartsAt, EndsAt).
type CalendarBlock struct {
	ID            int64     `json:"id"`
	ParticipantID int64     `json:"participant_id"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

func (b *CalendarBlock) Window() TimeWindow {
	return TimeWindow{Start: b.StartsAt, End: b.EndsAt}
}

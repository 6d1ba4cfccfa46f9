package model

import "time"

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w TimeWindow) IsValid() bool {
	return w.Start.Before(w.End)
}

// Overlaps reports whether the two half-open intervals share any instant.
// Touching endpoints do not overlap.
func (w TimeWindow) Overlaps(start, end time.Time) bool {
	return w.Start.Before(end) && w.End.After(start)
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Slot is a candidate meeting interval produced by the availability engine.
type Slot = TimeWindow

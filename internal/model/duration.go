package model

import (
	"encoding/json"
	"math"
	"time"
)

// Millis is a duration that is encoded as whole milliseconds in JSON, the
// unit used by stored records and the booking system.
type Millis time.Duration

// Duration returns m as a time.Duration.
func (m Millis) Duration() time.Duration { return time.Duration(m) }

func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

// UnmarshalJSON accepts an integer or fractional millisecond count. Values
// too large for a time.Duration are clamped.
func (m *Millis) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	ns := math.Round(ms * float64(time.Millisecond))
	switch {
	case ns >= math.MaxInt64:
		*m = Millis(math.MaxInt64)
	case ns <= math.MinInt64:
		*m = Millis(math.MinInt64)
	default:
		*m = Millis(ns)
	}
	return nil
}

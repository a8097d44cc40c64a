// Package attendance measures how much of a live session a viewer attended.
package attendance

import (
	"errors"
	"math"
	"math/bits"
	"time"
)

// ErrInvalidWindow is returned when the session window is empty or no
// segment is requested.
var ErrInvalidWindow = errors.New("invalid attendance window")

// Result is the presence of a viewer over the segments of a session.
type Result struct {
	// Segments reports for each slice of the session whether the viewer was
	// seen during it.
	Segments []bool
	Present  int
	Percent  int
}

// Compute splits [start, end] into segments equal slices and marks the slices
// containing at least one ping. Pings outside the window are ignored. A ping
// at end belongs to the last slice.
func Compute(start, end time.Time, segments int, pings []time.Time) (Result, error) {
	if !end.After(start) || segments <= 0 {
		return Result{}, ErrInvalidWindow
	}
	window := end.Sub(start)
	res := Result{Segments: make([]bool, segments)}
	for _, ping := range pings {
		if ping.Before(start) || ping.After(end) {
			continue
		}
		idx := segments - 1
		if elapsed := ping.Sub(start); elapsed < window {
			hi, lo := bits.Mul64(uint64(elapsed), uint64(segments))
			q, _ := bits.Div64(hi, lo, uint64(window))
			idx = int(q)
		}
		if !res.Segments[idx] {
			res.Segments[idx] = true
			res.Present++
		}
	}
	res.Percent = int(math.Round(100 * float64(res.Present) / float64(segments)))
	return res, nil
}

// ComputeFromUnix is Compute over unix timestamps in seconds, the way live
// attendance pings are stored by Marsha.
func ComputeFromUnix(start, end int64, segments int, pings []int64) (Result, error) {
	times := make([]time.Time, 0, len(pings))
	for _, p := range pings {
		times = append(times, time.Unix(p, 0))
	}
	return Compute(time.Unix(start, 0), time.Unix(end, 0), segments, times)
}

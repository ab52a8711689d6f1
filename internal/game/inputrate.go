package game

import "time"

// InputRate estimates presses per second over a trailing window.
type InputRate struct {
	window  time.Duration
	presses []time.Time
}

func NewInputRate(window time.Duration) *InputRate {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &InputRate{window: window}
}

func (r *InputRate) Record(at time.Time) {
	r.presses = append(r.presses, at)
}

func (r *InputRate) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.presses) && !r.presses[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.presses = append(r.presses[:0], r.presses[i:]...)
	}
}

func (r *InputRate) Rate(now time.Time) float64 {
	r.prune(now)
	return float64(len(r.presses)) / r.window.Seconds()
}

func (r *InputRate) Reset() {
	r.presses = r.presses[:0]
}

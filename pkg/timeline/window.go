package timeline

import "time"

// Window is the fixed time horizon of one crawl run
type Window struct {
	Now    time.Time `json:"now"`
	Cutoff time.Time `json:"cutoff"`
}

// NewWindow computes the window for a run starting at now. Both instants are
// in UTC and a negative lookback is treated as zero, so Cutoff never passes Now.
func NewWindow(now time.Time, lookback time.Duration) Window {
	if lookback < 0 {
		lookback = 0
	}
	now = now.UTC()
	return Window{Now: now, Cutoff: now.Add(-lookback)}
}

// Expired reports whether t is strictly older than the cutoff
func (w Window) Expired(t time.Time) bool {
	return t.Before(w.Cutoff)
}

// Lookback returns the distance between Now and Cutoff
func (w Window) Lookback() time.Duration {
	return w.Now.Sub(w.Cutoff)
}

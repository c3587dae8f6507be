package diag

// Channel pairs a Chrono and a Histogram for a single diagnostic event
// (spec.md §3 DiagnosticChannels: "a fixed-size array of (chrono,
// histogram) pairs indexed by Event enum").
type Channel struct {
	Chrono    Chrono
	Histogram *Histogram
}

// DefaultConfig gives this channel a fresh histogram of bins bins over
// [lo, hi]; ATS.ChronoDefault (spec.md §6 chronoDefault(bins, T))
// chooses the per-event range. lo/hi are in the event's natural
// units (seconds, ppm, samples, ...).
func (c *Channel) DefaultConfig(lo, hi float64, bins int, flags Flag) {
	c.Histogram = NewHistogram(lo, hi, bins, flags, "")
}

// Add records one observation into this channel's histogram.
func (c *Channel) Add(x float64) {
	if c.Histogram != nil {
		c.Histogram.Add(x, 1)
	}
}

// Reset clears this channel's histogram without touching its Chrono.
func (c *Channel) Reset() {
	if c.Histogram != nil {
		c.Histogram.Reset()
	}
}

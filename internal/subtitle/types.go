package subtitle

import "time"

// Cue is one timestamped subtitle entry.
type Cue struct {
	Index int           // cue ordinal as written in the source file
	Start time.Duration // offset from media start
	End   time.Duration // offset from media start
	Text  string        // cue payload, may span multiple lines
}

// StartSeconds returns the cue start as floating seconds.
func (c Cue) StartSeconds() float64 {
	return c.Start.Seconds()
}

// EndSeconds returns the cue end as floating seconds.
func (c Cue) EndSeconds() float64 {
	return c.End.Seconds()
}

package weather

import (
	"math/rand/v2"
	"time"
)

const (
	flashPeakDuration    = 100 * time.Millisecond
	flashFlickerDuration = 25 * time.Millisecond
	flashFadeDuration    = 250 * time.Millisecond

	minFlickers = 1
	maxFlickers = 6
)

type FlashStep struct {
	Alpha    float64
	Duration time.Duration
}

// FlashSequence is one lightning strike: a quick rise to full brightness,
// a run of flickers, a held peak and a fade back to nothing.
type FlashSequence []FlashStep

// NewFlashSequence draws a strike from rng. It always has between 4 and 9
// steps and ends at alpha 0.
func NewFlashSequence(rng *rand.Rand) FlashSequence {
	flickers := minFlickers + rng.IntN(maxFlickers-minFlickers+1)

	seq := make(FlashSequence, 0, flickers+3)
	seq = append(seq, FlashStep{Alpha: 1, Duration: flashFlickerDuration})
	for range flickers {
		seq = append(seq, FlashStep{Alpha: 0.1 + rng.Float64()*0.9, Duration: flashFlickerDuration})
	}
	return append(seq,
		FlashStep{Alpha: 1, Duration: flashPeakDuration},
		FlashStep{Alpha: 0, Duration: flashFadeDuration},
	)
}

// Duration is the total run time of the sequence.
func (s FlashSequence) Duration() time.Duration {
	var d time.Duration
	for _, st := range s {
		d += st.Duration
	}
	return d
}

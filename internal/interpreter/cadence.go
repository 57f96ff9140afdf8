package interpreter

import (
	"math"
	"math/rand"
	"time"

	"github.com/clipperhouse/uax29/v2/graphemes"

	"github.com/nick/anticipate/internal/ptysession"
)

// typeLine sends text grapheme cluster by grapheme cluster, pausing a
// Gaussian-perturbed delay after each one, then sends a trailing newline.
// This simulates human typing cadence for recording mode.
func typeLine(session *ptysession.Session, text string, cinema CinemaOptions, rng *rand.Rand) error {
	seg := graphemes.FromString(text)
	for seg.Next() {
		g := seg.Value()
		if err := session.Send([]byte(g)); err != nil {
			return err
		}
		if err := session.Flush(); err != nil {
			return err
		}
		time.Sleep(typingDelay(cinema.DelayMillis, cinema.Deviation, rng))
	}
	return session.Send([]byte("\n"))
}

// typingDelay computes one perturbed inter-keystroke delay: a Gaussian
// sample with mean 0 and standard deviation deviation is truncated to
// whole milliseconds and applied as signed drift around meanMillis:
// subtracted when the sample is negative, added when it is non-negative.
// Negative drift that exceeds meanMillis saturates at zero rather than
// wrapping.
func typingDelay(meanMillis uint64, deviation float64, rng *rand.Rand) time.Duration {
	drift := rng.NormFloat64() * deviation
	driftAbs := uint64(math.Abs(drift))
	var millis uint64
	if drift < 0 {
		if driftAbs >= meanMillis {
			millis = 0
		} else {
			millis = meanMillis - driftAbs
		}
	} else {
		millis = meanMillis + driftAbs
	}
	return time.Duration(millis) * time.Millisecond
}

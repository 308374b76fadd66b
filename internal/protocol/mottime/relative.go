package mottime

import (
	"fmt"
	"time"
)

// RelativeLen is the size of an encoded relative time.
const RelativeLen = 1

// MaxRelative is the longest duration a relative time can carry.
const MaxRelative = 63 * 24 * time.Hour

// Granularity selects the step size of a relative time interval.
type Granularity uint8

const (
	GranularityTwoMinutes Granularity = iota
	GranularityHalfHours
	GranularityTwoHours
	GranularityDays
)

type band struct {
	granularity Granularity
	step        time.Duration
	below       time.Duration
}

// Bands in selection order. A duration goes into the first band whose
// bound it is below; the day band is bounded by MaxRelative inclusively.
var bands = []band{
	{GranularityTwoMinutes, 2 * time.Minute, 127 * time.Minute},
	{GranularityHalfHours, 30 * time.Minute, 1891 * time.Minute},
	{GranularityTwoHours, 2 * time.Hour, 127 * time.Hour},
	{GranularityDays, 24 * time.Hour, MaxRelative + time.Nanosecond},
}

// Step returns the duration of one interval unit.
func (g Granularity) Step() time.Duration {
	if int(g) >= len(bands) {
		return 0
	}
	return bands[g].step
}

func (g Granularity) String() string {
	switch g {
	case GranularityTwoMinutes:
		return "2m"
	case GranularityHalfHours:
		return "30m"
	case GranularityTwoHours:
		return "2h"
	case GranularityDays:
		return "24h"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(g))
	}
}

// EncodeRelative renders d in the finest granularity that covers it.
// Durations are truncated to a whole number of steps.
func EncodeRelative(d time.Duration) ([]byte, error) {
	if d < 0 {
		return nil, durationRangeError(d, "negative relative time")
	}
	for _, b := range bands {
		if d < b.below {
			interval := uint8(d / b.step)
			return []byte{byte(b.granularity)<<6 | interval&0x3f}, nil
		}
	}
	return nil, durationRangeError(d, "relative time exceeds 63 days")
}

// DecodeRelative is the inverse of EncodeRelative using the same per
// granularity step sizes.
func DecodeRelative(b []byte) (time.Duration, error) {
	if len(b) != RelativeLen {
		return 0, fmt.Errorf("%w: relative time of %d bytes", ErrInvalidLength, len(b))
	}
	g := Granularity(b[0] >> 6)
	interval := time.Duration(b[0] & 0x3f)
	return interval * g.Step(), nil
}

package gsmtap

import (
	"time"

	"github.com/rayhunter-go/rayhunter/internal/clock"
	"github.com/rayhunter-go/rayhunter/internal/constants"
)

// qualcommEpoch is the origin of the diag 48-bit tick counter, 1980-01-06
// 00:00:00 UTC (GPS epoch), per spec §4.5/§9.
var qualcommEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// TicksToTime converts a raw 48-bit Qualcomm diag clock value into a UTC
// wall-clock Time, then applies the process-wide clock offset (spec §4.5,
// §4.11).
func TicksToTime(ticks uint64) time.Time {
	seconds := ticks / constants.QualcommClockTicksPerSecond
	remainder := ticks % constants.QualcommClockTicksPerSecond
	nanos := (remainder * uint64(time.Second)) / constants.QualcommClockTicksPerSecond
	t := qualcommEpoch.Add(time.Duration(seconds)*time.Second + time.Duration(nanos))
	return clock.Adjust(t)
}

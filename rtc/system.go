package rtc

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mklimuk/sensorhub"
)

// SystemClock serves the host clock as an RTC, for boards without one.
type SystemClock struct {
	clock clock.Clock
	loc   *time.Location
}

var _ sensorhub.Clock = &SystemClock{}

// NewSystemClock returns a clock reading c in UTC unless a location is given.
func NewSystemClock(c clock.Clock, loc *time.Location) *SystemClock {
	if c == nil {
		c = clock.New()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{clock: c, loc: loc}
}

func (s *SystemClock) Now(ctx context.Context) (sensorhub.RTCReading, error) {
	if err := ctx.Err(); err != nil {
		return sensorhub.RTCReading{}, err
	}
	return sensorhub.RTCReadingFromTime(s.clock.Now().In(s.loc)), nil
}

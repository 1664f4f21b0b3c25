package registry

import "time"

// Clock supplies the registration timestamp.
type Clock interface {
	// UnixTimestamp returns the current wall-clock time in Unix seconds.
	UnixTimestamp() int64
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (SystemClock) UnixTimestamp() int64 {
	return time.Now().Unix()
}

// FixedClock always returns the same timestamp.
type FixedClock int64

func (c FixedClock) UnixTimestamp() int64 {
	return int64(c)
}

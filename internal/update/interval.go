package update

import "time"

// BaseInterval is the polling interval while releases keep changing.
const BaseInterval = 6 * time.Hour

// Interval returns the delay before the next check given how many
// consecutive checks came back 304 Not Modified.
func Interval(notModified int) time.Duration {
	switch {
	case notModified <= 0:
		return BaseInterval
	case notModified == 1:
		return 12 * time.Hour
	case notModified == 2:
		return 24 * time.Hour
	default:
		return 72 * time.Hour
	}
}

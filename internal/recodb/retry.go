package recodb

import (
	"strings"
	"time"
)

const (
	maxBusyRetries = 5
	baseBusyDelay  = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a lock contention error worth
// retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn until it succeeds, fails with a non-busy error, or
// maxBusyRetries attempts have failed busy. The delay doubles between
// attempts.
func retryOnBusy(fn func() error) error {
	var err error
	delay := baseBusyDelay
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		if err = fn(); !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyRetries-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}

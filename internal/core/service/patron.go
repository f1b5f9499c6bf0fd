package service

import (
	"time"
)

const patronIDLength = 6

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func validPatronID(patronID string) bool {
	if len(patronID) != patronIDLength {
		return false
	}
	for i := 0; i < len(patronID); i++ {
		if patronID[i] < '0' || patronID[i] > '9' {
			return false
		}
	}
	return true
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

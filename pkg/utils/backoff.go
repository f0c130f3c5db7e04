package utils

import "time"

// ReconnectDelay returns the wait before reconnect attempt n (zero based):
// base doubled n times, never more than max.
func ReconnectDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// PositiveOrZero clamps negative durations to zero.
func PositiveOrZero(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

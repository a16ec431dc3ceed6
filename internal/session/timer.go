package session

import "time"

// RemainingSeconds is the cooldown left at now for a dispatch made at
// retryTimestamp (epoch ms) that must wait retryAfter seconds. It is computed
// from the absolute pair on every call so a suspended ticker never drifts.
func RemainingSeconds(retryAfter int, retryTimestamp int64, now time.Time) int {
	if retryAfter <= 0 || retryTimestamp <= 0 {
		return 0
	}
	elapsed := (now.UnixMilli() - retryTimestamp) / 1000
	if elapsed < 0 {
		elapsed = 0
	}
	left := int64(retryAfter) - elapsed
	if left < 0 {
		return 0
	}
	return int(left)
}

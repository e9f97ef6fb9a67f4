package auth

import "time"

// IsWithinThresholdPeriodAt reports whether t is newer than now minus the
// duration in pattern
func IsWithinThresholdPeriodAt(now, t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	threshold := now.Add(-duration)
	if t.After(threshold) {
		return true, nil
	}

	return false, nil
}

// IsOutsideThresholdPeriodAt is the negation of IsWithinThresholdPeriodAt
func IsOutsideThresholdPeriodAt(now, t time.Time, pattern string) (bool, error) {
	valid, err := IsWithinThresholdPeriodAt(now, t, pattern)
	if err != nil {
		return false, err
	}

	return !valid, nil
}

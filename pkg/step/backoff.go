package step

import "time"

// backoffDelay returns the wait before retry n (1-based). The
// policy is exponential doubling from base, monotonic, and
// bounded above by ceiling.
func backoffDelay(
	base, ceiling time.Duration, n int,
) time.Duration {
	if n < 1 || base <= 0 {
		return 0
	}
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= ceiling || d < 0 {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

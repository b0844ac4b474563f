package session

// Progress returns elapsed/total clamped to [0, 1]. A non-positive total
// counts as complete.
func Progress(elapsed, total int) float64 {
	if total <= 0 {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 1
	}
	return float64(elapsed) / float64(total)
}

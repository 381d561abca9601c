package bt

// Ceil performs integer division and always rounds up.
// It computes (a + b - 1) / b which avoids converting to floats for math.Ceil.
// b must be positive.
func Ceil(a, b int64) int64 {
	return (a + b - 1) / b
}

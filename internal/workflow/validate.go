package workflow

// ByteLength measures a candidate artifact. Budgets are bytes, not
// runes: what lands on disk is what is measured.
func ByteLength(candidate []byte) int {
	return len(candidate)
}

// WithinLimit is the size validator: pure, deterministic, no side
// effects.
func WithinLimit(candidate []byte, limit int) bool {
	return ByteLength(candidate) <= limit
}

package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// CeilDiv divides a by b rounding up. b must be positive.
func CeilDiv[T ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64](a, b T) T {
	return (a + b - 1) / b
}

// RoundUp rounds n up to the next multiple of align. align must be positive.
//
// Parameters:
//   - n: the value to round
//   - align: the alignment in the same units as n
//
// Returns:
//   - int: the smallest multiple of align that is >= n
func RoundUp(n, align int) int {
	return CeilDiv(n, align) * align
}

package safemath

import (
	"errors"
	"math"
	"math/bits"
)

var (
	ErrOverflow     = errors.New("ErrOverflow")
	ErrUnderflow    = errors.New("ErrUnderflow")
	ErrDivideByZero = errors.New("ErrDivideByZero")
)

func SaturatingAddU64(a uint64, b uint64) uint64 {
	if math.MaxUint64-a < b {
		return math.MaxUint64
	}
	return a + b
}

func SaturatingSubU64(a uint64, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func CheckedAddU64(a uint64, b uint64) (uint64, error) {
	if math.MaxUint64-a < b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func CheckedSubU64(a uint64, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

func CheckedMulU64(a uint64, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

func CheckedDivU64(a uint64, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func CheckedAddI64(a int64, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrOverflow
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, ErrUnderflow
	}
	return a + b, nil
}

func CheckedSubI64(a int64, b int64) (int64, error) {
	if b < 0 && a > math.MaxInt64+b {
		return 0, ErrOverflow
	}
	if b > 0 && a < math.MinInt64+b {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// MulDivU64 computes (a * b) / denom with a 128-bit intermediate product.
// The result must fit back into a u64.
func MulDivU64(a uint64, b uint64, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= denom {
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, denom)
	return quo, nil
}

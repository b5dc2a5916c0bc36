package types

import "fmt"

// Rational is an exact fraction, used for exposure, aperture and GPS
// values that EXIF stores as numerator/denominator pairs.
//
// Rationals are normalized at construction: the denominator is positive,
// the sign lives on the numerator and the fraction is reduced to lowest
// terms, so equal fractions compare equal (2/4 == 1/2).
type Rational struct {
	Num int64
	Den int64
}

// NewRational returns the reduced form of num/den. A zero denominator
// yields the zero Rational (0/1) since EXIF files in the wild do contain
// 0/0 entries; validation flags those separately.
func NewRational(num, den int64) Rational {
	if den == 0 {
		return Rational{Num: 0, Den: 1}
	}
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(abs64(num), den); g > 1 {
		num /= g
		den /= g
	}
	return Rational{Num: num, Den: den}
}

// Float64 returns the lossy floating point view of the fraction.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// IsZero reports whether the fraction equals zero.
func (r Rational) IsZero() bool { return r.Num == 0 }

// String renders the canonical "num/den" form.
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

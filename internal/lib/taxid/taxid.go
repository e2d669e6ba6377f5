// Package taxid validates and formats the 11-digit national tax identifier
// (CPF) carried by every registered person.
//
// The identifier is made of nine base digits followed by two check digits.
// Input may contain formatting characters ("529.982.247-25"); every function
// here strips them before looking at the digits.
package taxid

import "strings"

// Length is the number of digits in a normalized tax id.
const Length = 11

// Normalize strips every non-digit character from raw.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValid reports whether raw is a checksum-valid tax id.
//
// It fails closed: empty input, anything that does not normalize to exactly
// 11 digits, and the eleven repeated-digit sequences ("111.111.111-11")
// are all rejected.
func IsValid(raw string) bool {
	digits := Normalize(raw)
	if len(digits) != Length {
		return false
	}
	if allSame(digits) {
		return false
	}

	first, second := checkDigits(digits[:9])
	return first == int(digits[9]-'0') && second == int(digits[10]-'0')
}

// Format renders a tax id as NNN.NNN.NNN-NN. Input that does not normalize
// to 11 digits is returned unchanged.
func Format(raw string) string {
	d := Normalize(raw)
	if len(d) != Length {
		return raw
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// checkDigits computes both verification digits for the nine base digits.
// Weights run 10..2 for the first sum and 11..3 for the second, which also
// includes the first check digit with weight 2.
func checkDigits(base string) (int, int) {
	sum1, sum2 := 0, 0
	for i := 0; i < 9; i++ {
		d := int(base[i] - '0')
		sum1 += d * (10 - i)
		sum2 += d * (11 - i)
	}

	first := checkDigit(sum1)
	sum2 += first * 2
	return first, checkDigit(sum2)
}

func checkDigit(sum int) int {
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

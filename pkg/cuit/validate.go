// Package cuit validates Argentine tax identifiers and resolves
// business names against a public registry.
package cuit

import "strings"

// checksum multipliers for the first ten digits of a CUIT.
var multipliers = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// Normalize strips everything but digits.
func Normalize(cuit string) string {
	var b strings.Builder
	for _, r := range cuit {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether the identifier passes the mod-11 checksum.
func Valid(cuit string) bool {
	digits := Normalize(cuit)
	if len(digits) != 11 {
		return false
	}

	sum := 0
	for i, m := range multipliers {
		sum += int(digits[i]-'0') * m
	}

	check := 11 - sum%11
	switch check {
	case 11:
		check = 0
	case 10:
		check = 9
	}
	return int(digits[10]-'0') == check
}

// Format renders the identifier in the conventional XX-XXXXXXXX-X form.
// Input that is not eleven digits is returned unchanged.
func Format(cuit string) string {
	digits := Normalize(cuit)
	if len(digits) != 11 {
		return cuit
	}
	return digits[:2] + "-" + digits[2:10] + "-" + digits[10:]
}

package model

import (
	"fmt"
	"strings"
)

// PostalCodeLength is the number of digits in a normalized postal code.
const PostalCodeLength = 8

// Address belongs to exactly one Person. OwnerID is a back-reference used for
// relationship queries; the ownership edge lives on the Person.
type Address struct {
	ID         int64      `db:"id"`
	RegionCode RegionCode `db:"region_code"`
	City       string     `db:"city"`
	Street     string     `db:"street"`
	Number     int        `db:"street_number"`
	PostalCode string     `db:"postal_code"`
	OwnerID    int64      `db:"owner_id"`
}

// IsNew reports whether the address has never been saved.
func (a *Address) IsNew() bool {
	return a.ID == 0
}

// NormalizePostalCode strips every non-digit character from raw.
func NormalizePostalCode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPostalCode renders a postal code as NNNNN-NNN. Input that does not
// normalize to 8 digits is returned unchanged.
func FormatPostalCode(raw string) string {
	d := NormalizePostalCode(raw)
	if len(d) != PostalCodeLength {
		return raw
	}
	return d[:5] + "-" + d[5:]
}

// FullAddress renders a single-line address for display.
func FullAddress(street string, number int, city string, region RegionCode, postalCode string) string {
	return fmt.Sprintf("%s, %d - %s/%s - CEP: %s", street, number, city, region, FormatPostalCode(postalCode))
}

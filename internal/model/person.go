package model

import "time"

// Person is the aggregate root of the registry. It exclusively owns its
// Addresses; deleting a person deletes them too.
type Person struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	TaxID     string    `db:"tax_id"`
	BirthDate time.Time `db:"birth_date"`
	Sex       Sex       `db:"sex"`

	// Addresses is nil when the collection was not loaded or, on save, when
	// the stored collection must be left untouched.
	Addresses []Address `db:"-"`
}

// IsNew reports whether the person has never been saved.
func (p *Person) IsNew() bool {
	return p.ID == 0
}

// AgeAt returns the age in whole years at the given instant, computed as
// floor(daysSinceBirth / 365.25).
func AgeAt(birthDate, now time.Time) int {
	days := int64(now.Sub(birthDate).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return int(float64(days) / 365.25)
}

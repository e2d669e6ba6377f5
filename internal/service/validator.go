package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/lib/taxid"
	"github.com/deppfellow/civil-registry/internal/model"
)

const (
	nameMinLength = 3
	nameMaxLength = 150
)

// AddressValidator checks an address record before it is saved. The first
// failing rule is reported.
type AddressValidator struct{}

func (v AddressValidator) Validate(r *model.AddressRecord) error {
	return v.validate(r, "")
}

func (AddressValidator) validate(r *model.AddressRecord, prefix string) error {
	if r == nil {
		return errs.NewFieldValidationError(strings.TrimSuffix(prefix, "."), "Address data is required")
	}

	switch {
	case r.RegionCode == "":
		return errs.NewFieldValidationError(prefix+"region_code", "Region code is required")
	case !r.RegionCode.IsValid():
		return errs.NewFieldValidationError(prefix+"region_code", fmt.Sprintf("Unknown region code: %s", r.RegionCode))
	case strings.TrimSpace(r.City) == "":
		return errs.NewFieldValidationError(prefix+"city", "City is required")
	case strings.TrimSpace(r.Street) == "":
		return errs.NewFieldValidationError(prefix+"street", "Street is required")
	case r.Number == nil:
		return errs.NewFieldValidationError(prefix+"number", "Street number is required")
	case strings.TrimSpace(r.PostalCode) == "":
		return errs.NewFieldValidationError(prefix+"postal_code", "Postal code is required")
	case len(model.NormalizePostalCode(r.PostalCode)) != model.PostalCodeLength:
		return errs.NewFieldValidationError(prefix+"postal_code", "Postal code must have 8 digits")
	}

	return nil
}

// PersonValidator checks a person record, including its inline addresses.
type PersonValidator struct {
	addresses AddressValidator
	now       func() time.Time
}

func NewPersonValidator(now func() time.Time) *PersonValidator {
	if now == nil {
		now = time.Now
	}
	return &PersonValidator{now: now}
}

func (v *PersonValidator) Validate(r *model.PersonRecord) error {
	if r == nil {
		return errs.NewFieldValidationError("", "Person data is required")
	}

	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		return errs.NewFieldValidationError("name", "Name is required")
	case utf8.RuneCountInString(name) < nameMinLength || utf8.RuneCountInString(name) > nameMaxLength:
		return errs.NewFieldValidationError("name", fmt.Sprintf("Name must have between %d and %d characters", nameMinLength, nameMaxLength))
	case strings.TrimSpace(r.TaxID) == "":
		return errs.NewFieldValidationError("tax_id", "Tax id is required")
	case !taxid.IsValid(r.TaxID):
		return errs.NewFieldValidationError("tax_id", "Invalid tax id")
	case r.BirthDate == nil:
		return errs.NewFieldValidationError("birth_date", "Birth date is required")
	case !r.BirthDate.Before(v.now()):
		return errs.NewFieldValidationError("birth_date", "Birth date must be in the past")
	case r.Sex == "":
		return errs.NewFieldValidationError("sex", "Sex is required")
	case !r.Sex.IsValid():
		return errs.NewFieldValidationError("sex", fmt.Sprintf("Unknown sex: %s", r.Sex))
	}

	for i := range r.Addresses {
		if err := v.addresses.validate(&r.Addresses[i], fmt.Sprintf("addresses[%d].", i)); err != nil {
			return err
		}
	}

	return nil
}

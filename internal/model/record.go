package model

import "time"

// PersonRecord is the transfer shape of a Person.
//
// Age and SexDescription are derived on read and ignored on input.
type PersonRecord struct {
	ID             *int64          `json:"id,omitempty"`
	Name           string          `json:"name"`
	TaxID          string          `json:"tax_id"`
	BirthDate      *time.Time      `json:"birth_date"`
	Sex            Sex             `json:"sex"`
	Addresses      []AddressRecord `json:"addresses"`
	Age            *int            `json:"age,omitempty"`
	SexDescription string          `json:"sex_description,omitempty"`
}

// AddressRecord is the transfer shape of an Address.
//
// FullAddress is derived on read and ignored on input.
type AddressRecord struct {
	ID          *int64     `json:"id,omitempty"`
	RegionCode  RegionCode `json:"region_code"`
	City        string     `json:"city"`
	Street      string     `json:"street"`
	Number      *int       `json:"number"`
	PostalCode  string     `json:"postal_code"`
	OwnerID     *int64     `json:"owner_id,omitempty"`
	FullAddress string     `json:"full_address,omitempty"`
}

package handler

import (
	"time"

	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/service"
	"github.com/deppfellow/civil-registry/internal/validation"
)

const dateLayout = "2006-01-02"

// Request tags only check shape. Presence and cross-field rules belong to
// the service validators. On PUT routes both run after the resource lookup.

type PersonRequest struct {
	ID        int64            `param:"id" json:"-"`
	Name      string           `json:"name" validate:"omitempty,max=150"`
	TaxID     string           `json:"tax_id" validate:"omitempty,taxid"`
	BirthDate string           `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Sex       string           `json:"sex" validate:"omitempty,sex"`
	Addresses []AddressRequest `json:"addresses" validate:"omitempty,dive"`
}

func (r *PersonRequest) Validate() error {
	return validation.Struct(r)
}

// Record converts the payload. A missing addresses key stays nil so an
// update leaves the stored addresses alone.
func (r *PersonRequest) Record() *model.PersonRecord {
	rec := &model.PersonRecord{
		Name:  r.Name,
		TaxID: r.TaxID,
		Sex:   model.Sex(r.Sex),
	}
	if r.ID != 0 {
		rec.ID = &r.ID
	}
	if r.BirthDate != "" {
		if t, err := time.ParseInLocation(dateLayout, r.BirthDate, time.UTC); err == nil {
			rec.BirthDate = &t
		}
	}
	if r.Addresses != nil {
		rec.Addresses = make([]model.AddressRecord, 0, len(r.Addresses))
		for i := range r.Addresses {
			rec.Addresses = append(rec.Addresses, *r.Addresses[i].Record())
		}
	}
	return rec
}

type AddressRequest struct {
	ID         int64  `param:"id" json:"-"`
	RegionCode string `json:"region_code" validate:"omitempty,regioncode"`
	City       string `json:"city" validate:"omitempty,min=2,max=100"`
	Street     string `json:"street" validate:"omitempty,min=5,max=100"`
	Number     *int   `json:"number" validate:"omitempty,min=0"`
	PostalCode string `json:"postal_code" validate:"omitempty,postalcode"`
	OwnerID    *int64 `json:"owner_id" validate:"omitempty,min=1"`
}

func (r *AddressRequest) Validate() error {
	return validation.Struct(r)
}

func (r *AddressRequest) Record() *model.AddressRecord {
	rec := &model.AddressRecord{
		RegionCode: model.RegionCode(r.RegionCode),
		City:       r.City,
		Street:     r.Street,
		Number:     r.Number,
		PostalCode: r.PostalCode,
		OwnerID:    r.OwnerID,
	}
	if r.ID != 0 {
		rec.ID = &r.ID
	}
	return rec
}

type IDRequest struct {
	ID int64 `param:"id" validate:"required,min=1"`
}

func (r *IDRequest) Validate() error {
	return validation.Struct(r)
}

// PersonQuery filters the person listing. City and region match any of a
// person's addresses.
type PersonQuery struct {
	Name   string `query:"name" validate:"omitempty,max=150"`
	Sex    string `query:"sex" validate:"omitempty,sex"`
	City   string `query:"city" validate:"omitempty,max=100"`
	Region string `query:"region" validate:"omitempty,regioncode"`
}

func (r *PersonQuery) Validate() error {
	return validation.Struct(r)
}

func (r *PersonQuery) Filter() service.PersonFilter {
	return service.PersonFilter{
		Name:   r.Name,
		Sex:    model.Sex(r.Sex),
		City:   r.City,
		Region: model.RegionCode(r.Region),
	}
}

type CityQuery struct {
	City string `query:"city" validate:"omitempty,max=100"`
}

func (r *CityQuery) Validate() error {
	return validation.Struct(r)
}

// PostalCodeRequest leaves format checks to the postal service so invalid
// input gets the lookup error codes.
type PostalCodeRequest struct {
	Code string `param:"code" validate:"required"`
}

func (r *PostalCodeRequest) Validate() error {
	return validation.Struct(r)
}

type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error {
	return nil
}

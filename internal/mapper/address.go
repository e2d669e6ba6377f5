// Package mapper converts between entities and transfer records.
//
// Conversions are pure except AddressMapper.ToEntity, which resolves the
// declared owner through the person repository. A nil input maps to nil at
// every level.
package mapper

import (
	"context"
	"fmt"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/repository"
)

type AddressMapper struct {
	persons repository.PersonRepository
}

func NewAddressMapper(persons repository.PersonRepository) *AddressMapper {
	return &AddressMapper{persons: persons}
}

func (m *AddressMapper) ToRecord(a *model.Address) *model.AddressRecord {
	if a == nil {
		return nil
	}

	r := &model.AddressRecord{
		ID:          optional(a.ID),
		RegionCode:  a.RegionCode,
		City:        a.City,
		Street:      a.Street,
		PostalCode:  a.PostalCode,
		OwnerID:     optional(a.OwnerID),
		FullAddress: model.FullAddress(a.Street, a.Number, a.City, a.RegionCode, a.PostalCode),
	}
	number := a.Number
	r.Number = &number

	return r
}

func (m *AddressMapper) ToRecords(addresses []model.Address) []model.AddressRecord {
	if addresses == nil {
		return nil
	}

	records := make([]model.AddressRecord, len(addresses))
	for i := range addresses {
		records[i] = *m.ToRecord(&addresses[i])
	}
	return records
}

// ToEntity maps r and checks that its owner exists. A declared owner that
// does not resolve yields a person-not-found error.
func (m *AddressMapper) ToEntity(ctx context.Context, r *model.AddressRecord) (*model.Address, error) {
	if r == nil {
		return nil, nil
	}

	a := addressEntity(r)

	if r.OwnerID != nil {
		exists, err := m.persons.ExistsByID(ctx, *r.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("resolve owner %d: %w", *r.OwnerID, err)
		}
		if !exists {
			return nil, errs.NewPersonNotFoundError(*r.OwnerID)
		}
		a.OwnerID = *r.OwnerID
	}

	return a, nil
}

// addressEntity is the pure part of the conversion. The owner is left
// unset.
func addressEntity(r *model.AddressRecord) *model.Address {
	a := &model.Address{
		RegionCode: r.RegionCode,
		City:       r.City,
		Street:     r.Street,
		PostalCode: model.NormalizePostalCode(r.PostalCode),
	}
	if r.ID != nil {
		a.ID = *r.ID
	}
	if r.Number != nil {
		a.Number = *r.Number
	}
	return a
}

func optional(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

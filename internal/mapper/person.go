package mapper

import (
	"time"

	"github.com/deppfellow/civil-registry/internal/lib/taxid"
	"github.com/deppfellow/civil-registry/internal/model"
)

type PersonMapper struct {
	addresses *AddressMapper
	now       func() time.Time
}

// NewPersonMapper computes ages against now; nil means time.Now.
func NewPersonMapper(addresses *AddressMapper, now func() time.Time) *PersonMapper {
	if now == nil {
		now = time.Now
	}
	return &PersonMapper{addresses: addresses, now: now}
}

func (m *PersonMapper) ToRecord(p *model.Person) *model.PersonRecord {
	if p == nil {
		return nil
	}

	birthDate := p.BirthDate
	age := model.AgeAt(p.BirthDate, m.now())

	return &model.PersonRecord{
		ID:             optional(p.ID),
		Name:           p.Name,
		TaxID:          p.TaxID,
		BirthDate:      &birthDate,
		Sex:            p.Sex,
		Addresses:      m.addresses.ToRecords(p.Addresses),
		Age:            &age,
		SexDescription: p.Sex.Description(),
	}
}

func (m *PersonMapper) ToRecords(persons []model.Person) []model.PersonRecord {
	if persons == nil {
		return nil
	}

	records := make([]model.PersonRecord, len(persons))
	for i := range persons {
		records[i] = *m.ToRecord(&persons[i])
	}
	return records
}

// ToEntity is pure: inline addresses keep no owner, the repository binds
// them to the person on save. A nil address list stays nil.
func (m *PersonMapper) ToEntity(r *model.PersonRecord) *model.Person {
	if r == nil {
		return nil
	}

	p := &model.Person{
		Name:  r.Name,
		TaxID: taxid.Normalize(r.TaxID),
		Sex:   r.Sex,
	}
	if r.ID != nil {
		p.ID = *r.ID
	}
	if r.BirthDate != nil {
		p.BirthDate = *r.BirthDate
	}
	if r.Addresses != nil {
		p.Addresses = make([]model.Address, len(r.Addresses))
		for i := range r.Addresses {
			p.Addresses[i] = *addressEntity(&r.Addresses[i])
			if p.ID != 0 {
				p.Addresses[i].OwnerID = p.ID
			}
		}
	}

	return p
}

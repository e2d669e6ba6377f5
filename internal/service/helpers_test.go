package service

import (
	"context"
	"testing"
	"time"

	"github.com/deppfellow/civil-registry/internal/mapper"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/repository"
	"github.com/stretchr/testify/mock"
)

var testNow = func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC) }

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueuePostalWarm(ctx context.Context, postalCode string) error {
	return m.Called(ctx, postalCode).Error(0)
}

type fixture struct {
	repos     *repository.Repositories
	persons   *PersonService
	addresses *AddressService
	enqueuer  *mockEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos := repository.NewMemoryRepositories()
	addressMapper := mapper.NewAddressMapper(repos.Person)
	personMapper := mapper.NewPersonMapper(addressMapper, testNow)
	enqueuer := &mockEnqueuer{}

	return &fixture{
		repos:     repos,
		persons:   NewPersonService(repos, personMapper, NewPersonValidator(testNow), nil),
		addresses: NewAddressService(repos, addressMapper, enqueuer, nil),
		enqueuer:  enqueuer,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func validAddress() model.AddressRecord {
	return model.AddressRecord{
		RegionCode: model.RegionSP,
		City:       "São Paulo",
		Street:     "Praça da Sé",
		Number:     ptr(101),
		PostalCode: "01001-000",
	}
}

func validPerson(taxID string, addresses ...model.AddressRecord) *model.PersonRecord {
	return &model.PersonRecord{
		Name:      "João Silva",
		TaxID:     taxID,
		BirthDate: ptr(time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)),
		Sex:       model.SexMale,
		Addresses: addresses,
	}
}

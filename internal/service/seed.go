package service

import (
	"context"
	"time"

	"github.com/deppfellow/civil-registry/internal/model"
)

type seedPerson struct {
	name       string
	taxID      string
	sex        model.Sex
	birthDate  string
	street     string
	number     int
	city       string
	region     model.RegionCode
	postalCode string
}

var seedPersons = []seedPerson{
	{"João Silva", "347.337.210-21", model.SexMale, "1990-01-01", "Praça da Sé", 101, "São Paulo", model.RegionSP, "01001-000"},
	{"Maria Oliveira", "333.899.330-77", model.SexFemale, "1992-02-02", "Avenida Rio Branco", 202, "Rio de Janeiro", model.RegionRJ, "20040-002"},
	{"Carlos Pereira", "813.839.480-38", model.SexMale, "1988-03-03", "Avenida do Contorno", 303, "Belo Horizonte", model.RegionMG, "30110-012"},
	{"Ana Souza", "603.164.820-21", model.SexFemale, "1995-04-04", "Avenida da França", 404, "Salvador", model.RegionBA, "40010-000"},
	{"Lucas Lima", "545.072.120-06", model.SexMale, "1993-05-05", "Rua Frei Vicente do Salvador", 505, "Recife", model.RegionPE, "50010-030"},
	{"Fernanda Costa", "757.842.950-71", model.SexFemale, "1991-06-06", "Rua Oto de Alencar", 606, "Fortaleza", model.RegionCE, "60010-270"},
	{"Bruno Almeida", "835.246.230-00", model.SexMale, "1987-07-07", "Quadra SBN Quadra 1", 707, "Brasília", model.RegionDF, "70040-010"},
	{"Juliana Martins", "225.649.100-50", model.SexFemale, "1994-08-08", "Rua Desembargador Westphalen", 808, "Curitiba", model.RegionPR, "80010-110"},
	{"Ricardo Mendes", "473.230.830-95", model.SexMale, "1990-09-09", "Praça Quinze de Novembro", 909, "Florianópolis", model.RegionSC, "88010-400"},
	{"Patrícia Gomes", "587.234.320-55", model.SexFemale, "1989-10-10", "Rua Coronel Fernando Machado", 1010, "Porto Alegre", model.RegionRS, "90010-320"},
}

// SeedService inserts the reference persons into an empty registry.
type SeedService struct {
	persons *PersonService
}

func NewSeedService(persons *PersonService) *SeedService {
	return &SeedService{persons: persons}
}

// Seed returns the number of persons inserted, zero when the registry
// already has data.
func (s *SeedService) Seed(ctx context.Context) (int, error) {
	count, err := s.persons.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	for _, sp := range seedPersons {
		birthDate, err := time.Parse(time.DateOnly, sp.birthDate)
		if err != nil {
			return inserted, err
		}
		number := sp.number

		_, err = s.persons.Create(ctx, &model.PersonRecord{
			Name:      sp.name,
			TaxID:     sp.taxID,
			BirthDate: &birthDate,
			Sex:       sp.sex,
			Addresses: []model.AddressRecord{{
				RegionCode: sp.region,
				City:       sp.city,
				Street:     sp.street,
				Number:     &number,
				PostalCode: sp.postalCode,
			}},
		})
		if err != nil {
			return inserted, err
		}
		inserted++
	}

	loggerFrom(ctx, s.persons.logger).Info().Int("persons", inserted).Msg("seeded registry")
	return inserted, nil
}

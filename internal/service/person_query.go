package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/deppfellow/civil-registry/internal/model"
)

// PersonFilter narrows a person listing. Zero fields match everything.
// City and Region match when any of the person's addresses does, so a
// person without addresses never passes either of them.
type PersonFilter struct {
	Name   string
	Sex    model.Sex
	City   string
	Region model.RegionCode
}

func (f PersonFilter) IsZero() bool {
	return f == PersonFilter{}
}

func (f PersonFilter) match(p *model.Person) bool {
	if f.Sex != "" && p.Sex != f.Sex {
		return false
	}
	if f.City != "" {
		needle := strings.ToLower(f.City)
		if !slices.ContainsFunc(p.Addresses, func(a model.Address) bool {
			return strings.Contains(strings.ToLower(a.City), needle)
		}) {
			return false
		}
	}
	if f.Region != "" {
		if !slices.ContainsFunc(p.Addresses, func(a model.Address) bool {
			return a.RegionCode == f.Region
		}) {
			return false
		}
	}
	return true
}

// Filter applies every non-empty criterion of f. The name goes to the
// repository search; the rest is matched on the loaded addresses.
func (s *PersonService) Filter(ctx context.Context, f PersonFilter) ([]model.PersonRecord, error) {
	var (
		persons []model.Person
		err     error
	)
	if f.Name != "" {
		persons, err = s.persons.FindByNameContains(ctx, f.Name)
	} else {
		persons, err = s.persons.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	kept := persons[:0]
	for i := range persons {
		if f.match(&persons[i]) {
			kept = append(kept, persons[i])
		}
	}
	return s.mapper.ToRecords(kept), nil
}

type RegionCount struct {
	RegionCode model.RegionCode `json:"region_code"`
	RegionName string           `json:"region_name"`
	Count      int              `json:"count"`
}

type PersonStats struct {
	Total              int           `json:"total"`
	BirthdaysThisMonth int           `json:"birthdays_this_month"`
	MalePercentage     float64       `json:"male_percentage"`
	FemalePercentage   float64       `json:"female_percentage"`
	ByRegion           []RegionCount `json:"by_region"`
}

// Stats summarizes the registry. Percentages are 0 when it is empty.
// ByRegion counts each person once, under the region of their first
// address by id, lists only regions with someone in them, and is ordered
// by count then region code.
func (s *PersonService) Stats(ctx context.Context) (*PersonStats, error) {
	persons, err := s.persons.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	month := s.validator.now().UTC().Month()
	stats := &PersonStats{Total: len(persons), ByRegion: []RegionCount{}}
	var male, female int
	regions := map[model.RegionCode]int{}

	for _, p := range persons {
		if p.BirthDate.UTC().Month() == month {
			stats.BirthdaysThisMonth++
		}
		switch p.Sex {
		case model.SexMale:
			male++
		case model.SexFemale:
			female++
		}
		if first, ok := firstAddress(p.Addresses); ok {
			regions[first.RegionCode]++
		}
	}

	if stats.Total > 0 {
		stats.MalePercentage = float64(male) * 100 / float64(stats.Total)
		stats.FemalePercentage = float64(female) * 100 / float64(stats.Total)
	}

	for code, n := range regions {
		stats.ByRegion = append(stats.ByRegion, RegionCount{RegionCode: code, RegionName: code.Name(), Count: n})
	}
	slices.SortFunc(stats.ByRegion, func(a, b RegionCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.RegionCode, b.RegionCode)
	})

	return stats, nil
}

func firstAddress(addresses []model.Address) (model.Address, bool) {
	if len(addresses) == 0 {
		return model.Address{}, false
	}
	return slices.MinFunc(addresses, func(a, b model.Address) int {
		return cmp.Compare(a.ID, b.ID)
	}), true
}

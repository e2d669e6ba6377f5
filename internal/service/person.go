package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/mapper"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/repository"
	"github.com/deppfellow/civil-registry/internal/sqlerr"
	"github.com/rs/zerolog"
)

type PersonService struct {
	persons   repository.PersonRepository
	tx        repository.TxManager
	mapper    *mapper.PersonMapper
	validator *PersonValidator
	logger    *zerolog.Logger
}

func NewPersonService(
	repos *repository.Repositories,
	personMapper *mapper.PersonMapper,
	validator *PersonValidator,
	logger *zerolog.Logger,
) *PersonService {
	return &PersonService{
		persons:   repos.Person,
		tx:        repos.Tx,
		mapper:    personMapper,
		validator: validator,
		logger:    nopLogger(logger),
	}
}

// ListAll returns every person ordered by name.
func (s *PersonService) ListAll(ctx context.Context) ([]model.PersonRecord, error) {
	persons, err := s.persons.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToRecords(persons), nil
}

func (s *PersonService) GetByID(ctx context.Context, id int64) (*model.PersonRecord, error) {
	person, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToRecord(person), nil
}

// Exists returns the not-found error when no person has id.
func (s *PersonService) Exists(ctx context.Context, id int64) error {
	_, err := s.find(ctx, id)
	return err
}

// SearchByName matches a case-insensitive substring. No match is an empty
// list.
func (s *PersonService) SearchByName(ctx context.Context, fragment string) ([]model.PersonRecord, error) {
	persons, err := s.persons.FindByNameContains(ctx, fragment)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToRecords(persons), nil
}

func (s *PersonService) Count(ctx context.Context) (int64, error) {
	return s.persons.Count(ctx)
}

func (s *PersonService) Create(ctx context.Context, record *model.PersonRecord) (*model.PersonRecord, error) {
	if record == nil {
		return nil, errs.NewFieldValidationError("", "Person data is required")
	}
	if record.ID != nil {
		return nil, errs.NewFieldValidationError("id", "Id must be empty for a new person")
	}
	if err := s.validator.Validate(record); err != nil {
		return nil, err
	}

	saved, err := s.save(ctx, s.mapper.ToEntity(record))
	if err != nil {
		return nil, err
	}

	loggerFrom(ctx, s.logger).Info().Int64("person_id", saved.ID).Msg("person created")
	return s.mapper.ToRecord(saved), nil
}

// Update replaces the stored person. Existence is checked before
// validation. A nil Addresses collection keeps the stored addresses, a
// non-nil one replaces them.
func (s *PersonService) Update(ctx context.Context, record *model.PersonRecord) (*model.PersonRecord, error) {
	if record == nil {
		return nil, errs.NewFieldValidationError("", "Person data is required")
	}
	if record.ID == nil {
		return nil, errs.NewFieldValidationError("id", "Id is required for an update")
	}

	var saved *model.Person
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.find(ctx, *record.ID); err != nil {
			return err
		}
		if err := s.validator.Validate(record); err != nil {
			return err
		}

		var err error
		saved, err = s.save(ctx, s.mapper.ToEntity(record))
		return err
	})
	if err != nil {
		return nil, err
	}

	loggerFrom(ctx, s.logger).Info().Int64("person_id", saved.ID).Msg("person updated")
	return s.mapper.ToRecord(saved), nil
}

// Remove deletes the person and its addresses.
func (s *PersonService) Remove(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.persons.DeleteByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errs.NewPersonNotFoundError(id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	loggerFrom(ctx, s.logger).Info().Int64("person_id", id).Msg("person removed")
	return nil
}

func (s *PersonService) find(ctx context.Context, id int64) (*model.Person, error) {
	person, err := s.persons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.NewPersonNotFoundError(id)
		}
		return nil, err
	}
	return person, nil
}

// save persists person in a transaction and turns a tax id unique
// violation into the duplicate conflict.
func (s *PersonService) save(ctx context.Context, person *model.Person) (*model.Person, error) {
	var saved *model.Person
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		saved, err = s.persons.Save(ctx, person)
		return err
	})
	if err != nil {
		if sqlerr.IsUniqueViolation(err, "tax_id") {
			return nil, errs.NewDuplicateTaxIDError()
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.NewPersonNotFoundError(person.ID)
		}
		return nil, fmt.Errorf("save person: %w", err)
	}
	return saved, nil
}

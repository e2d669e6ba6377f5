package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/mapper"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/repository"
	"github.com/rs/zerolog"
)

type AddressService struct {
	addresses repository.AddressRepository
	persons   repository.PersonRepository
	tx        repository.TxManager
	mapper    *mapper.AddressMapper
	validator AddressValidator
	warmer    PostalWarmEnqueuer
	logger    *zerolog.Logger
}

// NewAddressService builds the service. warmer may be nil, which disables
// the postal warm-up after create.
func NewAddressService(
	repos *repository.Repositories,
	addressMapper *mapper.AddressMapper,
	warmer PostalWarmEnqueuer,
	logger *zerolog.Logger,
) *AddressService {
	return &AddressService{
		addresses: repos.Address,
		persons:   repos.Person,
		tx:        repos.Tx,
		mapper:    addressMapper,
		warmer:    warmer,
		logger:    nopLogger(logger),
	}
}

// ListAll returns every address ordered by city then street.
func (s *AddressService) ListAll(ctx context.Context) ([]model.AddressRecord, error) {
	addresses, err := s.addresses.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToRecords(addresses), nil
}

func (s *AddressService) GetByID(ctx context.Context, id int64) (*model.AddressRecord, error) {
	address, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToRecord(address), nil
}

func (s *AddressService) Exists(ctx context.Context, id int64) error {
	_, err := s.find(ctx, id)
	return err
}

func (s *AddressService) ListByOwner(ctx context.Context, ownerID int64) ([]model.AddressRecord, error) {
	exists, err := s.persons.ExistsByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.NewPersonNotFoundError(ownerID)
	}

	addresses, err := s.addresses.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToRecords(addresses), nil
}

func (s *AddressService) SearchByCity(ctx context.Context, fragment string) ([]model.AddressRecord, error) {
	addresses, err := s.addresses.FindByCityContains(ctx, fragment)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToRecords(addresses), nil
}

func (s *AddressService) Count(ctx context.Context) (int64, error) {
	return s.addresses.Count(ctx)
}

func (s *AddressService) Create(ctx context.Context, record *model.AddressRecord) (*model.AddressRecord, error) {
	if record == nil {
		return nil, errs.NewFieldValidationError("", "Address data is required")
	}
	if record.ID != nil {
		return nil, errs.NewFieldValidationError("id", "Id must be empty for a new address")
	}

	var saved *model.Address
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		saved, err = s.validateAndSave(ctx, record)
		return err
	})
	if err != nil {
		return nil, err
	}

	log := loggerFrom(ctx, s.logger)
	log.Info().Int64("address_id", saved.ID).Int64("owner_id", saved.OwnerID).Msg("address created")

	if s.warmer != nil {
		if err := s.warmer.EnqueuePostalWarm(ctx, saved.PostalCode); err != nil {
			log.Warn().Err(err).Str("postal_code", saved.PostalCode).Msg("could not enqueue postal warm-up")
		}
	}

	return s.mapper.ToRecord(saved), nil
}

// Update checks existence before any other validation.
func (s *AddressService) Update(ctx context.Context, record *model.AddressRecord) (*model.AddressRecord, error) {
	if record == nil {
		return nil, errs.NewFieldValidationError("", "Address data is required")
	}
	if record.ID == nil {
		return nil, errs.NewFieldValidationError("id", "Id is required for an update")
	}

	var saved *model.Address
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.find(ctx, *record.ID); err != nil {
			return err
		}

		var err error
		saved, err = s.validateAndSave(ctx, record)
		return err
	})
	if err != nil {
		return nil, err
	}

	loggerFrom(ctx, s.logger).Info().Int64("address_id", saved.ID).Msg("address updated")
	return s.mapper.ToRecord(saved), nil
}

func (s *AddressService) Remove(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.addresses.DeleteByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errs.NewAddressNotFoundError(id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	loggerFrom(ctx, s.logger).Info().Int64("address_id", id).Msg("address removed")
	return nil
}

func (s *AddressService) validateAndSave(ctx context.Context, record *model.AddressRecord) (*model.Address, error) {
	if err := s.validator.Validate(record); err != nil {
		return nil, err
	}
	if record.OwnerID == nil {
		return nil, errs.NewFieldValidationError("owner_id", "Owner id is required")
	}

	address, err := s.mapper.ToEntity(ctx, record)
	if err != nil {
		return nil, err
	}

	saved, err := s.addresses.Save(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.NewAddressNotFoundError(address.ID)
		}
		return nil, fmt.Errorf("save address: %w", err)
	}
	return saved, nil
}

func (s *AddressService) find(ctx context.Context, id int64) (*model.Address, error) {
	address, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.NewAddressNotFoundError(id)
		}
		return nil, err
	}
	return address, nil
}

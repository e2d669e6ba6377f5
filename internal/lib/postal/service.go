package postal

import (
	"context"
	"time"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const clearTimeout = 5 * time.Second

// Fetcher retrieves a directory entry for a normalized code.
type Fetcher interface {
	Fetch(ctx context.Context, code string) (*Result, error)
}

// Service resolves postal codes through the cache, falling back to the
// directory. Concurrent misses for one code share a single directory call.
type Service struct {
	fetcher Fetcher
	cache   *Cache
	group   singleflight.Group
	logger  *zerolog.Logger
}

func NewService(fetcher Fetcher, cache *Cache, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{fetcher: fetcher, cache: cache, logger: logger}
}

// Lookup returns the entry for raw, which may carry formatting. Errors are
// *errs.HTTPError with the POSTAL_CODE_INVALID, POSTAL_CODE_NOT_FOUND or
// POSTAL_LOOKUP_FAILED code.
func (s *Service) Lookup(ctx context.Context, raw string) (*Result, error) {
	code := model.NormalizePostalCode(raw)
	if code == "" {
		return nil, errs.NewPostalCodeInvalidError("Postal code must not be empty")
	}
	if len(code) != model.PostalCodeLength {
		return nil, errs.NewPostalCodeInvalidError("Postal code must have 8 digits")
	}

	if r, ok := s.cache.Get(ctx, code); ok {
		return r, nil
	}

	v, err, shared := s.group.Do(code, func() (any, error) {
		if r, ok := s.cache.Get(ctx, code); ok {
			return r, nil
		}

		r, err := s.fetcher.Fetch(context.WithoutCancel(ctx), code)
		if err != nil {
			s.logger.Warn().Err(err).Str("postal_code", code).Msg("postal directory lookup failed")
			return nil, errs.NewPostalLookupFailedError(err.Error())
		}
		if r.NotFound {
			return nil, errs.NewPostalCodeNotFoundError(code)
		}

		s.cache.Set(ctx, code, r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		s.logger.Debug().Str("postal_code", code).Msg("postal lookup shared with a concurrent caller")
	}

	return v.(*Result), nil
}

// Clear empties the cache.
func (s *Service) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), clearTimeout)
	defer cancel()

	s.cache.Clear(ctx)
	s.logger.Info().Msg("postal cache cleared")
}

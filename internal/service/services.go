package service

import (
	"github.com/deppfellow/civil-registry/internal/lib/job"
	"github.com/deppfellow/civil-registry/internal/lib/postal"
	"github.com/deppfellow/civil-registry/internal/mapper"
	"github.com/deppfellow/civil-registry/internal/repository"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/redis/go-redis/v9"
)

type Services struct {
	Auth    *AuthService
	Person  *PersonService
	Address *AddressService
	Postal  *postal.Service
	Seed    *SeedService
	Job     *job.JobService
}

// NewServices builds every service once. The postal cache created here
// lives for the whole process.
func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	addressMapper := mapper.NewAddressMapper(repos.Person)
	personMapper := mapper.NewPersonMapper(addressMapper, nil)

	postalCfg := s.Config.Postal
	var remote *redis.Client
	if postalCfg.RedisCache {
		remote = s.Redis
	}
	postalService := postal.NewService(
		postal.NewClient(postalCfg.BaseURL, postalCfg.ConnectTimeout, postalCfg.RequestTimeout),
		postal.NewCache(postalCfg.CacheCapacity, postalCfg.CacheTTL, remote, s.Logger),
		s.Logger,
	)

	var warmer PostalWarmEnqueuer
	if s.Job != nil {
		s.Job.InitHandlers(postalService)
		warmer = s.Job
	}

	personService := NewPersonService(repos, personMapper, NewPersonValidator(nil), s.Logger)

	return &Services{
		Auth:    NewAuthService(s.Config.Auth),
		Person:  personService,
		Address: NewAddressService(repos, addressMapper, warmer, s.Logger),
		Postal:  postalService,
		Seed:    NewSeedService(personService),
		Job:     s.Job,
	}, nil
}

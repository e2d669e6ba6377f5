package repository

import (
	"github.com/deppfellow/civil-registry/internal/server"
)

type Repositories struct {
	Person  PersonRepository
	Address AddressRepository
	Tx      TxManager
}

// NewRepositories wires the PostgreSQL repositories on the server's pool.
func NewRepositories(s *server.Server) *Repositories {
	pool := s.DB.Pool
	return &Repositories{
		Person:  NewPersonRepository(pool),
		Address: NewAddressRepository(pool),
		Tx:      NewTxManager(pool),
	}
}

// NewMemoryRepositories returns empty in-memory repositories sharing one
// store.
func NewMemoryRepositories() *Repositories {
	store := newMemoryStore()
	return &Repositories{
		Person:  &memoryPersonRepository{store: store},
		Address: &memoryAddressRepository{store: store},
		Tx:      &memoryTxManager{store: store},
	}
}

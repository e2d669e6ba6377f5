// Package repository persists persons and addresses.
//
// Every repository has a PostgreSQL implementation on pgx and an
// in-memory implementation with the same semantics, used by service tests.
// Writes that span several statements run through TxManager.WithinTx;
// repositories pick the transaction up from the context.
package repository

import (
	"context"
	"errors"

	"github.com/deppfellow/civil-registry/internal/model"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("record not found")

type PersonRepository interface {
	// FindAll returns every person ordered by name, addresses loaded.
	FindAll(ctx context.Context) ([]model.Person, error)
	FindByID(ctx context.Context, id int64) (*model.Person, error)
	// FindByNameContains matches a case-insensitive substring of the name.
	FindByNameContains(ctx context.Context, fragment string) ([]model.Person, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// Save inserts a new person or updates an existing one. A non-nil
	// Addresses slice replaces the stored collection; nil leaves it alone.
	Save(ctx context.Context, person *model.Person) (*model.Person, error)
	// DeleteByID removes the person and, by cascade, its addresses.
	DeleteByID(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type AddressRepository interface {
	// FindAll returns every address ordered by city then street.
	FindAll(ctx context.Context) ([]model.Address, error)
	FindByID(ctx context.Context, id int64) (*model.Address, error)
	FindByOwnerID(ctx context.Context, ownerID int64) ([]model.Address, error)
	FindByCityContains(ctx context.Context, fragment string) ([]model.Address, error)
	Save(ctx context.Context, address *model.Address) (*model.Address, error)
	DeleteByID(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// TxManager runs fn inside a transaction. fn's error, or a panic, rolls the
// transaction back. Nested calls join the outer transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

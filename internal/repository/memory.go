package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/sqlerr"
)

// memoryStore keeps persons and addresses keyed by id. It enforces the same
// constraints as the schema: unique tax id, existing owner, cascade delete.
//
// A transaction holds mu exclusively from begin to commit or rollback.
// Repository calls carrying the transaction context skip locking; every
// other caller waits, so nothing outside sees uncommitted writes and a
// rollback never discards a write it did not make.
type memoryStore struct {
	mu            sync.RWMutex
	persons       map[int64]model.Person
	addresses     map[int64]model.Address
	nextPersonID  int64
	nextAddressID int64
}

type memorySnapshot struct {
	persons       map[int64]model.Person
	addresses     map[int64]model.Address
	nextPersonID  int64
	nextAddressID int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		persons:   make(map[int64]model.Person),
		addresses: make(map[int64]model.Address),
	}
}

// inTx reports whether ctx belongs to a transaction on s.
func (s *memoryStore) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memoryTxKey{}).(*memoryStore)
	return owner == s
}

func (s *memoryStore) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *memoryStore) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// snapshot and restore run with mu held by the transaction.
func (s *memoryStore) snapshot() memorySnapshot {
	return memorySnapshot{
		persons:       maps.Clone(s.persons),
		addresses:     maps.Clone(s.addresses),
		nextPersonID:  s.nextPersonID,
		nextAddressID: s.nextAddressID,
	}
}

func (s *memoryStore) restore(snap memorySnapshot) {
	s.persons = snap.persons
	s.addresses = snap.addresses
	s.nextPersonID = snap.nextPersonID
	s.nextAddressID = snap.nextAddressID
}

// addressesOf returns the owner's addresses ordered by id. Callers hold mu.
func (s *memoryStore) addressesOf(ownerID int64) []model.Address {
	owned := []model.Address{}
	for _, a := range s.addresses {
		if a.OwnerID == ownerID {
			owned = append(owned, a)
		}
	}
	slices.SortFunc(owned, func(a, b model.Address) int { return cmp.Compare(a.ID, b.ID) })
	return owned
}

func (s *memoryStore) withAddresses(p model.Person) model.Person {
	p.Addresses = s.addressesOf(p.ID)
	return p
}

func (s *memoryStore) insertAddress(a model.Address) (model.Address, error) {
	if _, ok := s.persons[a.OwnerID]; !ok {
		return a, &sqlerr.Error{
			Code:         sqlerr.ForeignKeyViolation,
			Severity:     sqlerr.SeverityError,
			DatabaseCode: "23503",
			Message:      "insert or update on table \"address\" violates foreign key constraint",
			TableName:    "address",
			ColumnName:   "owner_id",
		}
	}
	s.nextAddressID++
	a.ID = s.nextAddressID
	s.addresses[a.ID] = a
	return a, nil
}

type memoryTxManager struct {
	store *memoryStore
}

type memoryTxKey struct{}

func (m *memoryTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.store.inTx(ctx) {
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.store.restore(snap)
			panic(p)
		}
		if err != nil {
			m.store.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, memoryTxKey{}, m.store))
}

type memoryPersonRepository struct {
	store *memoryStore
}

func (r *memoryPersonRepository) FindAll(ctx context.Context) ([]model.Person, error) {
	return r.filter(ctx, func(model.Person) bool { return true }), nil
}

func (r *memoryPersonRepository) FindByNameContains(ctx context.Context, fragment string) ([]model.Person, error) {
	needle := strings.ToLower(fragment)
	return r.filter(ctx, func(p model.Person) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

func (r *memoryPersonRepository) filter(ctx context.Context, keep func(model.Person) bool) []model.Person {
	defer r.store.rlock(ctx)()

	persons := []model.Person{}
	for _, p := range r.store.persons {
		if keep(p) {
			persons = append(persons, r.store.withAddresses(p))
		}
	}
	slices.SortFunc(persons, func(a, b model.Person) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return persons
}

func (r *memoryPersonRepository) FindByID(ctx context.Context, id int64) (*model.Person, error) {
	defer r.store.rlock(ctx)()

	p, ok := r.store.persons[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = r.store.withAddresses(p)
	return &p, nil
}

func (r *memoryPersonRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	defer r.store.rlock(ctx)()

	_, ok := r.store.persons[id]
	return ok, nil
}

func (r *memoryPersonRepository) Save(ctx context.Context, person *model.Person) (*model.Person, error) {
	defer r.store.lock(ctx)()

	saved := *person
	if !saved.IsNew() {
		if _, ok := r.store.persons[saved.ID]; !ok {
			return nil, ErrNotFound
		}
	}

	for _, other := range r.store.persons {
		if other.TaxID == saved.TaxID && other.ID != saved.ID {
			return nil, sqlerr.NewUniqueViolation("person", "tax_id")
		}
	}

	if saved.IsNew() {
		r.store.nextPersonID++
		saved.ID = r.store.nextPersonID
	}

	stored := saved
	stored.Addresses = nil
	r.store.persons[saved.ID] = stored

	if saved.Addresses != nil {
		for id, a := range r.store.addresses {
			if a.OwnerID == saved.ID {
				delete(r.store.addresses, id)
			}
		}
		for _, a := range saved.Addresses {
			a.ID = 0
			a.OwnerID = saved.ID
			if _, err := r.store.insertAddress(a); err != nil {
				return nil, err
			}
		}
	}

	saved.Addresses = r.store.addressesOf(saved.ID)
	return &saved, nil
}

func (r *memoryPersonRepository) DeleteByID(ctx context.Context, id int64) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.persons[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.persons, id)
	for addressID, a := range r.store.addresses {
		if a.OwnerID == id {
			delete(r.store.addresses, addressID)
		}
	}
	return nil
}

func (r *memoryPersonRepository) Count(ctx context.Context) (int64, error) {
	defer r.store.rlock(ctx)()
	return int64(len(r.store.persons)), nil
}

type memoryAddressRepository struct {
	store *memoryStore
}

func byCityStreet(a, b model.Address) int {
	return cmp.Or(cmp.Compare(a.City, b.City), cmp.Compare(a.Street, b.Street), cmp.Compare(a.ID, b.ID))
}

func (r *memoryAddressRepository) filter(ctx context.Context, keep func(model.Address) bool, order func(a, b model.Address) int) []model.Address {
	defer r.store.rlock(ctx)()

	addresses := []model.Address{}
	for _, a := range r.store.addresses {
		if keep(a) {
			addresses = append(addresses, a)
		}
	}
	slices.SortFunc(addresses, order)
	return addresses
}

func (r *memoryAddressRepository) FindAll(ctx context.Context) ([]model.Address, error) {
	return r.filter(ctx, func(model.Address) bool { return true }, byCityStreet), nil
}

func (r *memoryAddressRepository) FindByOwnerID(ctx context.Context, ownerID int64) ([]model.Address, error) {
	return r.filter(ctx, func(a model.Address) bool { return a.OwnerID == ownerID }, func(a, b model.Address) int {
		return cmp.Compare(a.ID, b.ID)
	}), nil
}

func (r *memoryAddressRepository) FindByCityContains(ctx context.Context, fragment string) ([]model.Address, error) {
	needle := strings.ToLower(fragment)
	return r.filter(ctx, func(a model.Address) bool {
		return strings.Contains(strings.ToLower(a.City), needle)
	}, byCityStreet), nil
}

func (r *memoryAddressRepository) FindByID(ctx context.Context, id int64) (*model.Address, error) {
	defer r.store.rlock(ctx)()

	a, ok := r.store.addresses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryAddressRepository) Save(ctx context.Context, address *model.Address) (*model.Address, error) {
	defer r.store.lock(ctx)()

	if address.IsNew() {
		saved, err := r.store.insertAddress(*address)
		if err != nil {
			return nil, err
		}
		return &saved, nil
	}

	if _, ok := r.store.addresses[address.ID]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := r.store.persons[address.OwnerID]; !ok {
		return nil, &sqlerr.Error{Code: sqlerr.ForeignKeyViolation, TableName: "address", ColumnName: "owner_id"}
	}

	saved := *address
	r.store.addresses[saved.ID] = saved
	return &saved, nil
}

func (r *memoryAddressRepository) DeleteByID(ctx context.Context, id int64) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.addresses[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.addresses, id)
	return nil
}

func (r *memoryAddressRepository) Count(ctx context.Context) (int64, error) {
	defer r.store.rlock(ctx)()
	return int64(len(r.store.addresses)), nil
}

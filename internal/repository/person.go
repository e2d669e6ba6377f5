package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const personColumns = `id, name, tax_id, birth_date, sex`

type PersonPgRepository struct {
	pool *pgxpool.Pool
}

func NewPersonRepository(pool *pgxpool.Pool) *PersonPgRepository {
	return &PersonPgRepository{pool: pool}
}

func (r *PersonPgRepository) FindAll(ctx context.Context) ([]model.Person, error) {
	return r.queryPersons(ctx, `SELECT `+personColumns+` FROM person ORDER BY name, id`)
}

func (r *PersonPgRepository) FindByNameContains(ctx context.Context, fragment string) ([]model.Person, error) {
	return r.queryPersons(ctx,
		`SELECT `+personColumns+` FROM person WHERE name ILIKE '%' || $1 || '%' ESCAPE '\' ORDER BY name, id`,
		escapeLike(fragment),
	)
}

func (r *PersonPgRepository) FindByID(ctx context.Context, id int64) (*model.Person, error) {
	db := conn(ctx, r.pool)

	rows, err := db.Query(ctx, `SELECT `+personColumns+` FROM person WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find person %d: %w", id, sqlerr.Wrap(err))
	}

	person, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Person])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find person %d: %w", id, sqlerr.Wrap(err))
	}

	addresses, err := findAddressesByOwners(ctx, db, []int64{id})
	if err != nil {
		return nil, err
	}
	person.Addresses = nonNil(addresses[id])

	return &person, nil
}

func (r *PersonPgRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM person WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check person %d: %w", id, sqlerr.Wrap(err))
	}
	return exists, nil
}

func (r *PersonPgRepository) Save(ctx context.Context, person *model.Person) (*model.Person, error) {
	db := conn(ctx, r.pool)
	saved := *person

	if saved.IsNew() {
		err := db.QueryRow(ctx,
			`INSERT INTO person (name, tax_id, birth_date, sex) VALUES ($1, $2, $3, $4) RETURNING id`,
			saved.Name, saved.TaxID, saved.BirthDate, saved.Sex,
		).Scan(&saved.ID)
		if err != nil {
			return nil, fmt.Errorf("insert person: %w", sqlerr.Wrap(err))
		}
	} else {
		tag, err := db.Exec(ctx,
			`UPDATE person SET name = $2, tax_id = $3, birth_date = $4, sex = $5 WHERE id = $1`,
			saved.ID, saved.Name, saved.TaxID, saved.BirthDate, saved.Sex,
		)
		if err != nil {
			return nil, fmt.Errorf("update person %d: %w", saved.ID, sqlerr.Wrap(err))
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrNotFound
		}
	}

	if saved.Addresses != nil {
		if _, err := db.Exec(ctx, `DELETE FROM address WHERE owner_id = $1`, saved.ID); err != nil {
			return nil, fmt.Errorf("replace addresses of person %d: %w", saved.ID, sqlerr.Wrap(err))
		}

		addresses := make([]model.Address, 0, len(saved.Addresses))
		for _, a := range saved.Addresses {
			a.ID = 0
			a.OwnerID = saved.ID
			if err := insertAddress(ctx, db, &a); err != nil {
				return nil, err
			}
			addresses = append(addresses, a)
		}
		saved.Addresses = addresses
	} else {
		addresses, err := findAddressesByOwners(ctx, db, []int64{saved.ID})
		if err != nil {
			return nil, err
		}
		saved.Addresses = nonNil(addresses[saved.ID])
	}

	return &saved, nil
}

func (r *PersonPgRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM person WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person %d: %w", id, sqlerr.Wrap(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PersonPgRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM person`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count persons: %w", sqlerr.Wrap(err))
	}
	return count, nil
}

func (r *PersonPgRepository) queryPersons(ctx context.Context, query string, args ...any) ([]model.Person, error) {
	db := conn(ctx, r.pool)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", sqlerr.Wrap(err))
	}

	persons, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Person])
	if err != nil {
		return nil, fmt.Errorf("collect persons: %w", sqlerr.Wrap(err))
	}

	ids := make([]int64, len(persons))
	for i, p := range persons {
		ids[i] = p.ID
	}

	addresses, err := findAddressesByOwners(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range persons {
		persons[i].Addresses = nonNil(addresses[persons[i].ID])
	}

	return persons, nil
}

func nonNil(addresses []model.Address) []model.Address {
	if addresses == nil {
		return []model.Address{}
	}
	return addresses
}

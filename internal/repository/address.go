package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const addressColumns = `id, region_code, city, street, street_number, postal_code, owner_id`

type AddressPgRepository struct {
	pool *pgxpool.Pool
}

func NewAddressRepository(pool *pgxpool.Pool) *AddressPgRepository {
	return &AddressPgRepository{pool: pool}
}

func (r *AddressPgRepository) FindAll(ctx context.Context) ([]model.Address, error) {
	return queryAddresses(ctx, conn(ctx, r.pool),
		`SELECT `+addressColumns+` FROM address ORDER BY city, street, id`)
}

func (r *AddressPgRepository) FindByOwnerID(ctx context.Context, ownerID int64) ([]model.Address, error) {
	return queryAddresses(ctx, conn(ctx, r.pool),
		`SELECT `+addressColumns+` FROM address WHERE owner_id = $1 ORDER BY id`, ownerID)
}

func (r *AddressPgRepository) FindByCityContains(ctx context.Context, fragment string) ([]model.Address, error) {
	return queryAddresses(ctx, conn(ctx, r.pool),
		`SELECT `+addressColumns+` FROM address WHERE city ILIKE '%' || $1 || '%' ESCAPE '\' ORDER BY city, street, id`,
		escapeLike(fragment),
	)
}

func (r *AddressPgRepository) FindByID(ctx context.Context, id int64) (*model.Address, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+addressColumns+` FROM address WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find address %d: %w", id, sqlerr.Wrap(err))
	}

	address, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Address])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find address %d: %w", id, sqlerr.Wrap(err))
	}

	return &address, nil
}

func (r *AddressPgRepository) Save(ctx context.Context, address *model.Address) (*model.Address, error) {
	db := conn(ctx, r.pool)
	saved := *address

	if saved.IsNew() {
		if err := insertAddress(ctx, db, &saved); err != nil {
			return nil, err
		}
		return &saved, nil
	}

	tag, err := db.Exec(ctx,
		`UPDATE address SET region_code = $2, city = $3, street = $4, street_number = $5, postal_code = $6, owner_id = $7
		 WHERE id = $1`,
		saved.ID, saved.RegionCode, saved.City, saved.Street, saved.Number, saved.PostalCode, saved.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update address %d: %w", saved.ID, sqlerr.Wrap(err))
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return &saved, nil
}

func (r *AddressPgRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM address WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete address %d: %w", id, sqlerr.Wrap(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AddressPgRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM address`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count addresses: %w", sqlerr.Wrap(err))
	}
	return count, nil
}

func insertAddress(ctx context.Context, db DBTX, a *model.Address) error {
	err := db.QueryRow(ctx,
		`INSERT INTO address (region_code, city, street, street_number, postal_code, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		a.RegionCode, a.City, a.Street, a.Number, a.PostalCode, a.OwnerID,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert address: %w", sqlerr.Wrap(err))
	}
	return nil
}

func queryAddresses(ctx context.Context, db DBTX, query string, args ...any) ([]model.Address, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", sqlerr.Wrap(err))
	}

	addresses, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Address])
	if err != nil {
		return nil, fmt.Errorf("collect addresses: %w", sqlerr.Wrap(err))
	}
	return addresses, nil
}

// findAddressesByOwners groups the addresses of the given owners by owner id,
// each group ordered by address id.
func findAddressesByOwners(ctx context.Context, db DBTX, ownerIDs []int64) (map[int64][]model.Address, error) {
	grouped := make(map[int64][]model.Address, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return grouped, nil
	}

	addresses, err := queryAddresses(ctx, db,
		`SELECT `+addressColumns+` FROM address WHERE owner_id = ANY($1) ORDER BY owner_id, id`, ownerIDs)
	if err != nil {
		return nil, err
	}

	for _, a := range addresses {
		grouped[a.OwnerID] = append(grouped[a.OwnerID], a)
	}
	return grouped, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

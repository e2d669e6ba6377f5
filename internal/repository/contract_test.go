package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPerson(name, taxID string, addresses ...model.Address) *model.Person {
	return &model.Person{
		Name:      name,
		TaxID:     taxID,
		BirthDate: time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC),
		Sex:       model.SexFemale,
		Addresses: addresses,
	}
}

func newAddress(city, street string) model.Address {
	return model.Address{
		RegionCode: model.RegionSP,
		City:       city,
		Street:     street,
		Number:     100,
		PostalCode: "01001000",
	}
}

// testRepositories exercises the behavior every Repositories implementation
// shares. newRepos must return an empty store on every call.
func testRepositories(t *testing.T, newRepos func(t *testing.T) *Repositories) {
	ctx := context.Background()

	t.Run("save assigns ids and loads addresses", func(t *testing.T) {
		repos := newRepos(t)

		saved, err := repos.Person.Save(ctx, newPerson("Maria Silva", "34733721021", newAddress("Sao Paulo", "Rua Augusta")))
		require.NoError(t, err)
		require.NotZero(t, saved.ID)
		require.Len(t, saved.Addresses, 1)
		assert.NotZero(t, saved.Addresses[0].ID)
		assert.Equal(t, saved.ID, saved.Addresses[0].OwnerID)

		found, err := repos.Person.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "Maria Silva", found.Name)
		assert.True(t, saved.BirthDate.Equal(found.BirthDate))
		assert.Equal(t, saved.Addresses, found.Addresses)
	})

	t.Run("find all orders by name and search is case-insensitive", func(t *testing.T) {
		repos := newRepos(t)

		for _, p := range []*model.Person{
			newPerson("Pedro Santos", "33389933077"),
			newPerson("Ana Oliveira", "81383948038"),
			newPerson("Carla Mendes", "60316482021"),
		} {
			_, err := repos.Person.Save(ctx, p)
			require.NoError(t, err)
		}

		all, err := repos.Person.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"Ana Oliveira", "Carla Mendes", "Pedro Santos"}, names(all))

		matches, err := repos.Person.FindByNameContains(ctx, "OLI")
		require.NoError(t, err)
		assert.Equal(t, []string{"Ana Oliveira"}, names(matches))

		none, err := repos.Person.FindByNameContains(ctx, "%")
		require.NoError(t, err)
		assert.Empty(t, none)

		count, err := repos.Person.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})

	t.Run("duplicate tax id is a unique violation", func(t *testing.T) {
		repos := newRepos(t)

		_, err := repos.Person.Save(ctx, newPerson("Maria Silva", "34733721021"))
		require.NoError(t, err)

		_, err = repos.Person.Save(ctx, newPerson("Outra Maria", "34733721021"))
		require.Error(t, err)
		assert.True(t, sqlerr.IsUniqueViolation(err, "tax_id"))
	})

	t.Run("nil addresses leave the collection untouched", func(t *testing.T) {
		repos := newRepos(t)

		saved, err := repos.Person.Save(ctx, newPerson("Maria Silva", "34733721021", newAddress("Campinas", "Rua Barao")))
		require.NoError(t, err)

		update := *saved
		update.Name = "Maria S. Silva"
		update.Addresses = nil
		updated, err := repos.Person.Save(ctx, &update)
		require.NoError(t, err)
		assert.Equal(t, "Maria S. Silva", updated.Name)
		assert.Len(t, updated.Addresses, 1)

		update.Addresses = []model.Address{newAddress("Santos", "Avenida Ana Costa"), newAddress("Bauru", "Rua Batista")}
		replaced, err := repos.Person.Save(ctx, &update)
		require.NoError(t, err)
		require.Len(t, replaced.Addresses, 2)

		owned, err := repos.Address.FindByOwnerID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Santos", "Bauru"}, cities(owned))
	})

	t.Run("update of an unknown id is not found", func(t *testing.T) {
		repos := newRepos(t)

		p := newPerson("Ghost", "34733721021")
		p.ID = 999
		_, err := repos.Person.Save(ctx, p)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repos.Person.FindByID(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repos.Person.DeleteByID(ctx, 999), ErrNotFound)
	})

	t.Run("address repository queries", func(t *testing.T) {
		repos := newRepos(t)

		owner, err := repos.Person.Save(ctx, newPerson("Maria Silva", "34733721021"))
		require.NoError(t, err)

		for _, a := range []model.Address{
			newAddress("Sao Paulo", "Rua Bela Cintra"),
			newAddress("Campinas", "Rua Barao"),
			newAddress("Sao Paulo", "Avenida Paulista"),
		} {
			a.OwnerID = owner.ID
			_, err := repos.Address.Save(ctx, &a)
			require.NoError(t, err)
		}

		all, err := repos.Address.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Rua Barao", "Avenida Paulista", "Rua Bela Cintra"}, streets(all))

		paulo, err := repos.Address.FindByCityContains(ctx, "paulo")
		require.NoError(t, err)
		assert.Len(t, paulo, 2)

		first := all[0]
		first.Number = 42
		updated, err := repos.Address.Save(ctx, &first)
		require.NoError(t, err)
		assert.Equal(t, 42, updated.Number)

		found, err := repos.Address.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 42, found.Number)

		require.NoError(t, repos.Address.DeleteByID(ctx, first.ID))
		count, err := repos.Address.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("address with unknown owner violates the foreign key", func(t *testing.T) {
		repos := newRepos(t)

		a := newAddress("Recife", "Rua da Aurora")
		a.OwnerID = 12345
		_, err := repos.Address.Save(ctx, &a)
		require.Error(t, err)
		assert.Equal(t, sqlerr.ForeignKeyViolation, sqlerr.ErrCode(err))
	})

	t.Run("deleting a person cascades to its addresses", func(t *testing.T) {
		repos := newRepos(t)

		saved, err := repos.Person.Save(ctx, newPerson("Maria Silva", "34733721021",
			newAddress("Sao Paulo", "Rua Augusta"), newAddress("Campinas", "Rua Barao")))
		require.NoError(t, err)

		require.NoError(t, repos.Person.DeleteByID(ctx, saved.ID))

		count, err := repos.Address.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		_, err = repos.Address.FindByID(ctx, saved.Addresses[0].ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("failed transaction leaves no partial write", func(t *testing.T) {
		repos := newRepos(t)
		boom := errors.New("boom")

		err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := repos.Person.Save(ctx, newPerson("Maria Silva", "34733721021")); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		count, err := repos.Person.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		err = repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := repos.Person.Save(ctx, newPerson("Maria Silva", "34733721021"))
			return err
		})
		require.NoError(t, err)

		count, err = repos.Person.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func names(persons []model.Person) []string {
	out := make([]string, len(persons))
	for i, p := range persons {
		out[i] = p.Name
	}
	return out
}

func cities(addresses []model.Address) []string {
	out := make([]string, len(addresses))
	for i, a := range addresses {
		out[i] = a.City
	}
	return out
}

func streets(addresses []model.Address) []string {
	out := make([]string, len(addresses))
	for i, a := range addresses {
		out[i] = a.Street
	}
	return out
}

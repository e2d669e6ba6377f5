package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed := NewSeedService(f.persons)

	inserted, err := seed.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(seedPersons), inserted)

	addresses, err := f.addresses.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(seedPersons), addresses)

	again, err := seed.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}

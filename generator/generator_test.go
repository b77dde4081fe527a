package generator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
)

func TestGenerate_DefaultCounts(t *testing.T) {
	opts := DefaultOptions()
	ds := generateDataset(t, 2024, opts)

	assert.Len(t, ds.Categories, 15)
	assert.Len(t, ds.Products, 100)
	assert.Len(t, ds.Users, 100)
	assert.GreaterOrEqual(t, len(ds.Addresses), 100)
	assert.LessOrEqual(t, len(ds.Addresses), 200)
	assert.GreaterOrEqual(t, len(ds.Orders), 100)
	assert.LessOrEqual(t, len(ds.Orders), 200)
	for _, o := range ds.Orders {
		assert.GreaterOrEqual(t, len(o.Items), 1)
		assert.LessOrEqual(t, len(o.Items), 4)
	}
	assert.LessOrEqual(t, len(ds.Reviews), 4*len(ds.Orders))

	require.NoError(t, Check(ds, opts))
}

func TestGenerate_SeededRunsAreIdentical(t *testing.T) {
	opts := smallOptions()

	first, err := json.Marshal(generateDataset(t, 42, opts))
	require.NoError(t, err)
	second, err := json.Marshal(generateDataset(t, 42, opts))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_UnseededRunsDiffer(t *testing.T) {
	opts := smallOptions()

	a := generateDataset(t, 0, opts)
	b := generateDataset(t, 0, opts)

	require.NoError(t, Check(a, opts))
	require.NoError(t, Check(b, opts))
	assert.NotEqual(t, a.Users[0].ID, b.Users[0].ID)
}

func TestGenerate_ManySeedsStayConsistent(t *testing.T) {
	opts := smallOptions()
	for seed := uint64(1); seed <= 25; seed++ {
		ds := generateDataset(t, seed, opts)
		require.NoError(t, Check(ds, opts), "seed %d", seed)
	}
}

func TestGenerate_ProductsWithoutCategories(t *testing.T) {
	opts := smallOptions()
	opts.CategoryCount = 0

	p := newProvider(1)
	_, err := Generate(p, NewArgon2Hasher(p, cheapArgon2), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPrecondition)
}

func TestGenerate_OrdersWithoutProducts(t *testing.T) {
	opts := smallOptions()
	opts.ProductCount = 0

	p := newProvider(1)
	_, err := Generate(p, NewArgon2Hasher(p, cheapArgon2), opts)
	assert.ErrorIs(t, err, apperrors.ErrPrecondition)
}

func TestGenerate_RejectsInvalidOptions(t *testing.T) {
	opts := smallOptions()
	opts.ItemsPerOrder = Range{Min: 0, Max: 4}

	p := newProvider(1)
	_, err := Generate(p, NewArgon2Hasher(p, cheapArgon2), opts)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestGenerate_EmptyRun(t *testing.T) {
	opts := DefaultOptions()
	opts.CategoryCount, opts.ProductCount, opts.UserCount = 0, 0, 0

	ds := generateDataset(t, 1, opts)
	assert.Empty(t, ds.Orders)
	assert.Empty(t, ds.Reviews)
	assert.NoError(t, Check(ds, opts))
}

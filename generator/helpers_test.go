package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/models"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// cheapArgon2 keeps hashing fast in tests while exercising the real hasher.
var cheapArgon2 = Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLength: 16, SaltLength: 8}

func newProvider(seed uint64) *faker.Provider {
	return faker.New(seed, testNow)
}

func generateDataset(t *testing.T, seed uint64, opts Options) *models.Dataset {
	t.Helper()
	p := newProvider(seed)
	ds, err := Generate(p, NewArgon2Hasher(p, cheapArgon2), opts)
	require.NoError(t, err)
	return ds
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.CategoryCount = 5
	opts.ProductCount = 20
	opts.UserCount = 10
	return opts
}

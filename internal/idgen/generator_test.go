package idgen

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsDriver(t *testing.T) {
	cases := []struct {
		driver string
		ok     bool
	}{
		{"ulid", true},
		{"ksuid", true},
		{"nanoid", true},
		{"", true}, // defaults to ulid
		{"snowflake", false},
	}

	for _, tc := range cases {
		gen, err := New(Config{Driver: tc.driver})
		if tc.ok {
			require.NoError(t, err, tc.driver)
			id, err := gen.Generate()
			require.NoError(t, err)
			assert.NotEmpty(t, id)
		} else {
			assert.Error(t, err, tc.driver)
		}
	}
}

func TestGenerateValidateRoundTrip(t *testing.T) {
	for _, driver := range []string{"ulid", "ksuid", "nanoid"} {
		gen, err := New(Config{Driver: driver})
		require.NoError(t, err)

		id, err := gen.Generate()
		require.NoError(t, err)
		ok, reason := gen.Validate(id)
		assert.True(t, ok, "%s id %q should validate: %s", driver, id, reason)
		ok, _ = gen.Validate("")
		assert.False(t, ok, driver)
	}
}

func TestULIDIDsSortChronologically(t *testing.T) {
	gen, err := New(Config{Driver: "ulid"})
	require.NoError(t, err)

	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id, err := gen.Generate()
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}

	assert.True(t, sort.StringsAreSorted(ids), "ULIDs must sort in generation order")
}

func TestNanoIDSize(t *testing.T) {
	gen, err := New(Config{Driver: "nanoid", NanoID: NanoIDConfig{Size: 12}})
	require.NoError(t, err)

	id, err := gen.Generate()
	require.NoError(t, err)
	assert.Len(t, id, 12)
}

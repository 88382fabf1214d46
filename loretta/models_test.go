package loretta

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBirthdayDate(t *testing.T) {
	t.Run("valid dates", func(t *testing.T) {
		day, month, err := ParseBirthdayDate("25.12.")
		require.NoError(t, err)
		assert.Equal(t, 25, day)
		assert.Equal(t, 12, month)

		day, month, err = ParseBirthdayDate("1.1.")
		require.NoError(t, err)
		assert.Equal(t, 1, day)
		assert.Equal(t, 1, month)

		// leap day is always accepted
		day, month, err = ParseBirthdayDate("29.02.")
		require.NoError(t, err)
		assert.Equal(t, 29, day)
		assert.Equal(t, 2, month)

		// surrounding whitespace tolerated
		_, _, err = ParseBirthdayDate("  24.12.  ")
		require.NoError(t, err)
	})

	t.Run("invalid dates", func(t *testing.T) {
		invalid := []string{
			"",
			"morgen",
			"25.12",     // missing trailing dot
			"25/12/",    // wrong separator
			"31.04.",    // April has 30 days
			"30.02.",    // beyond leap day
			"00.05.",    // day zero
			"15.13.",    // month 13
			"15.00.",    // month zero
			"25.12.1990",
		}
		for _, s := range invalid {
			_, _, err := ParseBirthdayDate(s)
			assert.Error(t, err, "input: %q", s)
		}
	})
}

func TestBirthdayString(t *testing.T) {
	b := Birthday{BirthDay: 5, BirthMonth: 3}
	assert.Equal(t, "05.03.", b.String())

	b = Birthday{BirthDay: 24, BirthMonth: 12}
	assert.Equal(t, "24.12.", b.String())
}

func TestBirthdayNextOccurrence(t *testing.T) {
	loc, err := time.LoadLocation(birthdayTimezone)
	require.NoError(t, err)
	now := time.Date(2026, time.June, 15, 13, 30, 0, 0, loc)

	t.Run("later this year", func(t *testing.T) {
		b := Birthday{BirthDay: 24, BirthMonth: 12}
		next := b.NextOccurrence(now, loc)
		assert.Equal(t, time.Date(2026, time.December, 24, 0, 0, 0, 0, loc), next)
	})

	t.Run("already passed rolls over", func(t *testing.T) {
		b := Birthday{BirthDay: 1, BirthMonth: 1}
		next := b.NextOccurrence(now, loc)
		assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, loc), next)
	})

	t.Run("today counts as today", func(t *testing.T) {
		b := Birthday{BirthDay: 15, BirthMonth: 6}
		next := b.NextOccurrence(now, loc)
		assert.Equal(t, time.Date(2026, time.June, 15, 0, 0, 0, 0, loc), next)
	})
}

func TestStringSlice(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		var nilSlice StringSlice
		v, err := nilSlice.Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", v)

		v, err = StringSlice{"a", "b"}.Value()
		require.NoError(t, err)
		assert.Equal(t, `["a","b"]`, v)
	})

	t.Run("scan", func(t *testing.T) {
		var s StringSlice
		require.NoError(t, s.Scan(`["x","y"]`))
		assert.Equal(t, StringSlice{"x", "y"}, s)

		require.NoError(t, s.Scan([]byte(`["z"]`)))
		assert.Equal(t, StringSlice{"z"}, s)

		require.NoError(t, s.Scan(nil))
		assert.Nil(t, s)

		assert.Error(t, s.Scan(42))
	})

	t.Run("contains", func(t *testing.T) {
		s := StringSlice{"123", "456"}
		assert.True(t, s.Contains("123"))
		assert.False(t, s.Contains("789"))
		assert.False(t, StringSlice(nil).Contains("123"))
	})
}

func TestCommandStatisticCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rows := []CommandStatistic{
		{CommandName: "ping", ModuleName: commandModuleFun, Success: true},
		{CommandName: "ping", ModuleName: commandModuleFun, Success: true},
		{CommandName: "ping", ModuleName: commandModuleFun, Success: false, ErrorMessage: "kaputt"},
		{CommandName: "specs", ModuleName: commandModuleSpecs, Success: true},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	counts, err := commandStatisticCounts(ctx, db)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	// most used first
	assert.Equal(t, "ping", counts[0].CommandName)
	assert.Equal(t, int64(3), counts[0].Total)
	assert.Equal(t, int64(1), counts[0].Errors)

	assert.Equal(t, "specs", counts[1].CommandName)
	assert.Equal(t, int64(1), counts[1].Total)
	assert.Equal(t, int64(0), counts[1].Errors)
}

func TestCommandStatisticCountsEmpty(t *testing.T) {
	db := setupTestDB(t)
	counts, err := commandStatisticCounts(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

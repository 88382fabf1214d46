package loretta

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDurationScanValue(t *testing.T) {
	var d Duration
	require.NoError(t, d.Scan("1m30s"))
	assert.Equal(t, 90*time.Second, d.Duration)

	require.NoError(t, d.Scan([]byte("2h")))
	assert.Equal(t, 2*time.Hour, d.Duration)

	assert.Error(t, d.Scan(12345))
	assert.Error(t, d.Scan("not a duration"))

	v, err := Duration{Duration: 90 * time.Second}.Value()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", v)
}

func TestDurationJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 5 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, `"5m0s"`, string(b))

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"45s"`), &d))
	assert.Equal(t, 45*time.Second, d.Duration)

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.Equal(t, 45*time.Second, d.Duration, "null leaves the value unchanged")

	assert.Error(t, json.Unmarshal([]byte(`"quatsch"`), &d))
}

func TestCreateDBMigratesModels(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// parent directories are created as needed
	dbPath := filepath.Join(t.TempDir(), "nested", "dirs", "loretta.sqlite3")
	db, err := CreateDB(ctx, dbTypeSQLite, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	for _, model := range []any{
		&RuntimeConfig{},
		&GuildConfig{},
		&Birthday{},
		&Specification{},
		&PostedFeedEntry{},
		&CommandStatistic{},
		&MemoryTiming{},
	} {
		assert.True(
			t,
			db.Migrator().HasTable(model),
			"missing table for %T", model,
		)
	}
}

func TestCreateDBUnknownType(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, err := CreateDB(ctx, "oracle", "dsn")
	assert.Error(t, err)
}

func TestDatabaseOperations(t *testing.T) {
	db := setupTestDB(t)
	writeDB := NewDatabase(db, slog.New(slog.NewTextHandler(testWriter{t}, nil)), false)
	ctx := context.Background()

	spec := &Specification{
		GuildID:   "guild_" + t.Name(),
		UserID:    "user_" + t.Name(),
		SpecsText: "5800X3D, 32GB 3800 CL16",
	}
	rows, err := writeDB.Create(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	require.NotZero(t, spec.ID)

	t.Run("update column", func(t *testing.T) {
		rows, err = writeDB.Update(ctx, spec, "specs_text", "7800X3D, 32GB 6000 CL30")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		var reloaded Specification
		require.NoError(t, db.First(&reloaded, spec.ID).Error)
		assert.Equal(t, "7800X3D, 32GB 6000 CL30", reloaded.SpecsText)
	})

	t.Run("updates map", func(t *testing.T) {
		rows, err = writeDB.Updates(
			ctx, spec, map[string]any{"specs_text": "9800X3D"},
		)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("save", func(t *testing.T) {
		spec.SpecsText = "9950X3D"
		rows, err = writeDB.Save(ctx, spec)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		txErr := writeDB.Transaction(ctx, func(tx *gorm.DB) error {
			if err := tx.Create(
				&Specification{
					GuildID:   "guild_rollback",
					UserID:    "user_rollback",
					SpecsText: "wird verworfen",
				},
			).Error; err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, txErr, assert.AnError)

		var count int64
		require.NoError(
			t,
			db.Model(&Specification{}).
				Where("user_id = ?", "user_rollback").
				Count(&count).Error,
		)
		assert.Zero(t, count)
	})

	t.Run("delete", func(t *testing.T) {
		rows, err = writeDB.Delete(spec)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		// deleted for real, not just flagged
		var count int64
		require.NoError(
			t,
			db.Unscoped().Model(&Specification{}).Count(&count).Error,
		)
		assert.Zero(t, count)
	})
}

// testWriter routes log output through the test log.
type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

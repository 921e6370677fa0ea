package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/devflow/backend/internal/database"
	"github.com/emilythestrangee/devflow/backend/internal/database/dbtest"
	"github.com/emilythestrangee/devflow/backend/internal/models"
)

var pg *dbtest.Instance

func TestMain(m *testing.M) {
	dbtest.Main(m, &pg)
}

func TestHealth(t *testing.T) {
	db := dbtest.Require(t, pg)

	stats := database.Wrap(db).Health()

	assert.Equal(t, "up", stats["status"])
	assert.Contains(t, stats, "open_connections")
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.Require(t, pg)

	require.NoError(t, database.Migrate(context.Background(), db))
}

func TestTagNamesAreUniqueIgnoringCase(t *testing.T) {
	db := dbtest.Require(t, pg)

	require.NoError(t, db.Create(&models.Tag{Name: "Go"}).Error)
	err := db.Create(&models.Tag{Name: "go"}).Error

	assert.Error(t, err)
}

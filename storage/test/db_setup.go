package test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/storage"
	"github.com/tigrisdata/tigris-client-go/tigris"
	"gorm.io/gorm"
)

// SetupDBConnection opens the tigris database described by globalConfig.
func SetupDBConnection(globalConfig *conf.GlobalConfiguration) (*tigris.Database, error) {
	return storage.OpenDatabase(context.TODO(), globalConfig)
}

// SetupSQLite returns a migrated in-memory sqlite database private to the test.
func SetupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := storage.OpenSQL(storage.SQLiteDriver, dsn, false)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, storage.Migrate(db))
	return db
}

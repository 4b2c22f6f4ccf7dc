package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/models"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "talentflow:ping", "ok", 0).Err())
	got, err := mr.Get("talentflow:ping")
	require.NoError(t, err)
	require.Equal(t, "ok", got)
}

func TestConnectRedisRejectsBadInput(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "")
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "not a url")
	require.ErrorContains(t, err, "parse redis url")
}

func TestConnectRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := ConnectRedis(context.Background(), "redis://"+addr)
	require.ErrorContains(t, err, "unable to connect to redis")
}

func TestConnectPostgresRequiresDSN(t *testing.T) {
	_, err := ConnectPostgres("")
	require.Error(t, err)
}

func TestConnectNATSRequiresURL(t *testing.T) {
	_, err := ConnectNATS("", "talentflow-test")
	require.Error(t, err)
}

func TestMigrateAndPool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "talentflow.db")), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, maxOpenConns, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, Migrate(db))
	for _, model := range models.All() {
		require.True(t, db.Migrator().HasTable(model))
	}

	require.Error(t, Migrate(nil))
}

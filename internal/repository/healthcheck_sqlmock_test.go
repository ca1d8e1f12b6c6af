package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TestRepositories_HealthCheck_PingFailure exercises the connection-pool
// ping path against a mocked driver rather than a real database, the same
// sqlmock.New()+ExpectPing pattern the teacher's repository tests use
// against raw database/sql — here wired through gorm's postgres dialector
// instead of a hand-rolled SQL backend, since NewGormDB is the only
// connection path this package now has.
func TestRepositories_HealthCheck_PingFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)

	repos := &Repositories{gormDB: gdb, dbType: "postgres"}

	err = repos.HealthCheck(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositories_HealthCheck_PingSuccess(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectPing()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)

	repos := &Repositories{gormDB: gdb, dbType: "postgres"}

	assert.NoError(t, repos.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

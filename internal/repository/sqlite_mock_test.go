package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The mock-backed tests cover driver error paths that a real database file
// will not produce.

func setupMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &SQLiteStore{db: db}, mock
}

func TestSQLiteStore_Get_QueryError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM vin_cache").
		WithArgs("1HGBH41JXMN109186").
		WillReturnError(fmt.Errorf("disk I/O error"))

	_, err := store.Get(context.Background(), "1HGBH41JXMN109186")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_Get_CorruptedPayload(t *testing.T) {
	store, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"vin", "vehicle", "estimate", "decoded_at"}).
		AddRow("1HGBH41JXMN109186", "{not valid json", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT (.+) FROM vin_cache").
		WithArgs("1HGBH41JXMN109186").
		WillReturnRows(rows)

	_, err := store.Get(context.Background(), "1HGBH41JXMN109186")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal vehicle")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_Put_ExecError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec("INSERT INTO vin_cache").
		WillReturnError(fmt.Errorf("database is locked"))

	err := store.Put(context.Background(), testEntry("1HGBH41JXMN109186"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_Count_Error(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnError(fmt.Errorf("no such table: vin_cache"))

	_, err := store.Count(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

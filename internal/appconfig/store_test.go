package appconfig

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &Store{db: gormDB, cached: Record{ID: singletonID, RequestTimeoutMs: 5000, GlobalTimeoutMs: 8000, QuoteExpirySeconds: 120}}, mock
}

func TestLoadSeedsDefaultsOnFirstRun(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `app_config`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	rows := sqlmock.NewRows([]string{"id", "request_timeout_ms", "global_timeout_ms", "quote_expiry_seconds"}).
		AddRow(1, 5000, 8000, 120)
	mock.ExpectQuery("SELECT \\* FROM `app_config`").WillReturnRows(rows)

	require.NoError(t, store.Load())
	assert.Equal(t, 5000, store.Get().RequestTimeoutMs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppliesOnlyNonNilFields(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `app_config`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	newGlobal := 10000
	rec, err := store.Update(UpdateInput{GlobalTimeoutMs: &newGlobal})
	require.NoError(t, err)
	assert.Equal(t, 10000, rec.GlobalTimeoutMs)
	assert.Equal(t, 5000, rec.RequestTimeoutMs, "unspecified field must keep its prior value")
	assert.Equal(t, 120, rec.QuoteExpirySeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

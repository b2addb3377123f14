package nonce

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockAllocator(t *testing.T) (*Allocator, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &Allocator{db: gormDB}, mock
}

func TestAllocateCreatesRowOnFirstCall(t *testing.T) {
	alloc, mock := newMockAllocator(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `nonce_state`.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectExec("INSERT INTO `nonce_state`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `nonce_state`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := alloc.Allocate(8453, "0xmaker")
	require.NoError(t, err)
	assert.Equal(t, "0", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateIncrementsExistingRow(t *testing.T) {
	alloc, mock := newMockAllocator(t)

	rows := sqlmock.NewRows([]string{"chain_id", "maker_address", "next_nonce"}).
		AddRow(8453, "0xmaker", "41")
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `nonce_state`.*FOR UPDATE").WillReturnRows(rows)
	mock.ExpectExec("UPDATE `nonce_state`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := alloc.Allocate(8453, "0xmaker")
	require.NoError(t, err)
	assert.Equal(t, "41", got)
}

func TestAllocateRejectsCorruptNonce(t *testing.T) {
	alloc, mock := newMockAllocator(t)

	rows := sqlmock.NewRows([]string{"chain_id", "maker_address", "next_nonce"}).
		AddRow(8453, "0xmaker", "not-a-number")
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `nonce_state`.*FOR UPDATE").WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := alloc.Allocate(8453, "0xmaker")
	assert.Error(t, err)
}

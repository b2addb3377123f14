package strategies

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"aquaquote/internal/apperr"
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

	return &Store{db: gormDB}, mock
}

func TestCreateStrategyIsAlwaysEnabled(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `strategies`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec, err := store.Create(CreateInput{ChainID: 8453, Name: "mm-basic", Version: 1, Hash: "0xabc"})
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.NotEmpty(t, rec.ID)
}

func TestFindByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `strategies`").WillReturnRows(sqlmock.NewRows(nil))

	_, err := store.FindByID("missing")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.StrategyNotFound, appErr.Code)
}

func TestGetChainStateCreatesDefaultRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `chain_state`").WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chain_state`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	state, err := store.GetChainState(8453)
	require.NoError(t, err)
	assert.False(t, state.Paused)
	assert.Nil(t, state.ActiveStrategyID)
}

func TestGetActiveStrategyNotConfigured(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"chain_id", "active_strategy_id", "paused"}).
		AddRow(8453, nil, false)
	mock.ExpectQuery("SELECT \\* FROM `chain_state`").WillReturnRows(rows)

	_, err := store.GetActiveStrategy(8453)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.StrategyNotConfigured, appErr.Code)
}

func TestGetActiveStrategyNotEnabled(t *testing.T) {
	store, mock := newMockStore(t)

	strategyID := "11111111-1111-1111-1111-111111111111"
	stateRows := sqlmock.NewRows([]string{"chain_id", "active_strategy_id", "paused"}).
		AddRow(8453, strategyID, false)
	mock.ExpectQuery("SELECT \\* FROM `chain_state`").WillReturnRows(stateRows)

	strategyRows := sqlmock.NewRows([]string{"id", "chain_id", "name", "version", "params", "hash", "enabled"}).
		AddRow(strategyID, 8453, "mm-basic", 1, nil, "0xabc", false)
	mock.ExpectQuery("SELECT \\* FROM `strategies`").WillReturnRows(strategyRows)

	_, err := store.GetActiveStrategy(8453)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.StrategyNotEnabled, appErr.Code)
}

func TestSetActiveRejectsStrategyFromOtherChain(t *testing.T) {
	store, mock := newMockStore(t)

	strategyID := "11111111-1111-1111-1111-111111111111"
	strategyRows := sqlmock.NewRows([]string{"id", "chain_id", "name", "version", "params", "hash", "enabled"}).
		AddRow(strategyID, 1, "mm-basic", 1, nil, "0xabc", true)
	mock.ExpectQuery("SELECT \\* FROM `strategies`").WillReturnRows(strategyRows)

	err := store.SetActive(8453, strategyID)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.StrategyNotFound, appErr.Code)
}

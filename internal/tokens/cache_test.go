package tokens

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquaquote/internal/abiutil"
	"aquaquote/internal/contractclient"
)

const sellAddr = "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"
const buyAddr = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

// fakeERC20Caller answers decimals()/symbol() calls with canned values keyed
// by the target address, so Ensure can be exercised without a live node.
type fakeERC20Caller struct {
	decimals map[common.Address]uint8
	symbols  map[common.Address]string
	symbolErr bool
}

func (f *fakeERC20Caller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	erc20 := abiutil.ERC20Metadata()
	method, err := erc20.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return erc20.Methods["decimals"].Outputs.Pack(f.decimals[*call.To])
	case "symbol":
		if f.symbolErr {
			return nil, assert.AnError
		}
		return erc20.Methods["symbol"].Outputs.Pack(f.symbols[*call.To])
	}
	return nil, assert.AnError
}

type fakeProviders struct {
	caller contractclient.Caller
	err    error
}

func (f *fakeProviders) Caller(chainID int) (contractclient.Caller, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.caller, nil
}

func TestCacheEnsureFromChainThenStore(t *testing.T) {
	store, mock := newMockStore(t)

	sell := common.HexToAddress(sellAddr)
	caller := &fakeERC20Caller{
		decimals: map[common.Address]uint8{sell: 6},
		symbols:  map[common.Address]string{sell: "USDC"},
	}
	cache := NewCache(store, &fakeProviders{caller: caller})

	mock.ExpectQuery("SELECT \\* FROM `tokens`").WillReturnRows(sqlmockEmptyRows())
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tokens`").WillReturnResult(sqlmockResult())
	mock.ExpectCommit()

	rec, err := cache.Ensure(context.Background(), 8453, sellAddr)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint8(6), rec.Decimals)
	require.NotNil(t, rec.Symbol)
	assert.Equal(t, "USDC", *rec.Symbol)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheEnsureTreatsSymbolFailureAsNull(t *testing.T) {
	store, mock := newMockStore(t)

	sell := common.HexToAddress(sellAddr)
	caller := &fakeERC20Caller{
		decimals:  map[common.Address]uint8{sell: 18},
		symbolErr: true,
	}
	cache := NewCache(store, &fakeProviders{caller: caller})

	mock.ExpectQuery("SELECT \\* FROM `tokens`").WillReturnRows(sqlmockEmptyRows())
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tokens`").WillReturnResult(sqlmockResult())
	mock.ExpectCommit()

	rec, err := cache.Ensure(context.Background(), 8453, sellAddr)
	require.NoError(t, err)
	assert.Nil(t, rec.Symbol)
}

func TestCacheEnsureRejectsInvalidAddress(t *testing.T) {
	store, _ := newMockStore(t)
	cache := NewCache(store, &fakeProviders{})

	_, err := cache.Ensure(context.Background(), 8453, "not-an-address")
	assert.Error(t, err)
}

func TestCacheEnsureBothRunsConcurrently(t *testing.T) {
	store, mock := newMockStore(t)

	sell := common.HexToAddress(sellAddr)
	buy := common.HexToAddress(buyAddr)
	caller := &fakeERC20Caller{
		decimals: map[common.Address]uint8{sell: 6, buy: 18},
		symbols:  map[common.Address]string{sell: "USDC", buy: "WETH"},
	}
	cache := NewCache(store, &fakeProviders{caller: caller})

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SELECT \\* FROM `tokens`").WillReturnRows(sqlmockEmptyRows())
	mock.ExpectQuery("SELECT \\* FROM `tokens`").WillReturnRows(sqlmockEmptyRows())
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tokens`").WillReturnResult(sqlmockResult())
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tokens`").WillReturnResult(sqlmockResult())
	mock.ExpectCommit()

	sellRec, buyRec, err := cache.EnsureBoth(context.Background(), 8453, sell, buy)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), sellRec.Decimals)
	assert.Equal(t, uint8(18), buyRec.Decimals)
}

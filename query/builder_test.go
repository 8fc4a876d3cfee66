package query_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/query"
)

func whereJSON(t *testing.T, req *query.Request) string {
	t.Helper()
	raw, err := json.Marshal(req.Variables["where"])
	require.NoError(t, err)
	return string(raw)
}

func TestBuild_Hash(t *testing.T) {
	t.Parallel()

	req, err := query.Build(entity.Filter{TxHash: "0xABCDEF"}, 100)
	require.NoError(t, err)
	require.JSONEq(t, `{"_or": [
		{"deposit": {"l1_transaction": {"operation_hash": {"_eq": "0xABCDEF"}}}},
		{"deposit": {"l2_transaction": {"transaction_hash": {"_eq": "abcdef"}}}},
		{"withdrawal": {"l1_transaction": {"operation_hash": {"_eq": "0xABCDEF"}}}},
		{"withdrawal": {"l2_transaction": {"transaction_hash": {"_eq": "abcdef"}}}}
	]}`, whereJSON(t, req))
	require.Equal(t, 100, req.Variables["limit"])
	require.Equal(t, 0, req.Variables["offset"])
	require.Contains(t, req.Query, "order_by: {created_at: desc}")
}

func TestBuild_Address(t *testing.T) {
	t.Parallel()

	req, err := query.Build(entity.Filter{Address: "0x00000000000000000000000000000000000000Aa"}, 0)
	require.NoError(t, err)
	require.JSONEq(t, `{"_or": [
		{"l1_account": {"_eq": "0x00000000000000000000000000000000000000Aa"}},
		{"l2_account": {"_eq": "00000000000000000000000000000000000000aa"}}
	]}`, whereJSON(t, req))
	require.Equal(t, query.DefaultLimit, req.Variables["limit"])
}

func TestBuild_HashWinsOverAddress(t *testing.T) {
	t.Parallel()

	req, err := query.Build(entity.Filter{TxHash: "ooHash", Address: "tz1Address"}, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"address"}, req.Ignored)
	require.NotContains(t, whereJSON(t, req), "l1_account")
}

func TestBuild_WithdrawalType(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name     string
		Type     entity.WithdrawalType
		Expected string
	}{
		{
			Name:     "fast",
			Type:     entity.WithdrawalTypeFast,
			Expected: `{"kind": {"_in": ["fast_withdrawal_service_provider", "fast_withdrawal_payed_out"]}}`,
		},
		{
			Name: "normal",
			Type: entity.WithdrawalTypeNormal,
			Expected: `{"_or": [
				{"kind": {"_is_null": true}},
				{"kind": {"_nin": ["fast_withdrawal_service_provider", "fast_withdrawal_payed_out"]}}
			]}`,
		},
		{
			Name:     "all",
			Type:     entity.WithdrawalTypeAll,
			Expected: `{}`,
		},
	} {
		req, err := query.Build(entity.Filter{WithdrawalType: test.Type}, 10)
		require.NoError(t, err, test.Name)
		require.JSONEq(t, test.Expected, whereJSON(t, req), test.Name)
	}
}

func TestBuild_AndAcrossCategories(t *testing.T) {
	t.Parallel()

	level := uint64(42)
	since := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	before := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	req, err := query.Build(entity.Filter{
		Level:       &level,
		TokenSymbol: "USDT",
		Since:       &since,
		Before:      &before,
		Limit:       20,
		Offset:      40,
	}, 100)
	require.NoError(t, err)
	require.JSONEq(t, `{"_and": [
		{"_or": [
			{"deposit": {"l1_transaction": {"level": {"_eq": 42}}}},
			{"deposit": {"l2_transaction": {"level": {"_eq": 42}}}},
			{"withdrawal": {"l1_transaction": {"level": {"_eq": 42}}}},
			{"withdrawal": {"l2_transaction": {"level": {"_eq": 42}}}}
		]},
		{"_or": [
			{"deposit": {"l1_transaction": {"ticket": {"token": {"symbol": {"_ilike": "USDT"}}}}}},
			{"deposit": {"l2_transaction": {"l2_token": {"symbol": {"_ilike": "USDT"}}}}},
			{"withdrawal": {"l2_transaction": {"l2_token": {"symbol": {"_ilike": "USDT"}}}}},
			{"withdrawal": {"l2_transaction": {"ticket": {"token": {"symbol": {"_ilike": "USDT"}}}}}}
		]},
		{"updated_at": {"_gte": "2024-05-01T12:00:00Z"}},
		{"created_at": {"_lt": "2024-06-01T00:00:00Z"}}
	]}`, whereJSON(t, req))
	require.Equal(t, 20, req.Variables["limit"])
	require.Equal(t, 40, req.Variables["offset"])
}

func TestBuild_InvalidFilter(t *testing.T) {
	t.Parallel()

	_, err := query.Build(entity.Filter{Limit: -1}, 10)
	require.ErrorIs(t, err, entity.ErrInvalidFilter)

	_, err = query.Build(entity.Filter{WithdrawalType: "instant"}, 10)
	require.ErrorIs(t, err, entity.ErrInvalidFilter)
}

func TestStripHexPrefix(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc123", query.StripHexPrefix("0xabc123"))
	require.Equal(t, "abc123", query.StripHexPrefix("0XABC123"))
	require.Equal(t, "abc123", query.StripHexPrefix("abc123"))
	require.Equal(t, "", query.StripHexPrefix("0x"))
}

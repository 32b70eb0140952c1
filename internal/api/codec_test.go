package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyRules(t *testing.T) {
	t.Parallel()

	cases := []struct {
		camel string
		snake string
	}{
		{"ticker", "ticker"},
		{"authDisabled", "auth_disabled"},
		{"amountUsdLow", "amount_usd_low"},
		{"transactionDate", "transaction_date"},
		{"a", "a"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.snake, toSnake(tc.camel), "toSnake(%q)", tc.camel)
		require.Equal(t, tc.camel, toCamel(tc.snake), "toCamel(%q)", tc.snake)
	}
}

func TestConvertKeysRoundTrip(t *testing.T) {
	t.Parallel()

	in := []byte(`{
		"personName": "Jane Doe",
		"priceUsd": 101.25,
		"filedAt": null,
		"nested": {"amountUsdLow": 1, "items": [{"companyName": "ACME"}, {"companyName": null}]},
		"tags": ["a", "b"]
	}`)

	snake, err := convertKeys(in, toSnake)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(snake, &m))
	require.Contains(t, m, "person_name")
	require.Contains(t, m, "filed_at")
	require.Nil(t, m["filed_at"])
	nested := m["nested"].(map[string]any)
	require.Contains(t, nested, "amount_usd_low")
	first := nested["items"].([]any)[0].(map[string]any)
	require.Contains(t, first, "company_name")

	back, err := convertKeys(snake, toCamel)
	require.NoError(t, err)

	var orig, rt map[string]any
	require.NoError(t, json.Unmarshal(in, &orig))
	require.NoError(t, json.Unmarshal(back, &rt))
	require.Equal(t, orig, rt)
}

func TestConvertKeysPreservesNumbers(t *testing.T) {
	t.Parallel()

	out, err := convertKeys([]byte(`{"priceUsd": 123.4500, "shares": 9007199254740993}`), toSnake)
	require.NoError(t, err)
	require.Contains(t, string(out), "123.4500")
	require.Contains(t, string(out), "9007199254740993")
}

func TestConvertKeysRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := convertKeys([]byte(`{"broken":`), toSnake)
	require.Error(t, err)
}

package service

import (
	"testing"
	"time"

	"github.com/benx421/rapidpay/internal/cardcodec"
	"github.com/benx421/rapidpay/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCardNumber = "4532015112830366"

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T) *cardcodec.Codec {
	t.Helper()
	codec, err := cardcodec.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return codec
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func boolPtr(b bool) *bool {
	return &b
}

// decimalEq matches a decimal argument by value rather than representation.
func decimalEq(want string) any {
	w := dec(want)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(w) })
}

func fixedClock() time.Time { return fixedNow }

var testLogger = config.DiscardLogger()

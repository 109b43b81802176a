package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVNPayDecodeTxnRef(t *testing.T) {
	id, err := vnpayDecodeTxnRef("42_1700000000")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	// Bare order id is accepted too.
	id, err = vnpayDecodeTxnRef("7")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	for _, ref := range []string{"", "abc_1700000000", "0_1700000000", "_42"} {
		_, err := vnpayDecodeTxnRef(ref)
		assert.ErrorIs(t, err, ErrUnknownReference, "ref %q", ref)
	}
}

func TestZaloPayDecodeTransID(t *testing.T) {
	id, err := zalopayDecodeTransID("260105_42_1700000000")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, ref := range []string{"260105", "260105_x_1", ""} {
		_, err := zalopayDecodeTransID(ref)
		assert.ErrorIs(t, err, ErrUnknownReference, "ref %q", ref)
	}
}

func TestMoMoDecodeOrderID(t *testing.T) {
	id, err := momoDecodeOrderID("42_1700000000000000000")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = momoDecodeOrderID("nope")
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestPayPalDecodeCustomID(t *testing.T) {
	id, err := paypalDecodeCustomID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = paypalDecodeCustomID("42_x")
	assert.ErrorIs(t, err, ErrUnknownReference)
}

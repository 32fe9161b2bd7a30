package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGatewayStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want GatewayStatus
	}{
		{"COMPLETE", GatewayComplete},
		{"complete", GatewayComplete},
		{" Pending ", GatewayPending},
		{"INITIATED", GatewayInitiated},
		{"failed", GatewayFailed},
		{"CANCELED", GatewayCanceled},
		{"CANCELLED", GatewayCanceled},
		{"NOT_FOUND", GatewayNotFound},
		{"", GatewayNotFound},
		{"weird", GatewayStatus("WEIRD")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeGatewayStatus(tc.raw), "raw=%q", tc.raw)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, GatewayComplete.Terminal())
	assert.True(t, GatewayFailed.Terminal())
	assert.True(t, GatewayCanceled.Terminal())

	assert.False(t, GatewayPending.Terminal())
	assert.False(t, GatewayInitiated.Terminal())
	assert.False(t, GatewayNotFound.Terminal())
	assert.False(t, GatewayStatus("WEIRD").Terminal())
}

func TestStripTimestampSuffix(t *testing.T) {
	cases := []struct {
		id   string
		want string
		ok   bool
	}{
		{"abc123_1690000000000", "abc123", true},
		{"bk_42_1690000000000", "bk_42", true},
		{"abc123", "", false},
		{"abc123_", "", false},
		{"abc123_17x0", "", false},
		{"_1690000000000", "", false},
	}
	for _, tc := range cases {
		got, ok := stripTimestampSuffix(tc.id)
		assert.Equal(t, tc.ok, ok, "id=%q", tc.id)
		assert.Equal(t, tc.want, got, "id=%q", tc.id)
	}
}

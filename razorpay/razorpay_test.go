package razorpay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpectedSignatureKnownVector(t *testing.T) {
	// HMAC-SHA256("test_key_secret", "order_rzp_001|pay_rzp_001")
	c := NewClient("test_key_secret")
	require.Equal(t,
		"a6841fee0a85a45d63f06f18780dbf976b484a51d0e0bcf9b69b279d69e220e7",
		c.ExpectedSignature("order_rzp_001", "pay_rzp_001"),
	)
}

func TestVerifySignature(t *testing.T) {
	c := NewClient("test_key_secret")
	sig := c.ExpectedSignature("order_rzp_001", "pay_rzp_001")

	require.True(t, c.VerifySignature("order_rzp_001", "pay_rzp_001", sig))

	// Flipping a single hex digit anywhere must fail verification.
	for i := 0; i < len(sig); i++ {
		mutated := []byte(sig)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		require.False(t, c.VerifySignature("order_rzp_001", "pay_rzp_001", string(mutated)),
			"mutation at index %d should not verify", i)
	}
}

func TestVerifySignatureRejectsWrongInputs(t *testing.T) {
	c := NewClient("test_key_secret")
	sig := c.ExpectedSignature("order_rzp_001", "pay_rzp_001")

	require.False(t, c.VerifySignature("order_rzp_002", "pay_rzp_001", sig))
	require.False(t, c.VerifySignature("order_rzp_001", "pay_rzp_002", sig))
	require.False(t, NewClient("other_secret").VerifySignature("order_rzp_001", "pay_rzp_001", sig))
	require.False(t, c.VerifySignature("order_rzp_001", "pay_rzp_001", ""))
}

package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Client holds the shared key secret used to check gateway signatures. It is
// built once at startup from configuration and handed to whoever needs it;
// nothing reads the secret from the environment mid-request.
type Client struct {
	keySecret string
}

func NewClient(keySecret string) *Client {
	return &Client{keySecret: keySecret}
}

// ExpectedSignature returns the hex HMAC-SHA256 the gateway would have
// produced for the given order and payment IDs.
func (c *Client) ExpectedSignature(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the client-supplied signature matches the
// expected one. Comparison is constant-time.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	expected := c.ExpectedSignature(gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

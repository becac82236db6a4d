package middleware

import (
	"encoding/hex"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bankvault/bankvault/internal/keys"
)

const (
	callerKeyHeader       = "X-Caller-Key"
	callerSignatureHeader = "X-Caller-Signature"

	callerLocal = "caller"
)

// CallerAuth authenticates requests by an ed25519 signature. The caller
// presents its base58 public key and a hex signature over method|path|body;
// the verified key becomes the caller identity for downstream handlers.
func CallerAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		encoded := c.Get(callerKeyHeader)
		if encoded == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing caller key")
		}

		key, err := keys.Parse(encoded)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid caller key")
		}

		sig, err := hex.DecodeString(c.Get(callerSignatureHeader))
		if err != nil || len(sig) == 0 {
			return fiber.NewError(http.StatusUnauthorized, "missing caller signature")
		}

		if !key.Verify(SigningPayload(c.Method(), c.Path(), c.Body()), sig) {
			return fiber.NewError(http.StatusUnauthorized, "signature verification failed")
		}

		c.Locals(callerLocal, key.String())
		return c.Next()
	}
}

// SigningPayload builds the byte string a caller signs for a request.
func SigningPayload(method, path string, body []byte) []byte {
	payload := make([]byte, 0, len(method)+len(path)+len(body)+2)
	payload = append(payload, method...)
	payload = append(payload, '|')
	payload = append(payload, path...)
	payload = append(payload, '|')
	payload = append(payload, body...)
	return payload
}

// Caller returns the authenticated caller identity, or "" when the route is
// unauthenticated.
func Caller(c *fiber.Ctx) string {
	caller, _ := c.Locals(callerLocal).(string)
	return caller
}

package middleware

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/bankvault/bankvault/internal/keys"
)

func signedApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(CallerAuth())
	app.Post("/op", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"caller": Caller(c)})
	})
	return app
}

func TestCallerAuthAcceptsValidSignature(t *testing.T) {
	app := signedApp(t)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	body := `{"amount_lamports":100}`
	sig := ed25519.Sign(priv, SigningPayload(fiber.MethodPost, "/op", []byte(body)))

	req := httptest.NewRequest(fiber.MethodPost, "/op", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Caller-Key", keys.PublicKey(pub).String())
	req.Header.Set("X-Caller-Signature", hex.EncodeToString(sig))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCallerAuthRejectsMissingKey(t *testing.T) {
	app := signedApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/op", strings.NewReader("{}"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCallerAuthRejectsTamperedBody(t *testing.T) {
	app := signedApp(t)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	sig := ed25519.Sign(priv, SigningPayload(fiber.MethodPost, "/op", []byte(`{"amount_lamports":100}`)))

	req := httptest.NewRequest(fiber.MethodPost, "/op", strings.NewReader(`{"amount_lamports":999}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Caller-Key", keys.PublicKey(pub).String())
	req.Header.Set("X-Caller-Signature", hex.EncodeToString(sig))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered body, got %d", resp.StatusCode)
	}
}

func TestCallerAuthRejectsWrongSigner(t *testing.T) {
	app := signedApp(t)

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate other key: %v", err)
	}

	body := "{}"
	sig := ed25519.Sign(otherPriv, SigningPayload(fiber.MethodPost, "/op", []byte(body)))

	req := httptest.NewRequest(fiber.MethodPost, "/op", strings.NewReader(body))
	req.Header.Set("X-Caller-Key", keys.PublicKey(pub).String())
	req.Header.Set("X-Caller-Signature", hex.EncodeToString(sig))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong signer, got %d", resp.StatusCode)
	}
}

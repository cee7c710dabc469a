package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/domain"
)

type PasscodeVerifier interface {
	Verify(candidate string) bool
}

// PasscodeRequired rejects requests whose "passcode" form or query field does
// not verify, before any report work starts.
func PasscodeRequired(verifier PasscodeVerifier, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !verifier.Verify(c.FormValue("passcode")) {
			log.Warn("Rejected report request",
				zap.String("remote_ip", c.IP()),
				zap.String("method", c.Method()),
				zap.Error(domain.ErrForbidden),
			)
			return c.Status(fiber.StatusForbidden).SendString("Forbidden")
		}
		return c.Next()
	}
}

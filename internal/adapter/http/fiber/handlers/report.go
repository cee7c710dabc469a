package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetcore/driver-completion/internal/domain"
	"github.com/fleetcore/driver-completion/internal/ports"
)

const ReportAcknowledgement = "Report generated Successfully"

// PasscodeChecker verifies the shared passcode of the on-demand endpoint.
// A bcrypt hash takes precedence over the plain passcode. With neither
// configured every request is rejected.
type PasscodeChecker struct {
	passcode []byte
	hash     []byte
}

func NewPasscodeChecker(passcode, hash string) *PasscodeChecker {
	return &PasscodeChecker{
		passcode: []byte(passcode),
		hash:     []byte(hash),
	}
}

func (p *PasscodeChecker) Verify(candidate string) bool {
	if len(p.hash) > 0 {
		return bcrypt.CompareHashAndPassword(p.hash, []byte(candidate)) == nil
	}
	if len(p.passcode) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(p.passcode, []byte(candidate)) == 1
}

type ReportHandler struct {
	runner ports.ReportRunner
	log    *zap.Logger
}

func NewReportHandler(runner ports.ReportRunner, log *zap.Logger) *ReportHandler {
	return &ReportHandler{
		runner: runner,
		log:    log,
	}
}

// Generate runs the pipeline synchronously. The response is the same whether
// the run succeeded or not; failures reach operators through the alert mail.
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	result := h.runner.Run(c.UserContext(), domain.TriggerOnDemand)

	h.log.Info("On-demand report run finished",
		zap.String("run_id", result.RunID),
		zap.String("status", string(result.Status)),
		zap.String("remote_ip", c.IP()),
	)

	return c.Status(fiber.StatusOK).SendString(ReportAcknowledgement)
}

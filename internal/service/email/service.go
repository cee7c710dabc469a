package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/domain"
	"github.com/fleetcore/driver-completion/internal/observability/telemetry"
	"github.com/fleetcore/driver-completion/pkg/config"
)

const AlertSubject = "Error In CDL Driver Completion"

// Provider delivers one message to all of its recipients.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To          []string
	Subject     string
	Body        string
	IsHTML      bool
	Attachments []Attachment
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Service is the report dispatcher: the report goes to the admins list and
// failure alerts go to the support list.
type Service struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
	admins   []string
	support  []string
	alert    *template.Template
	log      *zap.Logger
}

// NewService builds the provider named by cfg.Provider and wraps it in a
// circuit breaker when enabled.
func NewService(cfg config.MailConfig, cb config.CircuitBreakerConfig, log *zap.Logger) (*Service, error) {
	var provider Provider
	switch cfg.Provider {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("SendGrid API key is required")
		}
		provider = NewSendGridProvider(cfg.SendGridAPIKey, cfg.From, cfg.FromName)
	case "smtp", "":
		provider = NewSMTPProvider(SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.From,
			FromName:  cfg.FromName,
			Security:  cfg.SMTPSecurity,
		})
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return newService(provider, newBreaker(cb, log), cfg.Admins, cfg.Support, log), nil
}

func newService(provider Provider, breaker *gobreaker.CircuitBreaker, admins, support []string, log *zap.Logger) *Service {
	return &Service{
		provider: provider,
		breaker:  breaker,
		admins:   admins,
		support:  support,
		alert:    template.Must(template.New("alert").Parse(alertTemplate)),
		log:      log,
	}
}

func newBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mail",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Mail circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// SendReport mails the rendered report with its workbook attached.
func (s *Service) SendReport(ctx context.Context, report *domain.RenderedReport) error {
	if len(s.admins) == 0 {
		return fmt.Errorf("%w: no report recipients configured", domain.ErrDispatchFailure)
	}

	msg := Message{
		To:      s.admins,
		Subject: report.Subject,
		Body:    report.Body,
		Attachments: []Attachment{{
			Filename:    report.Artifact.FileName,
			ContentType: report.Artifact.ContentType,
			Content:     report.Artifact.Content,
		}},
	}

	s.log.Info("Sending report",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("attachment", report.Artifact.FileName),
	)

	if err := s.deliver(ctx, msg); err != nil {
		telemetry.EmailsTotal.WithLabelValues("report", "failed").Inc()
		s.log.Error("Failed to send report", zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrDispatchFailure, err)
	}

	telemetry.EmailsTotal.WithLabelValues("report", "sent").Inc()
	return nil
}

// SendAlert notifies support that a run failed. It bypasses the circuit
// breaker and only logs delivery problems.
func (s *Service) SendAlert(ctx context.Context, result *domain.RunResult) {
	if len(s.support) == 0 {
		s.log.Error("No alert recipients configured", zap.String("run_id", result.RunID))
		return
	}

	var body bytes.Buffer
	err := s.alert.Execute(&body, alertData{
		RunID:   result.RunID,
		Trigger: string(result.Trigger),
		Stage:   string(result.Stage),
		Time:    result.StartedAt.Format(time.RFC3339),
	})
	if err != nil {
		s.log.Error("Failed to render alert", zap.Error(err))
		return
	}

	msg := Message{
		To:      s.support,
		Subject: AlertSubject,
		Body:    body.String(),
	}
	// Alerts skip the breaker: a tripped report transport must not silence them.
	if err := s.provider.Send(ctx, msg); err != nil {
		telemetry.EmailsTotal.WithLabelValues("alert", "failed").Inc()
		s.log.Error("Failed to send alert",
			zap.String("run_id", result.RunID),
			zap.Error(err),
		)
		return
	}

	telemetry.EmailsTotal.WithLabelValues("alert", "sent").Inc()
	s.log.Info("Sent failure alert", zap.String("run_id", result.RunID), zap.Strings("to", s.support))
}

func (s *Service) deliver(ctx context.Context, msg Message) error {
	if s.breaker == nil {
		return s.provider.Send(ctx, msg)
	}
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.provider.Send(ctx, msg)
	})
	return err
}

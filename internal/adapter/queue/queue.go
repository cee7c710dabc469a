package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/ports"
	"github.com/fleetcore/driver-completion/pkg/config"
)

// New returns the run event publisher for cfg.Provider. With no provider,
// events are only logged.
func New(cfg config.EventsConfig, log *zap.Logger) (ports.MessageQueue, error) {
	switch cfg.Provider {
	case "":
		return NewLogQueue(log), nil
	case "nats":
		q, err := NewNATSQueue(cfg.URL, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	case "rabbitmq":
		q, err := NewRabbitMQQueue(cfg.URL, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown events provider: %s", cfg.Provider)
	}
}

// LogQueue writes events to the log instead of a broker.
type LogQueue struct {
	log *zap.Logger
}

func NewLogQueue(log *zap.Logger) *LogQueue {
	return &LogQueue{log: log}
}

func (q *LogQueue) Publish(subject string, data []byte) error {
	q.log.Debug("Run event", zap.String("subject", subject), zap.ByteString("payload", data))
	return nil
}

func (q *LogQueue) Close() error {
	return nil
}

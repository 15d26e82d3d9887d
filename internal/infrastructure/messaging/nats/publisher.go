package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// NATSPublisher implements port.EventPublisher for NATS JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	prefix string
	logger *logger.Logger
}

// NewNATSPublisher connects to NATS; subjects are published under prefix
func NewNATSPublisher(natsURL, prefix string, log *logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("pipeline-health"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	log.Info("Connected to NATS", "url", natsURL, "prefix", prefix)

	return &NATSPublisher{
		nc:     nc,
		js:     js,
		prefix: prefix,
		logger: log,
	}, nil
}

// PublishEvent publishes an event to NATS (async)
func (p *NATSPublisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	full := Subject(p.prefix, subject)
	if _, err := p.js.PublishAsync(full, data); err != nil {
		p.logger.Error("Failed to publish event", err, "subject", full)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published", "subject", full, "size", len(data))
	return nil
}

// Close waits briefly for pending async publishes and closes the connection
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}

	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(5 * time.Second):
		p.logger.Warn("Timed out waiting for pending NATS publishes")
	}

	p.logger.Info("Closing NATS connection")
	p.nc.Close()
	return nil
}

// Subject joins prefix and subject with a dot, skipping empty parts
func Subject(prefix, subject string) string {
	prefix = strings.Trim(prefix, ".")
	subject = strings.Trim(subject, ".")
	switch {
	case prefix == "":
		return subject
	case subject == "":
		return prefix
	default:
		return prefix + "." + subject
	}
}

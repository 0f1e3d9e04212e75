package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const streamName = "guardwars_events"

// NATSClient publishes engine notifications to NATS JetStream
type NATSClient struct {
	servers              string
	nc                   *nats.Conn
	js                   nats.JetStreamContext
	mu                   sync.RWMutex
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// NewNATSClient creates a new NATS client
func NewNATSClient(servers string) *NATSClient {
	return &NATSClient{
		servers:              servers,
		reconnectDelay:       2 * time.Second,
		maxReconnectAttempts: 10,
	}
}

// Connect establishes a connection to the NATS server with JetStream
func (c *NATSClient) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name("guardwars"),
		nats.MaxReconnects(c.maxReconnectAttempts),
		nats.ReconnectWait(c.reconnectDelay),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(c.servers, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.mu.Lock()
	c.nc = nc
	c.js = js
	c.mu.Unlock()

	log.WithField("servers", c.servers).Info("Connected to NATS with JetStream")
	return nil
}

// EnsureStream creates the notification stream covering subjects if it does not exist
func (c *NATSClient) EnsureStream(subjects []string) error {
	c.mu.RLock()
	js := c.js
	c.mu.RUnlock()
	if js == nil {
		return fmt.Errorf("not connected to NATS JetStream")
	}

	if _, err := js.StreamInfo(streamName); err == nil {
		log.WithField("stream", streamName).Info("JetStream stream already exists")
		return nil
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:        streamName,
		Subjects:    subjects,
		Retention:   nats.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Description: "Guard Wars combat and war notifications",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}

	log.WithFields(log.Fields{
		"stream":   streamName,
		"subjects": subjects,
	}).Info("Created JetStream stream")
	return nil
}

// Publish sends data on subject and waits for the stream acknowledgement
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	c.mu.RLock()
	js := c.js
	c.mu.RUnlock()
	if js == nil {
		return fmt.Errorf("not connected to NATS JetStream")
	}

	if _, err := js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection
func (c *NATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nc != nil {
		if err := c.nc.Drain(); err != nil {
			log.WithError(err).Warn("Failed to drain NATS connection")
			c.nc.Close()
		}
		log.Info("NATS connection closed")
	}
	c.nc = nil
	c.js = nil
	return nil
}

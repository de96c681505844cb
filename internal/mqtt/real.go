package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// ErrNotConnected is returned for unbuffered messages while the broker is
// unreachable.
var ErrNotConnected = errors.New("mqtt: not connected")

// DefaultPublishTimeout bounds the wait for a QoS 1 publish to complete.
const DefaultPublishTimeout = 5 * time.Second

// client is the part of paho.Client the publisher uses.
type client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Readings and system
// events published while disconnected are buffered and replayed on
// reconnect; raw messages are dropped.
type RealPublisher struct {
	client  client
	logger  *zap.SugaredLogger
	timeout time.Duration

	mu     sync.Mutex
	buffer *outbox
}

// NewRealPublisher starts connecting to broker in the background and returns
// immediately. The client reconnects on its own.
func NewRealPublisher(broker, clientID string, logger *zap.SugaredLogger) *RealPublisher {
	p := newPublisher(nil, logger)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(willPayload()), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.logger.Warnw("mqtt connection lost", "error", err)
		})

	c := paho.NewClient(opts)
	p.client = c
	c.Connect()
	p.logger.Infow("mqtt connecting", "broker", broker, "client_id", clientID)
	return p
}

func newPublisher(c client, logger *zap.SugaredLogger) *RealPublisher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RealPublisher{
		client:  c,
		logger:  logger,
		timeout: DefaultPublishTimeout,
		buffer:  newOutbox(DefaultBufferSize, logger),
	}
}

// onConnect replays messages buffered while disconnected.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	p.logger.Infow("mqtt connected", "replaying", len(pending))
	for i, msg := range pending {
		if err := p.send(msg); err != nil {
			p.logger.Warnw("mqtt replay failed", "topic", msg.topic, "error", err)
			p.mu.Lock()
			for _, rest := range pending[i:] {
				p.buffer.push(rest)
			}
			p.mu.Unlock()
			return
		}
	}
}

func (p *RealPublisher) publish(msg bufferedMsg, buffer bool) error {
	if !p.client.IsConnected() {
		if !buffer {
			return ErrNotConnected
		}
		p.mu.Lock()
		p.buffer.push(msg)
		p.mu.Unlock()
		return nil
	}
	return p.send(msg)
}

// send publishes msg. QoS 0 messages, which include every LED frame and
// readings update, never wait on the broker: a failure is only reported when
// the token has already completed.
func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if msg.qos == 0 {
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				return fmt.Errorf("publish %s: %w", msg.topic, err)
			}
		default:
		}
		return nil
	}
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// PublishReadings sends a gauge's readings, retained so late subscribers
// see the last values.
func (p *RealPublisher) PublishReadings(r Readings) error {
	payload, err := FormatReadingsPayload(r)
	if err != nil {
		return fmt.Errorf("format readings payload: %w", err)
	}
	// QoS 0 (at-most-once), retained
	return p.publish(bufferedMsg{topic: ReadingsTopic(r.Gauge), payload: payload, retained: true, latestOnly: true}, true)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) so startup and shutdown are delivered
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}, true)
}

// PublishRaw sends payload as is. It fails fast with ErrNotConnected while
// disconnected.
func (p *RealPublisher) PublishRaw(topic string, qos byte, retained bool, payload []byte) error {
	return p.publish(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained}, false)
}

// IsConnected reports whether the client is connected to the broker.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}

package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

const (
	clientID       = "doorbell-bridge"
	bufferCapacity = 64
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are held in a backlog and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    logrus.FieldLogger

	mu        sync.Mutex
	buf       *backlog
	connected bool // at least one successful connect
}

// NewRealPublisher creates a publisher connected to the given broker.
// The broker is given a retained last will on TopicSystem.
func NewRealPublisher(broker string, log logrus.FieldLogger) (*RealPublisher, error) {
	p := newPublisher(log)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload(time.Now())), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// Connect keeps retrying in the background; publishes are buffered meanwhile.
		log.WithField("broker", broker).Warn("mqtt: broker not reachable yet, buffering")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newPublisher(log logrus.FieldLogger) *RealPublisher {
	return &RealPublisher{
		log: log,
		buf: newBacklog(bufferCapacity, log),
	}
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(bufferedMsg{
		event:    event.Event,
		topic:    TopicSystem,
		payload:  payload,
		qos:      1,
		retained: event.Retained,
	})
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buf.push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		p.requeue(msg)
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		p.requeue(msg)
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) requeue(msg bufferedMsg) {
	p.mu.Lock()
	p.buf.push(msg)
	p.mu.Unlock()
}

// onConnect runs on every (re)connect. Reconnects are announced before the
// buffered backlog is replayed in publish order.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	pending := p.buf.drain()
	p.mu.Unlock()

	log := p.log.WithField("buffered", len(pending))
	if reconnect {
		log.Info("mqtt: reconnected")
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: EventReconnected})
		c.Publish(TopicSystem, 1, false, payload)
	} else {
		log.Info("mqtt: connected")
	}

	for _, msg := range pending {
		token := c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if token.WaitTimeout(publishTimeout) && token.Error() == nil {
			continue
		}
		p.log.WithField("topic", msg.topic).Warn("mqtt: replay failed")
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.log.WithError(err).Warn("mqtt: connection lost")
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

package publish

import (
	"context"
	"path"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"go.viam.com/depthcamera/msgs"
)

// DefaultPublishTimeout bounds how long a publish waits for the broker.
const DefaultPublishTimeout = 2 * time.Second

// MQTTPublisher publishes msgpack encoded messages to an MQTT broker under a topic prefix.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher returns a publisher over a connected client.
func NewMQTTPublisher(client mqtt.Client, prefix string, qos byte, timeout time.Duration) *MQTTPublisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos, timeout: timeout}
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, msg msgs.Message) error {
	payload, err := msgs.Encode(msg)
	if err != nil {
		return err
	}
	name := path.Join(p.prefix, topic)
	token := p.client.Publish(name, p.qos, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.Errorf("mqtt publish to %q timed out after %s", name, p.timeout)
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "mqtt publish to %q failed", name)
	}
	return nil
}

// Close disconnects the client.
func (p *MQTTPublisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}

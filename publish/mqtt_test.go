package publish

import (
	"context"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/depthcamera/msgs"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(complete bool, err error) *fakeToken {
	tok := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(tok.done)
	}
	return tok
}

func (tok *fakeToken) Wait() bool {
	<-tok.done
	return true
}

func (tok *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-tok.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (tok *fakeToken) Done() <-chan struct{} { return tok.done }

func (tok *fakeToken) Error() error { return tok.err }

type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	topics       []string
	payloads     [][]byte
	token        *fakeToken
	connected    bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	return c.token
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
	c.connected = false
}

func TestMQTTPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes encoded messages under the prefix", func(t *testing.T) {
		client := &fakeClient{token: newFakeToken(true, nil), connected: true}
		p := NewMQTTPublisher(client, "sim/depth", 1, 0)
		msg := &msgs.Image{Header: msgs.Header{FrameID: "world"}, Encoding: msgs.EncodingMono8, Data: []byte{4}}
		test.That(t, p.Publish(ctx, "/cam/image", msg), test.ShouldBeNil)
		test.That(t, client.topics, test.ShouldResemble, []string{"sim/depth/cam/image"})

		decoded, err := msgs.Decode(client.payloads[0])
		test.That(t, err, test.ShouldBeNil)
		test.That(t, decoded.(*msgs.Image).Data, test.ShouldResemble, []byte{4})
		test.That(t, decoded.GetHeader().FrameID, test.ShouldEqual, "world")

		test.That(t, p.Close(), test.ShouldBeNil)
		test.That(t, client.disconnected, test.ShouldBeTrue)
	})

	t.Run("broker errors", func(t *testing.T) {
		client := &fakeClient{token: newFakeToken(true, errors.New("not authorized"))}
		p := NewMQTTPublisher(client, "", 0, time.Second)
		err := p.Publish(ctx, "points", &msgs.PointCloud2{})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "not authorized")
	})

	t.Run("timeout", func(t *testing.T) {
		client := &fakeClient{token: newFakeToken(false, nil)}
		p := NewMQTTPublisher(client, "", 0, 10*time.Millisecond)
		err := p.Publish(ctx, "points", &msgs.PointCloud2{})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "timed out")
	})

	t.Run("canceled context", func(t *testing.T) {
		client := &fakeClient{token: newFakeToken(false, nil)}
		p := NewMQTTPublisher(client, "", 0, time.Minute)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		test.That(t, p.Publish(cctx, "points", &msgs.PointCloud2{}), test.ShouldEqual, context.Canceled)
	})
}

// Package msgs defines the messages the camera publishes and their wire encoding.
package msgs

import (
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Message types.
const (
	TypePointCloud2 = "sensor_msgs/PointCloud2"
	TypeImage       = "sensor_msgs/Image"
	TypeCameraInfo  = "sensor_msgs/CameraInfo"
)

// Header identifies the frame a message is expressed in and when it was captured.
type Header struct {
	FrameID string    `msgpack:"frame_id"`
	Stamp   time.Time `msgpack:"stamp"`
}

// Message is implemented by every published message.
type Message interface {
	Type() string
	GetHeader() *Header
	// Clone returns a deep copy that shares no buffers with the receiver.
	Clone() Message
}

type envelope struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// Encode serializes m together with its type.
func Encode(m Message) ([]byte, error) {
	payload, err := msgpack.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", m.Type())
	}
	return msgpack.Marshal(&envelope{Type: m.Type(), Payload: payload})
}

// Decode is the inverse of Encode.
func Decode(b []byte) (Message, error) {
	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, errors.Wrap(err, "failed to decode message envelope")
	}
	var m Message
	switch env.Type {
	case TypePointCloud2:
		m = &PointCloud2{}
	case TypeImage:
		m = &Image{}
	case TypeCameraInfo:
		m = &CameraInfo{}
	default:
		return nil, errors.Errorf("unknown message type %q", env.Type)
	}
	if err := msgpack.Unmarshal(env.Payload, m); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", env.Type)
	}
	return m, nil
}

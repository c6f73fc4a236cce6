// Package testhelper provides helper functions for testing the depth camera packages
package testhelper

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthcamera/msgs"
	"go.viam.com/depthcamera/sensors"
)

// CreateTempFolderArchitecture creates a new random temporary
// directory with the config and data subdirectories used by the recorder.
func CreateTempFolderArchitecture() (string, error) {
	name, err := os.MkdirTemp("", "*")
	if err != nil {
		return "", err
	}

	if err := os.Mkdir(filepath.Join(name, "config"), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.Mkdir(filepath.Join(name, "data"), os.ModePerm); err != nil {
		return "", err
	}

	return name, nil
}

// ResetFolder removes all content in path and creates a new directory
// in its place.
func ResetFolder(path string) error {
	err := os.RemoveAll(path)
	if err != nil {
		return err
	}
	err = os.Mkdir(path, os.ModePerm)
	return err
}

// CountFiles returns the number of regular files directly under dir.
func CountFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	return n
}

// Published is one message seen by a RecordingPublisher.
type Published struct {
	Topic string
	Msg   msgs.Message
}

// RecordingPublisher remembers everything published to it.
type RecordingPublisher struct {
	mu   sync.Mutex
	msgs []Published
	// Err is returned from every Publish when set.
	Err error
}

// Publish records msg.
func (p *RecordingPublisher) Publish(ctx context.Context, topic string, msg msgs.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.msgs = append(p.msgs, Published{Topic: topic, Msg: msg})
	return nil
}

// All returns every recorded message in publish order.
func (p *RecordingPublisher) All() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.msgs...)
}

// On returns the messages recorded on topic.
func (p *RecordingPublisher) On(topic string) []msgs.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []msgs.Message
	for _, m := range p.msgs {
		if m.Topic == topic {
			out = append(out, m.Msg)
		}
	}
	return out
}

// Reset forgets everything recorded so far.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = nil
}

// DepthFrame returns a rows x cols range frame filled with value.
func DepthFrame(rows, cols int, value float32) sensors.Frame[float32] {
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = value
	}
	return sensors.Frame[float32]{Data: data, Width: cols, Height: rows, Channels: 1, Format: sensors.FormatFloat32}
}

// ColorFrame returns a rows x cols frame with channels bytes per pixel, all set to value.
func ColorFrame(rows, cols, channels int, value uint8) sensors.Frame[uint8] {
	data := make([]uint8, rows*cols*channels)
	for i := range data {
		data[i] = value
	}
	format := sensors.FormatRGB8
	if channels == 1 {
		format = sensors.FormatL8
	}
	return sensors.Frame[uint8]{Data: data, Width: cols, Height: rows, Channels: channels, Format: format}
}

package dataprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/depthcamera/msgs"
)

// TimeFormat names recorded files after their capture time.
const TimeFormat = "2006-01-02T15:04:05.0000Z07:00"

// Recorder is a publisher that writes every message into a per topic directory of
// a new session under dataDirectory/data.
type Recorder struct {
	dir        string
	cameraName string
	las        bool
	logger     golog.Logger

	mu      sync.Mutex
	written map[string]int
	next    map[string]int
}

// RecordName is the file name, without extension, of the seq'th message recorded
// on a topic. Messages sharing a capture time stay apart through seq.
func RecordName(stamp time.Time, seq int) string {
	return fmt.Sprintf("%s_%06d", stamp.UTC().Format(TimeFormat), seq)
}

// NewRecorder creates the session directory. With las set, point clouds are also
// written as LAS files.
func NewRecorder(dataDirectory, cameraName string, las bool, logger golog.Logger) (*Recorder, error) {
	dir := filepath.Join(dataDirectory, "data", uuid.NewString())
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "issue creating recording directory at %v", dir)
	}
	logger.Debugw("recording session started", "dir", dir)
	return &Recorder{dir: dir, cameraName: cameraName, las: las, logger: logger, written: map[string]int{}, next: map[string]int{}}, nil
}

// Dir returns the session directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// TopicDir returns the directory messages on topic are written to.
func (r *Recorder) TopicDir(topic string) string {
	name := strings.ReplaceAll(strings.Trim(topic, "/"), "/", "_")
	if name == "" {
		name = "root"
	}
	return filepath.Join(r.dir, name)
}

// Written returns how many messages were written per topic.
func (r *Recorder) Written() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.written))
	for k, v := range r.written {
		out[k] = v
	}
	return out
}

// Publish implements publish.Publisher.
func (r *Recorder) Publish(ctx context.Context, topic string, msg msgs.Message) error {
	dir := r.TopicDir(topic)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	r.mu.Lock()
	seq := r.next[topic]
	r.next[topic]++
	r.mu.Unlock()
	base := filepath.Join(dir, RecordName(msg.GetHeader().Stamp, seq))

	var err error
	switch m := msg.(type) {
	case *msgs.PointCloud2:
		err = WritePCDToFile(ctx, m, base+".pcd")
		if r.las {
			err = multierr.Append(err, WriteLASFile(m, base+".las"))
		}
	case *msgs.Image:
		if m.Encoding == msgs.Encoding32FC4 {
			err = writeEncoded(m, base+".msgpack")
		} else {
			err = WriteImageToPNGFile(ctx, m, base+".png")
		}
	case *msgs.CameraInfo:
		err = WriteCameraInfoToFile(ctx, m, r.cameraName, base+".yaml")
	default:
		err = writeEncoded(msg, base+".msgpack")
	}
	if err != nil {
		r.logger.Errorw("failed to record message", "topic", topic, "error", err)
		return err
	}

	r.mu.Lock()
	r.written[topic]++
	r.mu.Unlock()
	return nil
}

func writeEncoded(msg msgs.Message, filename string) error {
	b, err := msgs.Encode(msg)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o600)
}

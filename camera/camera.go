// Package camera assembles the depth camera: it receives sensor frames, keeps the
// sensor running only while outputs have subscribers and publishes the converted
// messages.
package camera

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"

	"go.viam.com/depthcamera/activation"
	"go.viam.com/depthcamera/config"
	"go.viam.com/depthcamera/publish"
	"go.viam.com/depthcamera/sensors"
	"go.viam.com/depthcamera/sensors/rgb"
	"go.viam.com/depthcamera/sink"
	"go.viam.com/depthcamera/unproject"
	"go.viam.com/depthcamera/utils"
)

// Topics are the fully resolved topic names of every output.
type Topics struct {
	Image           string
	CameraInfo      string
	PointCloud      string
	DepthImage      string
	NormalsImage    string
	DepthCameraInfo string
}

// NewTopics resolves the configured topic names under the camera namespace.
func NewTopics(cfg *config.AttrConfig) Topics {
	return Topics{
		Image:           utils.ResolveTopic(cfg.CameraName, cfg.ImageTopicName),
		CameraInfo:      utils.ResolveTopic(cfg.CameraName, cfg.CameraInfoTopicName),
		PointCloud:      utils.ResolveTopic(cfg.CameraName, cfg.PointCloudTopicName),
		DepthImage:      utils.ResolveTopic(cfg.CameraName, cfg.DepthImageTopicName),
		NormalsImage:    utils.ResolveTopic(cfg.CameraName, cfg.NormalsImageTopicName),
		DepthCameraInfo: utils.ResolveTopic(cfg.CameraName, cfg.DepthImageCameraInfoTopicName),
	}
}

func (t Topics) kinds() map[string]activation.Kind {
	return map[string]activation.Kind{
		t.Image:           activation.ColorImage,
		t.CameraInfo:      activation.ColorImage,
		t.PointCloud:      activation.PointCloud,
		t.DepthImage:      activation.DepthImage,
		t.NormalsImage:    activation.NormalsImage,
		t.DepthCameraInfo: activation.DepthInfo,
	}
}

func (t Topics) dict() map[string]string {
	return map[string]string{
		"image":             t.Image,
		"camera_info":       t.CameraInfo,
		"point_cloud":       t.PointCloud,
		"depth_image":       t.DepthImage,
		"normals_image":     t.NormalsImage,
		"depth_camera_info": t.DepthCameraInfo,
	}
}

// Advertiser announces topics and reports subscriber changes on them.
type Advertiser interface {
	Advertise(topic string, onConnect, onDisconnect func()) error
}

// throttle limits how often camera info goes out.
type throttle struct {
	mu     sync.Mutex
	period time.Duration
	last   time.Time
}

func (t *throttle) ready(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.last.IsZero() && now.Sub(t.last) < t.period {
		return false
	}
	t.last = now
	return true
}

// DepthCamera converts the frames of one simulated depth sensor.
type DepthCamera struct {
	src    sensors.Source
	ctrl   *activation.Controller
	colors *rgb.Store
	logger golog.Logger

	initialized atomic.Bool
	loadOnce    sync.Once
	warnOnce    sync.Once

	// set by Load
	topics        Topics
	cloudGate     *publish.Gate[float32]
	rgbCloudGate  *publish.Gate[float32]
	depthGate     *publish.Gate[float32]
	normalsGate   *publish.Gate[float32]
	depthInfoGate *publish.Gate[float32]
	colorGate     *publish.Gate[uint8]
	colorInfoGate *publish.Gate[uint8]
	depthInfo     throttle
	colorInfo     throttle
}

// New returns a camera for src. Frame callbacks may be wired to it right away, but
// frames are dropped until Load succeeds.
func New(src sensors.Source, logger golog.Logger) *DepthCamera {
	return &DepthCamera{
		src:    src,
		ctrl:   activation.NewController(src, logger),
		colors: &rgb.Store{},
		logger: logger,
	}
}

// Load configures the outputs and starts accepting frames. It may only be called once.
func (c *DepthCamera) Load(ctx context.Context, cfg *config.AttrConfig, pub publish.Publisher) error {
	_, span := trace.StartSpan(ctx, "depthcamera::camera::Load")
	defer span.End()

	if cfg == nil {
		cfg = &config.AttrConfig{}
	}
	if err := cfg.Validate("depth_camera"); err != nil {
		return config.WrapError(err)
	}
	cfg.SetParameters(c.logger)

	err := errors.New("depth camera is already loaded")
	c.loadOnce.Do(func() {
		c.load(cfg, pub)
		err = nil
	})
	return err
}

func (c *DepthCamera) load(cfg *config.AttrConfig, pub publish.Publisher) {
	policy := unproject.Policy{Cutoff: cfg.Cutoff()}
	frame := cfg.FrameName
	hfov := c.src.HorizontalFOV

	c.topics = NewTopics(cfg)
	c.cloudGate = publish.NewGate[float32](c.topics.PointCloud, frame, sink.NewPointCloudSink(hfov, policy, c.colors), pub)
	c.rgbCloudGate = publish.NewGate[float32](c.topics.PointCloud, frame, sink.NewRGBPointCloudSink(), pub)
	c.depthGate = publish.NewGate[float32](c.topics.DepthImage, frame, sink.NewDepthSink(policy), pub)
	c.normalsGate = publish.NewGate[float32](c.topics.NormalsImage, frame, sink.NewNormalsSink(), pub)
	c.depthInfoGate = publish.NewGate[float32](c.topics.DepthCameraInfo, frame,
		sink.NewCameraInfoSink[float32](activation.DepthInfo, hfov), pub)
	c.colorGate = publish.NewGate[uint8](c.topics.Image, frame, sink.NewColorImageSink(), pub)
	c.colorInfoGate = publish.NewGate[uint8](c.topics.CameraInfo, frame,
		sink.NewCameraInfoSink[uint8](activation.ColorImage, hfov), pub)

	var period time.Duration
	if cfg.UpdateRate > 0 {
		period = time.Duration(float64(time.Second) / cfg.UpdateRate)
	}
	c.depthInfo.period = period
	c.colorInfo.period = period

	c.logger.Debugf("depth camera topics %s", utils.DictToString(c.topics.dict()))
	c.initialized.Store(true)
}

// Topics returns the resolved topic names. They are empty before Load.
func (c *DepthCamera) Topics() Topics {
	if !c.initialized.Load() {
		return Topics{}
	}
	return c.topics
}

// Advertise announces every output topic so that subscriber changes drive demand.
func (c *DepthCamera) Advertise(adv Advertiser) error {
	if !c.initialized.Load() {
		return errors.New("cannot advertise topics before the depth camera is loaded")
	}
	for topic, kind := range c.topics.kinds() {
		onConnect := func() {
			if err := c.OnSubscribe(kind); err != nil {
				c.logger.Errorw("failed to count subscriber", "topic", topic, "error", err)
			}
		}
		onDisconnect := func() {
			if err := c.OnUnsubscribe(kind); err != nil {
				c.logger.Errorw("failed to drop subscriber", "topic", topic, "error", err)
			}
		}
		if err := adv.Advertise(topic, onConnect, onDisconnect); err != nil {
			return errors.Wrapf(err, "failed to advertise %q", topic)
		}
	}
	return nil
}

// OnSubscribe counts a new subscriber of k.
func (c *DepthCamera) OnSubscribe(k activation.Kind) error {
	return c.ctrl.OnSubscribe(k)
}

// OnUnsubscribe drops a subscriber of k.
func (c *DepthCamera) OnUnsubscribe(k activation.Kind) error {
	return c.ctrl.OnUnsubscribe(k)
}

// State returns the activation state seen on the most recent frame.
func (c *DepthCamera) State() activation.State {
	return c.ctrl.State()
}

// Counts returns the subscriber count of every output.
func (c *DepthCamera) Counts() map[activation.Kind]int64 {
	return c.ctrl.Counts()
}

// ready reports whether a frame of the given size can be handled.
func (c *DepthCamera) ready(width, height int) bool {
	if !c.initialized.Load() {
		c.warnOnce.Do(func() {
			c.logger.Warn("received a frame before the depth camera was loaded, dropping frames until it is")
		})
		return false
	}
	return width > 0 && height > 0
}

func dispatch[T sensors.Sample](
	ctx context.Context,
	c *DepthCamera,
	g *publish.Gate[T],
	stamp time.Time,
	f sensors.Frame[T],
) {
	if !c.ctrl.Wants(g.Kind()) {
		return
	}
	if err := g.Dispatch(ctx, stamp, f); err != nil {
		c.logger.Errorw("failed to publish frame", "topic", g.Topic(), "error", err)
	}
}

func dispatchInfo[T sensors.Sample](
	ctx context.Context,
	c *DepthCamera,
	g *publish.Gate[T],
	t *throttle,
	stamp time.Time,
	f sensors.Frame[T],
) {
	if !c.ctrl.Wants(g.Kind()) || !t.ready(stamp) {
		return
	}
	if err := g.Dispatch(ctx, stamp, f); err != nil {
		c.logger.Errorw("failed to publish camera info", "topic", g.Topic(), "error", err)
	}
}

// OnNewDepthFrame converts a range frame into the point cloud, the depth image and
// the depth camera info.
func (c *DepthCamera) OnNewDepthFrame(ctx context.Context, f sensors.Frame[float32]) {
	if !c.ready(f.Width, f.Height) {
		return
	}
	ctx, span := trace.StartSpan(ctx, "depthcamera::camera::OnNewDepthFrame")
	defer span.End()

	if !c.ctrl.OnFrame().Converts() {
		return
	}
	stamp := c.src.LastMeasurementTime()
	dispatch(ctx, c, c.cloudGate, stamp, f)
	dispatch(ctx, c, c.depthGate, stamp, f)
	dispatchInfo(ctx, c, c.depthInfoGate, &c.depthInfo, stamp, f)
}

// OnNewNormalsFrame publishes a surface normals frame.
func (c *DepthCamera) OnNewNormalsFrame(ctx context.Context, f sensors.Frame[float32]) {
	if !c.ready(f.Width, f.Height) {
		return
	}
	ctx, span := trace.StartSpan(ctx, "depthcamera::camera::OnNewNormalsFrame")
	defer span.End()

	if !c.ctrl.OnFrame().Converts() {
		return
	}
	dispatch(ctx, c, c.normalsGate, c.src.LastMeasurementTime(), f)
}

// OnNewImageFrame keeps the color frame for coloring points and publishes it with
// its camera info.
func (c *DepthCamera) OnNewImageFrame(ctx context.Context, f sensors.Frame[uint8]) {
	if !c.ready(f.Width, f.Height) {
		return
	}
	ctx, span := trace.StartSpan(ctx, "depthcamera::camera::OnNewImageFrame")
	defer span.End()

	c.colors.Update(f)
	if !c.ctrl.OnFrame().Converts() {
		return
	}
	stamp := c.src.LastMeasurementTime()
	dispatch(ctx, c, c.colorGate, stamp, f)
	dispatchInfo(ctx, c, c.colorInfoGate, &c.colorInfo, stamp, f)
}

// OnNewRGBPointCloud publishes a frame that already holds colored points.
func (c *DepthCamera) OnNewRGBPointCloud(ctx context.Context, f sensors.Frame[float32]) {
	if !c.ready(f.Width, f.Height) {
		return
	}
	ctx, span := trace.StartSpan(ctx, "depthcamera::camera::OnNewRGBPointCloud")
	defer span.End()

	if !c.ctrl.OnFrame().Converts() {
		return
	}
	dispatch(ctx, c, c.rgbCloudGate, c.src.LastMeasurementTime(), f)
}

// Close stops accepting frames and asks the sensor to stop capturing.
func (c *DepthCamera) Close(ctx context.Context) error {
	c.initialized.Store(false)
	c.src.SetActive(false)
	c.logger.Debug("depth camera closed")
	return nil
}

// Package main runs the depth camera against a synthetic scene and reports what
// the subscribed topics receive.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.viam.com/utils"

	"go.viam.com/depthcamera/camera"
	"go.viam.com/depthcamera/config"
	"go.viam.com/depthcamera/dataprocess"
	"go.viam.com/depthcamera/publish"
	"go.viam.com/depthcamera/sensors/fake"
)

const (
	// Flags.
	flagConfig    = "config"
	flagDebug     = "debug"
	flagQuiet     = "quiet"
	flagWidth     = "width"
	flagHeight    = "height"
	flagFPS       = "fps"
	flagHFOV      = "hfov"
	flagDuration  = "duration"
	flagSubscribe = "subscribe"
	flagBuffer    = "buffer"
	flagLAS       = "las"
)

type options struct {
	width, height int
	fps           float64
	hfov          float64
	duration      time.Duration
	subscribe     []string
	buffer        int
	las           bool
}

func main() {
	var logger golog.Logger

	app := &cli.App{
		Name:  "depthcamsim",
		Usage: "run the depth camera against a synthetic scene",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load camera attributes from `FILE`",
			},
			&cli.BoolFlag{Name: flagDebug, Usage: "enable debug logging"},
			&cli.BoolFlag{Name: flagQuiet, Usage: "disable logging"},
			&cli.IntFlag{Name: flagWidth, Value: 64, Usage: "frame width in pixels"},
			&cli.IntFlag{Name: flagHeight, Value: 48, Usage: "frame height in pixels"},
			&cli.Float64Flag{Name: flagFPS, Value: 10, Usage: "frames per second"},
			&cli.Float64Flag{Name: flagHFOV, Value: fake.DefaultHFOV, Usage: "horizontal field of view in radians"},
			&cli.DurationFlag{Name: flagDuration, Usage: "stop after this long, 0 runs until interrupted"},
			&cli.StringSliceFlag{
				Name:    flagSubscribe,
				Aliases: []string{"s"},
				Usage:   "subscribe to `TOPIC`, relative names resolve under camera_name",
			},
			&cli.IntFlag{Name: flagBuffer, Value: 8, Usage: "messages buffered per subscriber"},
			&cli.BoolFlag{Name: flagLAS, Usage: "also record point clouds as LAS files"},
		},
		Before: func(c *cli.Context) error {
			switch {
			case c.Bool(flagQuiet):
				logger = zap.NewNop().Sugar()
			case c.Bool(flagDebug):
				logger = golog.NewDebugLogger("depthcamsim")
			default:
				logger = golog.NewDevelopmentLogger("depthcamsim")
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			cfg := &config.AttrConfig{}
			if path := c.String(flagConfig); path != "" {
				var err error
				if cfg, err = config.NewAttrConfigFromFile(path, logger); err != nil {
					return err
				}
			}
			opts := options{
				width:     c.Int(flagWidth),
				height:    c.Int(flagHeight),
				fps:       c.Float64(flagFPS),
				hfov:      c.Float64(flagHFOV),
				duration:  c.Duration(flagDuration),
				subscribe: c.StringSlice(flagSubscribe),
				buffer:    c.Int(flagBuffer),
				las:       c.Bool(flagLAS),
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()
			res, err := run(ctx, cfg, opts, logger)
			if err != nil {
				return err
			}
			logger.Infow("simulation finished",
				"frames", res.frames,
				"received", res.received,
				"dropped", res.dropped,
				"recorded", res.recorded)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		if logger == nil {
			logger = golog.NewDevelopmentLogger("depthcamsim")
		}
		logger.Fatal(err)
	}
}

type result struct {
	frames   int
	received map[string]int
	dropped  int64
	recorded map[string]int
}

func (o options) validate() error {
	if o.width <= 0 || o.height <= 0 {
		return errors.Errorf("frame size must be positive, got %dx%d", o.width, o.height)
	}
	if o.fps <= 0 {
		return errors.Errorf("fps must be positive, got %v", o.fps)
	}
	if o.buffer < 0 {
		return errors.Errorf("buffer cannot be negative, got %d", o.buffer)
	}
	return nil
}

// outputs builds the publishers every converted message goes to. The bus always
// comes first so that local subscribers see messages before the slower sinks.
func outputs(ctx context.Context, cfg *config.AttrConfig, bus *publish.Bus, las bool, logger golog.Logger,
) (publish.Fanout, *dataprocess.Recorder, func() error, error) {
	pubs := publish.Fanout{bus}
	closeFn := func() error { return nil }

	var rec *dataprocess.Recorder
	if cfg.DataDirectory != "" {
		if err := config.SetupDirectories(cfg.DataDirectory, logger); err != nil {
			return nil, nil, closeFn, err
		}
		var err error
		if rec, err = dataprocess.NewRecorder(cfg.DataDirectory, cfg.CameraName, las, logger); err != nil {
			return nil, nil, closeFn, err
		}
		logger.Infow("recording camera output", "dir", rec.Dir())
		pubs = append(pubs, rec)
	}

	if cfg.MQTT != nil {
		client, err := config.SetupMQTTConnection(ctx, cfg.MQTT, logger)
		if err != nil {
			return nil, nil, closeFn, err
		}
		mq := publish.NewMQTTPublisher(client, cfg.MQTT.Prefix, byte(cfg.MQTT.QoS), publish.DefaultPublishTimeout)
		closeFn = mq.Close
		pubs = append(pubs, mq)
	}
	return pubs, rec, closeFn, nil
}

func run(ctx context.Context, cfg *config.AttrConfig, opts options, logger golog.Logger) (res result, err error) {
	if err := opts.validate(); err != nil {
		return result{}, err
	}
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	bus := publish.NewBus(logger)
	pubs, rec, closeOutputs, err := outputs(ctx, cfg, bus, opts.las, logger)
	if err != nil {
		return result{}, err
	}
	defer func() {
		err = multierr.Combine(err, closeOutputs())
	}()

	sensor := fake.NewSensor(opts.hfov, time.Now())
	cam := camera.New(sensor, logger)
	if err := cam.Load(ctx, cfg, pubs); err != nil {
		return result{}, err
	}
	defer func() {
		err = multierr.Combine(err, cam.Close(context.Background()))
	}()
	if err := cam.Advertise(bus); err != nil {
		return result{}, err
	}

	counts := newCounter()
	var subs []*publish.Subscription
	for _, name := range opts.subscribe {
		sub := bus.Subscribe(resolve(cfg, name), opts.buffer)
		subs = append(subs, sub)
		done := counts.track(sub.Topic)
		utils.PanicCapturingGo(func() {
			defer done()
			for msg := range sub.C {
				counts.add(sub.Topic)
				logger.Debugw("received message", "topic", sub.Topic, "type", msg.Type(), "stamp", msg.GetHeader().Stamp)
			}
		})
	}

	period := time.Duration(float64(time.Second) / opts.fps)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	scene := fake.DefaultScene(opts.width, opts.height, sensor.HorizontalFOV())
	depth, normals, color := scene.Depth(), scene.Normals(), scene.Color()
	// a frame in flight is finished even when ctx ends mid tick
	frameCtx := context.WithoutCancel(ctx)
	for utils.SelectContextOrWaitChan(ctx, ticker.C) {
		sensor.Tick(period)
		cam.OnNewDepthFrame(frameCtx, depth)
		cam.OnNewNormalsFrame(frameCtx, normals)
		cam.OnNewImageFrame(frameCtx, color)
		res.frames++
	}

	for _, sub := range subs {
		sub.Close()
	}
	counts.wait()

	res.received = counts.snapshot()
	res.dropped = bus.Dropped()
	if rec != nil {
		res.recorded = rec.Written()
	}
	return res, nil
}

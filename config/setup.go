package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// SetupDirectories creates the core data and config directories at the end of the passed path.
func SetupDirectories(dataDirectory string, logger golog.Logger) error {
	for _, directoryName := range [3]string{"", "data", "config"} {
		directoryPath := filepath.Join(dataDirectory, directoryName)
		if _, err := os.Stat(directoryPath); os.IsNotExist(err) {
			logger.Warnf("%v directory does not exist", directoryPath)
			if err := os.Mkdir(directoryPath, os.ModePerm); err != nil {
				return errors.Errorf("issue creating directory at %v: %v", directoryPath, err)
			}
		}
	}
	return nil
}

// NewMQTTClientOptions returns the client options for cfg.
func NewMQTTClientOptions(cfg *MQTTConfig, logger golog.Logger) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		logger.Warnw("mqtt connection lost, reconnecting", "broker", cfg.Broker, "error", err)
	})
	return opts
}

// SetupMQTTConnection connects to the configured broker, giving up after the
// configured timeout.
func SetupMQTTConnection(ctx context.Context, cfg *MQTTConfig, logger golog.Logger) (mqtt.Client, error) {
	_, span := trace.StartSpan(ctx, "depthcamera::config::setupMQTTConnection")
	defer span.End()

	if cfg == nil || cfg.Broker == "" {
		return nil, NewError("mqtt.broker is required to connect")
	}
	timeout := time.Duration(cfg.ConnectTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = DefaultMQTTConnectTimeoutSec * time.Second
	}

	client := mqtt.NewClient(NewMQTTClientOptions(cfg, logger))
	token := client.Connect()
	select {
	case <-ctx.Done():
		client.Disconnect(0)
		return nil, ctx.Err()
	case <-time.After(timeout):
		client.Disconnect(0)
		logger.Errorw("timed out connecting to mqtt broker", "broker", cfg.Broker, "timeout", timeout)
		return nil, errors.Errorf("timed out connecting to mqtt broker %v", cfg.Broker)
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		logger.Errorw("error connecting to mqtt broker", "broker", cfg.Broker, "error", err)
		return nil, err
	}
	logger.Debugw("connected to mqtt broker", "broker", cfg.Broker, "client_id", cfg.ClientID)
	return client, nil
}

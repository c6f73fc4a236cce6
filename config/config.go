// Package config implements functions to assist with attribute evaluation for the depth camera
package config

import (
	"math"
	"os"

	"github.com/edaniels/golog"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"go.viam.com/depthcamera/unproject"
)

// Default attribute values.
const (
	DefaultFrameName                     = "world"
	DefaultImageTopicName                = "ir/image_raw"
	DefaultCameraInfoTopicName           = "ir/camera_info"
	DefaultPointCloudTopicName           = "points"
	DefaultDepthImageTopicName           = "depth/image_raw"
	DefaultNormalsImageTopicName         = "normals/image_raw"
	DefaultDepthImageCameraInfoTopicName = "depth/camera_info"
	DefaultPointCloudCutoff              = unproject.DefaultCutoff
	DefaultMQTTConnectTimeoutSec         = 5
)

// NewError returns an error specific to a failure in the depth camera config.
func NewError(configError string) error {
	return errors.Errorf("Depth camera configuration error: %s", configError)
}

// WrapError wraps an error to show it came from the depth camera config.
func WrapError(configError error) error {
	return NewError(configError.Error())
}

// MQTTConfig describes the broker messages are forwarded to.
type MQTTConfig struct {
	Broker            string `json:"broker"`
	ClientID          string `json:"client_id"`
	Prefix            string `json:"prefix"`
	QoS               int    `json:"qos"`
	ConnectTimeoutSec int    `json:"connect_timeout_sec"`
}

// AttrConfig describes how to configure the depth camera.
type AttrConfig struct {
	CameraName                    string      `json:"camera_name"`
	FrameName                     string      `json:"frame_name"`
	ImageTopicName                string      `json:"image_topic_name"`
	CameraInfoTopicName           string      `json:"camera_info_topic_name"`
	PointCloudTopicName           string      `json:"point_cloud_topic_name"`
	DepthImageTopicName           string      `json:"depth_image_topic_name"`
	NormalsImageTopicName         string      `json:"normals_image_topic_name"`
	DepthImageCameraInfoTopicName string      `json:"depth_image_camera_info_topic_name"`
	PointCloudCutoff              *float64    `json:"point_cloud_cutoff"`
	UpdateRate                    float64     `json:"update_rate"`
	DataDirectory                 string      `json:"data_dir"`
	MQTT                          *MQTTConfig `json:"mqtt"`
}

// NewAttrConfig decodes, validates and defaults an attribute map.
func NewAttrConfig(attributes map[string]interface{}, logger golog.Logger) (*AttrConfig, error) {
	attrCfg := &AttrConfig{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: attrCfg})
	if err != nil {
		return nil, WrapError(err)
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, WrapError(err)
	}

	if err := attrCfg.Validate("attributes"); err != nil {
		return nil, WrapError(err)
	}
	attrCfg.SetParameters(logger)
	return attrCfg, nil
}

// NewAttrConfigFromFile reads attributes from a YAML or JSON description file.
func NewAttrConfigFromFile(path string, logger golog.Logger) (*AttrConfig, error) {
	//nolint:gosec
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(err)
	}
	attributes := map[string]interface{}{}
	if err := yaml.Unmarshal(b, &attributes); err != nil {
		return nil, NewError(errors.Wrapf(err, "cannot parse %v", path).Error())
	}
	return NewAttrConfig(attributes, logger)
}

// Validate checks the attributes that cannot be defaulted.
func (config *AttrConfig) Validate(path string) error {
	if config.PointCloudCutoff != nil && (math.IsNaN(*config.PointCloudCutoff) || *config.PointCloudCutoff < 0) {
		return errors.New("cannot specify point_cloud_cutoff less than zero")
	}

	if config.UpdateRate < 0 || math.IsNaN(config.UpdateRate) {
		return errors.New("cannot specify update_rate less than zero")
	}

	if config.MQTT != nil {
		if config.MQTT.Broker == "" {
			return utils.NewConfigValidationFieldRequiredError(path, "mqtt.broker")
		}
		if config.MQTT.QoS < 0 || config.MQTT.QoS > 2 {
			return utils.NewConfigValidationError(path, errors.Errorf("mqtt.qos must be 0, 1 or 2, got %d", config.MQTT.QoS))
		}
		if config.MQTT.ConnectTimeoutSec < 0 {
			return errors.New("cannot specify mqtt.connect_timeout_sec less than zero")
		}
	}

	return nil
}

func defaultString(field *string, name, value string, logger golog.Logger) {
	if *field == "" {
		*field = value
		logger.Debugf("no %s given, setting to default value of %q", name, value)
	}
}

// SetParameters fills every attribute that was not given with its default.
func (config *AttrConfig) SetParameters(logger golog.Logger) {
	defaultString(&config.FrameName, "frame_name", DefaultFrameName, logger)
	defaultString(&config.ImageTopicName, "image_topic_name", DefaultImageTopicName, logger)
	defaultString(&config.CameraInfoTopicName, "camera_info_topic_name", DefaultCameraInfoTopicName, logger)
	defaultString(&config.PointCloudTopicName, "point_cloud_topic_name", DefaultPointCloudTopicName, logger)
	defaultString(&config.DepthImageTopicName, "depth_image_topic_name", DefaultDepthImageTopicName, logger)
	defaultString(&config.NormalsImageTopicName, "normals_image_topic_name", DefaultNormalsImageTopicName, logger)
	defaultString(&config.DepthImageCameraInfoTopicName, "depth_image_camera_info_topic_name",
		DefaultDepthImageCameraInfoTopicName, logger)

	if config.PointCloudCutoff == nil {
		cutoff := DefaultPointCloudCutoff
		config.PointCloudCutoff = &cutoff
		logger.Debugf("no point_cloud_cutoff given, setting to default value of %v", cutoff)
	}

	if config.UpdateRate == 0 {
		logger.Debug("no update_rate given, camera info will be published with every frame")
	}

	if config.MQTT != nil {
		defaultString(&config.MQTT.ClientID, "mqtt.client_id", "depthcamera-"+uuid.NewString(), logger)
		if config.MQTT.ConnectTimeoutSec == 0 {
			config.MQTT.ConnectTimeoutSec = DefaultMQTTConnectTimeoutSec
			logger.Debugf("no mqtt.connect_timeout_sec given, setting to default value of %d", DefaultMQTTConnectTimeoutSec)
		}
	}
}

// Cutoff returns the point cloud cutoff, or the default when it was never set.
func (config *AttrConfig) Cutoff() float64 {
	if config.PointCloudCutoff == nil {
		return DefaultPointCloudCutoff
	}
	return *config.PointCloudCutoff
}

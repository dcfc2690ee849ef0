// Package config defines and loads the pipeline's configuration file: a
// YAML document describing tick timing, dataset paths, and the camera
// and LiDAR workers to instantiate.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CameraConfig describes one camera operator.
type CameraConfig struct {
	ID        string `yaml:"id" validate:"required"`
	Frequency int    `yaml:"frequency" validate:"required,gt=0"`
	CameraKey string `yaml:"camera_key" validate:"required"`
}

// CamerasConfig groups the camera dataset path with the individual
// camera operators to instantiate against it.
type CamerasConfig struct {
	DatasPath      string         `yaml:"camera_datas_path" validate:"required"`
	Configurations []CameraConfig `yaml:"CamerasConfigurations" validate:"required,min=1,dive"`
}

// LidarConfig describes one LiDAR worker operator.
type LidarConfig struct {
	ID        string `yaml:"id" validate:"required"`
	Frequency int    `yaml:"frequency" validate:"required,gt=0"`
}

// LidarWorkersConfig groups the shared LiDAR database path with the
// individual worker operators to instantiate against it.
type LidarWorkersConfig struct {
	DataPath       string        `yaml:"lidars_data_path" validate:"required"`
	Configurations []LidarConfig `yaml:"LidarConfigurations" validate:"required,min=1,dive"`
}

// Config is the pipeline's top-level configuration.
type Config struct {
	TickTime     int                `yaml:"TickTime" validate:"required,gt=0"`
	Duration     int                `yaml:"Duration" validate:"required,gt=0"`
	PoseJSONFile string             `yaml:"poseJsonFile" validate:"required"`
	Cameras      CamerasConfig      `yaml:"Cameras" validate:"required"`
	LiDarWorkers LidarWorkersConfig `yaml:"LiDarWorkers" validate:"required"`
}

// Load reads and validates the configuration file at path. Parse errors
// and validation errors are both reported as a single wrapped error; a
// validator.ValidationErrors failure lists every violated field at once,
// rather than stopping at the first one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

package utils

import (
	"fmt"
	"time"

	"github.com/benmeehan/mission-agent/pkg/file"
	"github.com/benmeehan/mission-agent/pkg/location"
	"github.com/go-playground/validator/v10"
)

// Location provider kinds.
const (
	LocationProviderStatic = "static"
	LocationProviderGPS    = "gps"
	LocationProviderGoogle = "google"
)

// Camera modes.
const (
	CameraModeCommand = "command"
	CameraModeFile    = "file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Identity struct {
		File   string `yaml:"file"`    // Path to the user identity file
		UserID string `yaml:"user_id"` // User ID used when the identity file is missing
	} `yaml:"identity"`

	Site struct {
		Fence location.GeoFence `yaml:"fence"` // Area in which missions are issued
	} `yaml:"site"`

	Location struct {
		Provider       string              `yaml:"provider" validate:"oneof=static gps google"` // static, gps or google
		GPSDevicePort  string              `yaml:"gps_device_port" validate:"required_if=Provider gps"`
		GPSBaudRate    int                 `yaml:"gps_baud_rate"`
		GPSReadTimeout time.Duration       `yaml:"gps_read_timeout"` // How long to wait for a fix
		MapsAPIKey     string              `yaml:"maps_api_key" validate:"required_if=Provider google"`
		ModemIndex     int                 `yaml:"modem_index"` // mmcli modem used for cell tower scans
		Static         location.Coordinate `yaml:"static"`      // Fixed position for the static provider
	} `yaml:"location"`

	Camera struct {
		Mode      string   `yaml:"mode" validate:"oneof=command file"` // command or file
		Command   []string `yaml:"command" validate:"required_if=Mode command"`
		Source    string   `yaml:"source" validate:"required_if=Mode file"` // Image copied by the file camera
		OutputDir string   `yaml:"output_dir" validate:"required"`          // Where captured images are written
	} `yaml:"camera"`

	Services struct {
		MissionBaseURL        string        `yaml:"mission_base_url" validate:"required,url"`
		VerificationBaseURL   string        `yaml:"verification_base_url" validate:"required,url"`
		RequestTimeout        time.Duration `yaml:"request_timeout" validate:"gt=0"`
		APIVersion            string        `yaml:"api_version"` // Semver constraint on the services' X-API-Version
		EnforceValidityWindow bool          `yaml:"enforce_validity_window"`
	} `yaml:"services"`

	MQTT struct {
		Enabled       bool   `yaml:"enabled"`
		Broker        string `yaml:"broker" validate:"required_if=Enabled true"` // MQTT broker address
		ClientID      string `yaml:"client_id"`                                  // MQTT client ID
		CACertificate string `yaml:"ca_certificate"`                             // Path to the CA certificate
		Topic         string `yaml:"topic" validate:"required_if=Enabled true"`  // Prefix for session state topics
		QOS           int    `yaml:"qos" validate:"gte=0,lte=2"`                 // MQTT QoS level for state messages
	} `yaml:"mqtt"`

	StatusServer struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr" validate:"required_if=Enabled true"` // Listen address, e.g. :8081
	} `yaml:"status_server"`

	Archive struct {
		Enabled         bool   `yaml:"enabled"`
		Endpoint        string `yaml:"endpoint" validate:"required_if=Enabled true"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		Bucket          string `yaml:"bucket" validate:"required_if=Enabled true"`
		Prefix          string `yaml:"prefix"`
		UseSSL          bool   `yaml:"use_ssl"`
	} `yaml:"archive"`

	Runner struct {
		Interval time.Duration `yaml:"interval"` // Zero runs the workflow once
		Retain   int           `yaml:"retain" validate:"gte=0"`
	} `yaml:"runner"`
}

// LoadConfig loads the YAML configuration from the specified file and validates it.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", filename, err)
	}

	return &config, nil
}

package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path"`

	UploadConfig  UploadConfig  `mapstructure:"upload" validate:"required"`
	CaptureConfig CaptureConfig `mapstructure:"capture" validate:"required"`

	// DataDir is where the development upload sink stores payloads and its
	// journal database.
	DataDir string `mapstructure:"data_dir" validate:"required"`
}

// UploadConfig describes the upload endpoint the capture units post to.
type UploadConfig struct {
	BaseURL               string `mapstructure:"base_url" validate:"required"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required"`
}

// CaptureConfig tunes the capture units' cadence, batching and stop bound.
type CaptureConfig struct {
	VideoChunkIntervalSeconds int `mapstructure:"video_chunk_interval_seconds" validate:"required"`
	AudioChunkIntervalSeconds int `mapstructure:"audio_chunk_interval_seconds" validate:"required"`
	VideoBatchThreshold       int `mapstructure:"video_batch_threshold" validate:"required"`
	HandoffBoundSeconds       int `mapstructure:"handoff_bound_seconds" validate:"required"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env variables.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	v.SetDefault("SERVICE_NAME", "interview-capture")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "")
	v.SetDefault("DATA_DIR", "./data")

	v.SetDefault("UPLOAD__BASE_URL", "http://localhost:9091")
	v.SetDefault("UPLOAD__REQUEST_TIMEOUT_SECONDS", 30)

	v.SetDefault("CAPTURE__VIDEO_CHUNK_INTERVAL_SECONDS", 1)
	v.SetDefault("CAPTURE__AUDIO_CHUNK_INTERVAL_SECONDS", 10)
	v.SetDefault("CAPTURE__VIDEO_BATCH_THRESHOLD", 10)
	v.SetDefault("CAPTURE__HANDOFF_BOUND_SECONDS", 10)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}

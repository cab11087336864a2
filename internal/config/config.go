// Package config loads and validates the settings the session, prompt,
// video and webrtc components depend on.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// AppConfig holds every setting the session/prompt/video/httpserver/webrtc
// components read. REST/PICS/project fields are named but left as plain
// passthrough strings for the separate loader that owns them.
type AppConfig struct {
	// Hostname is the harness host the event-stream and file-upload
	// endpoints live on.
	Hostname string `mapstructure:"hostname" validate:"required"`

	// VideoServerPort is the embedded HTTP server's listen port.
	VideoServerPort int `mapstructure:"video_server_port" validate:"required,gt=0,lt=65536"`

	// VideoOutputDir is where raw .bin captures are written.
	VideoOutputDir string `mapstructure:"video_output_dir" validate:"required"`

	// LogDir is where the optional per-run rotating log file is written.
	LogDir string `mapstructure:"log_dir" validate:"required"`

	// NoColor disables colorized terminal output when true.
	NoColor bool `mapstructure:"no_color"`

	// PromptDefaultTimeoutSeconds is used when a prompt_request omits its
	// own timeout.
	PromptDefaultTimeoutSeconds int `mapstructure:"prompt_default_timeout_seconds" validate:"gt=0"`

	// STUNServers is the ICE server list the WebRTC peer advertises.
	STUNServers []string `mapstructure:"stun_servers" validate:"required,min=1"`

	// FFmpegPath locates the external ffmpeg binary used by the video
	// transcoder.
	FFmpegPath string `mapstructure:"ffmpeg_path" validate:"required"`

	// RunnerAPIBaseURL, ProjectID are passthrough fields consumed by the
	// REST client, not by anything in this module.
	RunnerAPIBaseURL string `mapstructure:"runner_api_base_url"`
	ProjectID        string `mapstructure:"project_id"`
}

func setDefault(v *viper.Viper) {
	v.SetDefault("hostname", "localhost")
	v.SetDefault("video_server_port", 8999)
	v.SetDefault("video_output_dir", "./th_cli_output/video")
	v.SetDefault("log_dir", "./th_cli_output/logs")
	v.SetDefault("no_color", false)
	v.SetDefault("prompt_default_timeout_seconds", 60)
	v.SetDefault("stun_servers", []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
	})
	v.SetDefault("ffmpeg_path", "ffmpeg")
}

// InitConfig builds a viper instance keyed with a double-underscore
// delimiter so nested env vars map cleanly; config file optional.
func InitConfig() (*viper.Viper, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))
	setDefault(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if envPath := os.Getenv("TH_CLI_ENV_PATH"); envPath != "" {
		v.AddConfigPath(envPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TH_CLI")
	v.AutomaticEnv()
	return v, nil
}

// GetApplicationConfig unmarshals and validates v into an AppConfig.
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}
	return &cfg, nil
}

// Load is the convenience entrypoint combining InitConfig and
// GetApplicationConfig for callers that don't need the intermediate
// viper instance.
func Load() (*AppConfig, error) {
	v, err := InitConfig()
	if err != nil {
		return nil, err
	}
	return GetApplicationConfig(v)
}

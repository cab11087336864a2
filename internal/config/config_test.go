package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.Hostname)
	require.Equal(t, 8999, cfg.VideoServerPort)
	require.Len(t, cfg.STUNServers, 2)
	require.Equal(t, "ffmpeg", cfg.FFmpegPath)
}

func TestValidationRejectsBadPort(t *testing.T) {
	v, err := InitConfig()
	require.NoError(t, err)
	v.Set("video_server_port", 0)

	_, err = GetApplicationConfig(v)
	require.Error(t, err)
}

func TestValidationRejectsEmptySTUNServers(t *testing.T) {
	v, err := InitConfig()
	require.NoError(t, err)
	v.Set("stun_servers", []string{})

	_, err = GetApplicationConfig(v)
	require.Error(t, err)
}

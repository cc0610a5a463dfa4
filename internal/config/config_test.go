package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNetApp_TokenOptional(t *testing.T) {
	os.Unsetenv("SATORI_NETAPP_TOKEN")
	cfg, err := LoadNetApp()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Token)
}

func TestLoadNetApp_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("SATORI_NETAPP_TOKEN", "secret")
	t.Setenv("SATORI_NETAPP_PORT", "9000")

	cfg, err := LoadNetApp()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "secret", cfg.Token)
}

func TestLoadNetSDK_RequiresURL(t *testing.T) {
	os.Unsetenv("SATORI_NETSDK_URL")
	_, err := LoadNetSDK()
	assert.Error(t, err)
}

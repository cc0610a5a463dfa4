// Package config handles satori-bridge configuration, loaded from
// environment variables in the style of
// DataPilot-R-D-ChainKVM's config package.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// NetAppConfig configures the Net-side App server (C8): the HTTP/WS
// listener consumers connect to.
type NetAppConfig struct {
	Host  string
	Port  int
	Path  string
	Token string
}

// NetSDKConfig configures the Net-side SDK client (C9): the WS/HTTP
// upstream this process connects to as a consumer.
type NetSDKConfig struct {
	URL   string
	Token string
}

// OneBotConfig configures the OneBot/v11 adapter (C10).
type OneBotConfig struct {
	URL   string
	Token string
}

// LoadNetApp reads NetAppConfig from the environment, defaulting to
// spec.md §4.3's 127.0.0.1:5140 binding. SATORI_NETAPP_TOKEN is optional
// (§6): an empty value disables bearer-token auth entirely, rather than
// failing to load.
func LoadNetApp() (*NetAppConfig, error) {
	cfg := &NetAppConfig{
		Host:  envString("SATORI_NETAPP_HOST", "127.0.0.1"),
		Port:  envInt("SATORI_NETAPP_PORT", 5140),
		Path:  envString("SATORI_NETAPP_PATH", ""),
		Token: envString("SATORI_NETAPP_TOKEN", ""),
	}
	return cfg, nil
}

// LoadNetSDK reads NetSDKConfig from the environment.
func LoadNetSDK() (*NetSDKConfig, error) {
	cfg := &NetSDKConfig{Token: os.Getenv("SATORI_NETSDK_TOKEN")}
	cfg.URL = os.Getenv("SATORI_NETSDK_URL")
	if cfg.URL == "" {
		return nil, fmt.Errorf("SATORI_NETSDK_URL is required")
	}
	return cfg, nil
}

// LoadOneBot reads OneBotConfig from the environment.
func LoadOneBot() (*OneBotConfig, error) {
	cfg := &OneBotConfig{Token: os.Getenv("SATORI_ONEBOT_TOKEN")}
	cfg.URL = os.Getenv("SATORI_ONEBOT_URL")
	if cfg.URL == "" {
		return nil, fmt.Errorf("SATORI_ONEBOT_URL is required")
	}
	return cfg, nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

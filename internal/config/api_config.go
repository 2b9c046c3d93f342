package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
	GetRefreshPath() string
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the backend base URL without a trailing slash
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv("API_BASE_URL", "http://localhost:3000"), "/")
}

func (API) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv("API_TIMEOUT", "15s"))
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func (API) GetRefreshPath() string {
	return GetEnv("API_REFRESH_PATH", "/auth/refresh")
}

package config

type Config interface {
	EnvConfig
	CorsConfig
	APIConfig
	StorageConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	API
	Storage
	Security
}

// New returns the environment backed configuration.
// A .env file in the working directory is loaded first when present.
func New() Config {
	LoadDotEnv()
	return mainConfig{}
}

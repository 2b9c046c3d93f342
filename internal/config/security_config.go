package config

type SecurityConfig interface {
	GetJWKSURL() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetJWKSURL enables signature checks on tokens accepted into the session when set
func (Security) GetJWKSURL() string {
	return GetEnv("JWKS_URL", "")
}

package config

import (
	"strconv"
	"strings"
)

// StoreKind selects the durable repo behind the session store
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreFile   StoreKind = "file"
	StoreRedis  StoreKind = "redis"
)

type StorageConfig interface {
	GetSessionStore() StoreKind
	GetSessionFile() string
	GetSessionKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisTLS() bool
	GetRedisPrefix() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetSessionStore reads SESSION_STORE. Unset or unknown values select the
// encrypted file when SESSION_KEY is set and memory otherwise.
func (st Storage) GetSessionStore() StoreKind {
	switch kind := StoreKind(strings.ToLower(GetEnv("SESSION_STORE", ""))); kind {
	case StoreMemory, StoreFile, StoreRedis:
		return kind
	}
	if st.GetSessionKey() == "" {
		return StoreMemory
	}
	return StoreFile
}

func (Storage) GetSessionFile() string {
	return GetEnv("SESSION_FILE", "./data/session.bin")
}

// GetSessionKey is the passphrase the file repo derives its encryption key from
func (Storage) GetSessionKey() string {
	return GetEnv("SESSION_KEY", "")
}

func (Storage) GetRedisAddr() string {
	host := GetEnv("REDIS_HOST", "")
	port := GetEnv("REDIS_PORT", "")
	if host != "" && port != "" {
		return host + ":" + port
	}
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	n, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return n
}

func (Storage) GetRedisTLS() bool {
	v := GetEnv("REDIS_TLS", "")
	return strings.EqualFold(v, "true") || v == "1"
}

func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "backoffice:session")
}

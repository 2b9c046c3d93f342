// Package filerepo persists session values in a single encrypted file.
// The file holds a ChaCha20-Poly1305 sealed JSON object; the key is derived
// from a passphrase with HKDF-SHA256.
package filerepo

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/backoffice-console/session"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var _ session.Repo = (*FileRepo)(nil)

var (
	ErrNoKey      = errors.New("session file key is empty")
	ErrCorruption = errors.New("session file cannot be decrypted")
)

const (
	kdfSalt        = "backoffice-console/session"
	additionalData = "session/v1"
)

type FileRepo struct {
	path string
	aead cipher.AEAD
	mu   sync.Mutex
}

// New opens (lazily) the encrypted session file at path
func New(path, passphrase string) (*FileRepo, error) {
	if passphrase == "" {
		return nil, ErrNoKey
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), []byte(kdfSalt), []byte(additionalData)), key); err != nil {
		return nil, fmt.Errorf("[FileRepo New] derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[FileRepo New] cipher: %w", err)
	}
	return &FileRepo{path: path, aead: aead}, nil
}

func (r *FileRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (r *FileRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.load()
	if err != nil {
		return err
	}
	values[key] = value
	return r.save(values)
}

func (r *FileRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return r.save(values)
}

func (r *FileRepo) load() (map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileRepo load] %w", err)
	}

	nonceSize := r.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrCorruption
	}
	plain, err := r.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(additionalData))
	if err != nil {
		return nil, ErrCorruption
	}

	values := make(map[string]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("[FileRepo load] decode: %w", err)
	}
	return values, nil
}

// save writes to a temp file in the same directory and renames it over the
// target, so a crash never leaves a half written session file.
func (r *FileRepo) save(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("[FileRepo save] encode: %w", err)
	}
	nonce := make([]byte, r.aead.NonceSize(), r.aead.NonceSize()+len(plain)+r.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("[FileRepo save] nonce: %w", err)
	}
	sealed := r.aead.Seal(nonce, nonce, plain, []byte(additionalData))

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileRepo save] mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("[FileRepo save] temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo save] write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo save] chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileRepo save] close: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("[FileRepo save] rename: %w", err)
	}
	return nil
}

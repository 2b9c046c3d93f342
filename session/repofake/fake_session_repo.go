package fakesessionrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/backoffice-console/session"
)

var _ session.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps values in process memory. It backs the "memory"
// session store and the tests.
type FakeSessionRepo struct {
	values map[string]string
	lock   sync.RWMutex

	// Err, when set, is returned by every call
	Err error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		values: make(map[string]string),
	}
}

func (sr *FakeSessionRepo) Get(_ context.Context, key string) (string, bool, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.Err != nil {
		return "", false, sr.Err
	}
	v, ok := sr.values[key]
	return v, ok, nil
}

func (sr *FakeSessionRepo) Set(_ context.Context, key, value string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.Err != nil {
		return sr.Err
	}
	sr.values[key] = value
	return nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, key string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.Err != nil {
		return sr.Err
	}
	delete(sr.values, key)
	return nil
}

// Len returns the number of stored keys
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.values)
}

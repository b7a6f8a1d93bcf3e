package blob

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"time"
)

type memoryObject struct {
	info Info
	data []byte
}

// Memory keeps objects in process memory. Used in development and tests.
type Memory struct {
	mu   sync.RWMutex
	objs map[string]memoryObject
}

func NewMemory() *Memory {
	return &Memory{objs: make(map[string]memoryObject)}
}

func (m *Memory) Driver() string { return DriverMemory }

func (m *Memory) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.objs[key]; exists {
		return Info{}, ErrExists
	}

	info := Info{Key: key, Size: int64(len(b)), ContentType: opts.ContentType, LastModified: time.Now().UTC()}
	m.objs[key] = memoryObject{info: info, data: b}
	return info, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objs[key]; !ok {
		return ErrNotFound
	}
	delete(m.objs, key)
	return nil
}

func (m *Memory) PresignURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objs[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}

	u := url.URL{Scheme: "memory", Path: "/" + key}
	q := u.Query()
	q.Set("expires", time.Now().Add(expiry).UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Open returns the stored bytes of key.
func (m *Memory) Open(key string) (io.Reader, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objs[key]
	if !ok {
		return nil, false
	}
	return bytes.NewReader(obj.data), true
}

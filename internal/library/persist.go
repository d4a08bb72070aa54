package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MemoryPersister хранит снимок в памяти процесса. Снимок сериализуется,
// поэтому сохраненное состояние не разделяет память с хранилищем.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
}

var (
	_ Persister = (*MemoryPersister)(nil)
	_ Persister = (*FilePersister)(nil)
	_ Persister = (*RedisPersister)(nil)
)

// NewMemoryPersister создает пустой MemoryPersister.
func NewMemoryPersister() *MemoryPersister { return &MemoryPersister{} }

func (m *MemoryPersister) Load(_ context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return Snapshot{}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(m.data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

func (m *MemoryPersister) Save(_ context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// Raw возвращает сохраненный JSON.
func (m *MemoryPersister) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// FilePersister хранит снимок в JSON файле. Запись атомарная: через временный файл и rename.
type FilePersister struct {
	path string
}

// NewFilePersister создает FilePersister для path.
func NewFilePersister(path string) *FilePersister { return &FilePersister{path: path} }

func (f *FilePersister) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode %s: %w", f.path, err)
	}
	return snap, nil
}

func (f *FilePersister) Save(_ context.Context, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

// RedisPersister хранит снимок в Redis под ключом fork-your-story-storage[:owner].
type RedisPersister struct {
	client redis.UniversalClient
	key    string
	logger *zap.Logger
}

// NewRedisPersister создает RedisPersister. Пустой owner означает общий ключ.
func NewRedisPersister(client redis.UniversalClient, owner string, logger *zap.Logger) *RedisPersister {
	return &RedisPersister{client: client, key: RedisKey(owner), logger: logger.Named("RedisLibraryPersister")}
}

// RedisKey - ключ снимка владельца.
func RedisKey(owner string) string {
	if owner == "" {
		return StorageKey
	}
	return StorageKey + ":" + owner
}

func (r *RedisPersister) Load(ctx context.Context) (Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		r.logger.Debug("No library snapshot yet", zap.String("key", r.key))
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get %s: %w", r.key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode %s: %w", r.key, err)
	}
	return snap, nil
}

func (r *RedisPersister) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", r.key, err)
	}
	return nil
}

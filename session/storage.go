package session

import (
	"context"
	"encoding/json"
	"sync"
)

// Chaves fixas usadas para persistir os dados do cliente entre sessões
const (
	StorageKeyCustomer = "pepmenu_customer"
	StorageKeyDelivery = "pepmenu_delivery"
)

// Storage é o armazenamento chave-valor onde cliente e entrega sobrevivem entre sessões.
// Get retorna found=false quando a chave não existe.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStorage implementa Storage em memória
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStorage cria um armazenamento em memória vazio
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// loadJSON lê e decodifica uma chave. Qualquer falha é tratada como ausência.
func loadJSON[T any](ctx context.Context, storage Storage, key string) (*T, error) {
	raw, found, err := storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found || raw == "" || raw == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func saveJSON(ctx context.Context, storage Storage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return storage.Set(ctx, key, string(raw))
}

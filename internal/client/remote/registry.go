package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/iudanet/fitsync/internal/config"
)

// Factory создает backend по его конфигурации
type Factory func(ctx context.Context, cfg config.BackendConfig, logger *slog.Logger) (RemoteStore, error)

// Registry сопоставляет kind backend'а с его фабрикой
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register регистрирует фабрику; повторная регистрация kind заменяет прежнюю
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Kinds возвращает зарегистрированные kinds в алфавитном порядке
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build создает backend по конфигурации. nil logger заменяется slog.Default().
func (r *Registry) Build(ctx context.Context, cfg config.BackendConfig, logger *slog.Logger) (RemoteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r.mu.RLock()
	f, ok := r.factories[cfg.Kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend kind %q (known: %v)", cfg.Kind, r.Kinds())
	}

	store, err := f(ctx, cfg, logger.With("backend", cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", cfg.Name, err)
	}
	return store, nil
}

// BuildAll создает backends в порядке конфигурации. Первая ошибка прерывает
// построение.
func (r *Registry) BuildAll(ctx context.Context, cfgs []config.BackendConfig, logger *slog.Logger) ([]RemoteStore, error) {
	stores := make([]RemoteStore, 0, len(cfgs))
	for _, cfg := range cfgs {
		store, err := r.Build(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return stores, nil
}

package runner

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrHubFull is returned when the hub already holds its maximum of envs.
var ErrHubFull = errors.New("runner: too many open environments")

// Handle is a bridged env registered in a hub.
type Handle struct {
	ID         string
	GauntletID string
	Bridge     *Bridge
	CreatedAt  time.Time
}

// HubConfig holds configuration for the hub.
type HubConfig struct {
	MaxEnvs       int           // 0 means unlimited
	IdleTimeout   time.Duration // how long before an unused env is closed; 0 keeps envs forever
	CleanupPeriod time.Duration // how often to look for idle envs
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		MaxEnvs:       64,
		IdleTimeout:   10 * time.Minute,
		CleanupPeriod: 30 * time.Second,
	}
}

// Hub tracks bridged envs by id. Thread-safe for concurrent access.
type Hub struct {
	config HubConfig

	mu      sync.RWMutex
	handles map[string]*Handle

	done     chan struct{}
	doneOnce sync.Once
}

// NewHub creates a hub.
func NewHub(cfg HubConfig) *Hub {
	return &Hub{
		config:  cfg,
		handles: make(map[string]*Handle),
		done:    make(chan struct{}),
	}
}

// Start begins the hub's background cleanup.
func (h *Hub) Start() {
	if h.config.IdleTimeout > 0 && h.config.CleanupPeriod > 0 {
		go h.cleanupLoop()
	}
}

// Stop closes every env and stops the cleanup loop.
func (h *Hub) Stop() {
	h.doneOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, hd := range h.handles {
		hd.Bridge.Close()
		delete(h.handles, id)
	}
}

// Open bridges env and registers it under a fresh id.
func (h *Hub) Open(env Env, timeout time.Duration) (*Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.config.MaxEnvs > 0 && len(h.handles) >= h.config.MaxEnvs {
		return nil, ErrHubFull
	}
	hd := &Handle{
		ID:         uuid.NewString(),
		GauntletID: env.ID(),
		Bridge:     NewBridge(env, timeout),
		CreatedAt:  time.Now(),
	}
	h.handles[hd.ID] = hd
	return hd, nil
}

// Get retrieves a handle by id.
func (h *Hub) Get(id string) (*Handle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	hd, ok := h.handles[id]
	return hd, ok
}

// Close closes and removes the env with the given id.
func (h *Hub) Close(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	hd, ok := h.handles[id]
	if !ok {
		return false
	}
	hd.Bridge.Close()
	delete(h.handles, id)
	return true
}

// Handles returns the open envs, oldest first.
func (h *Hub) Handles() []*Handle {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Handle, 0, len(h.handles))
	for _, hd := range h.handles {
		out = append(out, hd)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of open envs.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handles)
}

func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(h.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.closeIdle(time.Now())
		case <-h.done:
			return
		}
	}
}

// closeIdle closes envs unused since before now minus the idle timeout.
func (h *Hub) closeIdle(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := 0
	for id, hd := range h.handles {
		if now.Sub(hd.Bridge.LastUsed()) > h.config.IdleTimeout {
			hd.Bridge.Close()
			delete(h.handles, id)
			closed++
		}
	}
	return closed
}

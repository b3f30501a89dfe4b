// Package shutdown coordinates the orderly teardown of the serve command.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/andrelucas/mountwrapper/internal/logging"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Manager runs registered teardown hooks in reverse registration order
// once a termination signal arrives.
type Manager struct {
	mu      sync.Mutex
	hooks   []hook
	timeout time.Duration
	log     *logging.Logger
	done    chan struct{}
	once    sync.Once
}

// New returns a manager that allows each Shutdown run the given total
// timeout.
func New(log *logging.Logger, timeout time.Duration) *Manager {
	return &Manager{
		timeout: timeout,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Register adds a named teardown hook. Hooks run LIFO, so register in
// startup order.
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// Wait blocks until SIGTERM or SIGINT arrives, then marks the manager done.
func (m *Manager) Wait() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	sig := <-sigs
	m.log.Info("received signal, shutting down", map[string]interface{}{"signal": sig.String()})

	m.once.Do(func() { close(m.done) })
}

// Done is closed once a termination signal has been seen.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Shutdown runs every hook in reverse order under one shared deadline.
// A failing hook is logged and does not stop the rest.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	for i := len(m.hooks) - 1; i >= 0; i-- {
		h := m.hooks[i]
		if err := h.fn(ctx); err != nil {
			m.log.Error("shutdown hook failed", map[string]interface{}{"hook": h.name, "error": err.Error()})
			continue
		}
		m.log.Debug("shutdown hook done", map[string]interface{}{"hook": h.name})
	}
}

// StopHTTPServer wraps an HTTP server's graceful stop as a hook.
func StopHTTPServer(server interface {
	Shutdown(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return server.Shutdown(ctx)
	}
}

package lambda

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/config"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/server"
)

// staleAfter is how long a warm container may sit idle before it is re-checked
const staleAfter = 5 * time.Minute

// lease tracks the callers still using a container. A retired container is
// closed when its last user releases it.
type lease struct {
	container *server.Container
	users     int
	retired   bool
}

// ConnectionManager keeps one service container alive across warm invocations
type ConnectionManager struct {
	mu       sync.Mutex
	current  *lease
	config   *config.Config
	logger   *logrus.Logger
	lastUsed time.Time
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = &ConnectionManager{}
	})
	return globalConnectionManager
}

// Initialize sets the configuration and logger used to build the container.
// It does not connect; the first GetContainer call does.
func (cm *ConnectionManager) Initialize(cfg *config.Config, logger *logrus.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.config = cfg
	cm.logger = logger
}

// GetContainer returns the service container and a release func the caller
// must call when done with it. It connects on first use and reconnects when
// an idle container fails its health check.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, func(), error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.current != nil && time.Since(cm.lastUsed) < staleAfter {
		return cm.acquire(cm.current), cm.releaseFunc(cm.current), nil
	}

	if cm.current != nil {
		if err := cm.current.container.HealthCheck(ctx); err == nil {
			return cm.acquire(cm.current), cm.releaseFunc(cm.current), nil
		}
		cm.log().Warn("Idle container failed health check, reconnecting")
		cm.retire(cm.current)
	}

	if cm.config == nil {
		cfg, err := config.GetOptimizedConfig()
		if err != nil {
			return nil, nil, err
		}
		cm.config = cfg
	}
	if cm.logger == nil {
		cm.logger = config.NewLogger(cm.config.Log)
	}

	container, err := server.NewContainer(ctx, cm.config, cm.logger)
	if err != nil {
		return nil, nil, err
	}

	cm.current = &lease{container: container}
	cm.logger.WithField("deployment_mode", config.GetDeploymentMode()).Info("Service container initialized")
	return cm.acquire(cm.current), cm.releaseFunc(cm.current), nil
}

// IsHealthy reports whether a container exists and was used recently
func (cm *ConnectionManager) IsHealthy() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.current == nil {
		return false
	}
	return time.Since(cm.lastUsed) < staleAfter
}

// Cleanup retires the container; it is closed once no caller holds it and
// the next GetContainer call reconnects
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.current == nil {
		return nil
	}
	return cm.retire(cm.current)
}

// acquire must be called with mu held
func (cm *ConnectionManager) acquire(l *lease) *server.Container {
	l.users++
	cm.lastUsed = time.Now()
	return l.container
}

// retire must be called with mu held
func (cm *ConnectionManager) retire(l *lease) error {
	l.retired = true
	if cm.current == l {
		cm.current = nil
	}
	if l.users > 0 {
		return nil
	}
	return l.container.Close()
}

func (cm *ConnectionManager) releaseFunc(l *lease) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			cm.mu.Lock()
			defer cm.mu.Unlock()

			l.users--
			if l.retired && l.users == 0 {
				if err := l.container.Close(); err != nil {
					cm.log().WithError(err).Warn("Failed to close retired container")
				}
			}
		})
	}
}

func (cm *ConnectionManager) log() *logrus.Logger {
	if cm.logger == nil {
		return logrus.StandardLogger()
	}
	return cm.logger
}

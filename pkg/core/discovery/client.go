package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
	"github.com/msto63/mCW/pkg/core/health"
	"github.com/msto63/mCW/pkg/core/logging"
)

var discoveryLogger = logging.New("discovery")

// ServiceStatus represents the status of a service
type ServiceStatus string

const (
	ServiceStatusHealthy   ServiceStatus = "healthy"
	ServiceStatusUnhealthy ServiceStatus = "unhealthy"
	ServiceStatusStarting  ServiceStatus = "starting"
	ServiceStatusStopping  ServiceStatus = "stopping"
	ServiceStatusUnknown   ServiceStatus = "unknown"
)

// ServiceInfo describes a running service instance. It is persisted as a
// runtime file so that other local processes (CLI, TUI) can find the
// service without any central registry.
type ServiceInfo struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Version       string            `json:"version"`
	Address       string            `json:"address"`
	Port          int               `json:"port"`
	PID           int               `json:"pid"`
	Status        ServiceStatus     `json:"status"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	RegisteredAt  time.Time         `json:"registered_at"`
	LastHeartbeat time.Time         `json:"last_heartbeat"`
}

// FullAddress returns the full address of the service
func (s *ServiceInfo) FullAddress() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// BaseURL returns the HTTP base URL of the service
func (s *ServiceInfo) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", s.Address, s.Port)
}

// IsStale reports whether the last heartbeat is older than the given age
func (s *ServiceInfo) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastHeartbeat) > maxAge
}

// Client is the service discovery client interface
type Client interface {
	// Register registers the current service with the registry
	Register(ctx context.Context, info *ServiceInfo) error

	// Deregister removes the current service from the registry
	Deregister(ctx context.Context, id string) error

	// Heartbeat refreshes the registration to keep it alive
	Heartbeat(ctx context.Context, id string) error

	// Discover finds services by name
	Discover(ctx context.Context, name string) ([]*ServiceInfo, error)

	// Get returns a specific service by ID
	Get(ctx context.Context, id string) (*ServiceInfo, error)

	// List returns all registered services
	List(ctx context.Context) ([]*ServiceInfo, error)

	// Close closes the client
	Close() error
}

// FileRegistry is a registry backed by runtime files in a shared directory.
// Each service writes <dir>/<name>.json on registration and refreshes it from
// its heartbeat loop; readers treat entries without a recent heartbeat as gone.
type FileRegistry struct {
	mu         sync.Mutex
	dir        string
	staleAfter time.Duration
}

// DefaultStaleAfter is the heartbeat age after which a runtime file no
// longer counts as a running instance.
const DefaultStaleAfter = 30 * time.Second

// NewFileRegistry creates a registry over the given runtime directory
func NewFileRegistry(dir string, staleAfter time.Duration) *FileRegistry {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &FileRegistry{
		dir:        dir,
		staleAfter: staleAfter,
	}
}

// Dir returns the runtime directory
func (r *FileRegistry) Dir() string {
	return r.dir
}

// Register writes the runtime file for a service
func (r *FileRegistry) Register(ctx context.Context, info *ServiceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info.ID == "" {
		info.ID = uuid.New().String()
	}
	if info.PID == 0 {
		info.PID = os.Getpid()
	}
	info.RegisteredAt = time.Now()
	info.LastHeartbeat = time.Now()
	if info.Status == "" {
		info.Status = ServiceStatusHealthy
	}

	return r.writeInfo(info)
}

// Deregister removes the runtime file of a service
func (r *FileRegistry) Deregister(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := r.findByID(id)
	if err != nil {
		return err
	}
	if info == nil {
		return nil
	}

	if err := os.Remove(r.fileFor(info.Name)); err != nil && !os.IsNotExist(err) {
		return mcwerror.Wrap(err, "failed to remove runtime file").
			WithCode(mcwerror.CodeFileAccess).
			WithDetail("service", info.Name)
	}
	return nil
}

// Heartbeat refreshes the heartbeat timestamp in the runtime file
func (r *FileRegistry) Heartbeat(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := r.findByID(id)
	if err != nil {
		return err
	}
	if info == nil {
		return mcwerror.Newf("service not found: %s", id).
			WithCode(mcwerror.CodeNotFound)
	}

	info.LastHeartbeat = time.Now()
	info.Status = ServiceStatusHealthy
	return r.writeInfo(info)
}

// Discover finds running services by name. Entries whose heartbeat has gone
// stale are not returned.
func (r *FileRegistry) Discover(ctx context.Context, name string) ([]*ServiceInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := r.readInfo(name)
	if err != nil || info == nil {
		return nil, err
	}
	if info.Status != ServiceStatusHealthy || info.IsStale(r.staleAfter) {
		return nil, nil
	}
	return []*ServiceInfo{info}, nil
}

// Get returns a specific service by ID
func (r *FileRegistry) Get(ctx context.Context, id string) (*ServiceInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := r.findByID(id)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, mcwerror.Newf("service not found: %s", id).
			WithCode(mcwerror.CodeNotFound)
	}
	return info, nil
}

// List returns all registered services, stale entries marked as unknown
func (r *FileRegistry) List(ctx context.Context) ([]*ServiceInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.listAll()
}

// Close closes the registry (no-op for runtime files)
func (r *FileRegistry) Close() error {
	return nil
}

func (r *FileRegistry) fileFor(name string) string {
	return filepath.Join(r.dir, name+".json")
}

func (r *FileRegistry) writeInfo(info *ServiceInfo) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return mcwerror.Wrap(err, "failed to create runtime directory").
			WithCode(mcwerror.CodeFileAccess).
			WithDetail("dir", r.dir)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return mcwerror.Wrap(err, "failed to encode runtime file").
			WithCode(mcwerror.CodeInternal)
	}

	// Write to a temp file and rename so readers never see a torn file
	tmp, err := os.CreateTemp(r.dir, "."+info.Name+"-*")
	if err != nil {
		return mcwerror.Wrap(err, "failed to write runtime file").
			WithCode(mcwerror.CodeFileAccess).
			WithDetail("dir", r.dir)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return mcwerror.Wrap(err, "failed to write runtime file").
			WithCode(mcwerror.CodeFileAccess)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return mcwerror.Wrap(err, "failed to write runtime file").
			WithCode(mcwerror.CodeFileAccess)
	}
	if err := os.Rename(tmp.Name(), r.fileFor(info.Name)); err != nil {
		os.Remove(tmp.Name())
		return mcwerror.Wrap(err, "failed to write runtime file").
			WithCode(mcwerror.CodeFileAccess)
	}
	return nil
}

func (r *FileRegistry) readInfo(name string) (*ServiceInfo, error) {
	data, err := os.ReadFile(r.fileFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, mcwerror.Wrap(err, "failed to read runtime file").
			WithCode(mcwerror.CodeFileAccess).
			WithDetail("service", name)
	}

	var info ServiceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		// A corrupt runtime file counts as not running
		discoveryLogger.Warn("Ignoring corrupt runtime file", "service", name, "error", err)
		return nil, nil
	}
	return &info, nil
}

func (r *FileRegistry) listAll() ([]*ServiceInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, mcwerror.Wrap(err, "failed to read runtime directory").
			WithCode(mcwerror.CodeFileAccess).
			WithDetail("dir", r.dir)
	}

	var results []*ServiceInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := r.readInfo(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil || info == nil {
			continue
		}
		if info.IsStale(r.staleAfter) {
			info.Status = ServiceStatusUnknown
		}
		results = append(results, info)
	}
	return results, nil
}

func (r *FileRegistry) findByID(id string) (*ServiceInfo, error) {
	services, err := r.listAll()
	if err != nil {
		return nil, err
	}
	for _, svc := range services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return nil, nil
}

// Registration handles automatic service registration and heartbeat
type Registration struct {
	client   Client
	info     *ServiceInfo
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRegistration creates a new registration
func NewRegistration(client Client, info *ServiceInfo, heartbeatInterval time.Duration) *Registration {
	return &Registration{
		client:   client,
		info:     info,
		interval: heartbeatInterval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start starts the registration and heartbeat loop
func (r *Registration) Start(ctx context.Context) error {
	// Register the service
	if err := r.client.Register(ctx, r.info); err != nil {
		return mcwerror.Wrap(err, "failed to register service").
			WithDetail("service", r.info.Name)
	}

	// Start heartbeat loop
	go r.heartbeatLoop()

	return nil
}

// Stop stops the registration and deregisters the service
func (r *Registration) Stop(ctx context.Context) error {
	close(r.stopCh)
	<-r.doneCh

	return r.client.Deregister(ctx, r.info.ID)
}

// heartbeatLoop refreshes the registration periodically
func (r *Registration) heartbeatLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.client.Heartbeat(ctx, r.info.ID); err != nil {
				discoveryLogger.Warn("Heartbeat failed", "service_id", r.info.ID, "error", err)
			}
			cancel()
		}
	}
}

// ServiceID returns the registered service ID
func (r *Registration) ServiceID() string {
	return r.info.ID
}

// ServiceLocator provides service lookup functionality
type ServiceLocator struct {
	client     Client
	cache      map[string][]*ServiceInfo
	mu         sync.RWMutex
	ttl        time.Duration
	lastUpdate map[string]time.Time
}

// NewServiceLocator creates a new service locator
func NewServiceLocator(client Client, cacheTTL time.Duration) *ServiceLocator {
	return &ServiceLocator{
		client:     client,
		cache:      make(map[string][]*ServiceInfo),
		ttl:        cacheTTL,
		lastUpdate: make(map[string]time.Time),
	}
}

// Locate finds a service by name
func (l *ServiceLocator) Locate(ctx context.Context, name string) (*ServiceInfo, error) {
	services, err := l.LocateAll(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, mcwerror.Newf("no running instance found for service: %s", name).
			WithCode(mcwerror.CodeServiceUnavailable)
	}
	return services[0], nil
}

// LocateVerified finds a service and verifies that its port actually
// accepts connections. A runtime file left behind by a crashed process
// fails this check and is dropped from the cache.
func (l *ServiceLocator) LocateVerified(ctx context.Context, name string, timeout time.Duration) (*ServiceInfo, error) {
	info, err := l.Locate(ctx, name)
	if err != nil {
		return nil, err
	}

	check := health.TCPCheck(name, info.FullAddress(), timeout)
	if result := check.Check(ctx); result.Status != health.StatusHealthy {
		l.InvalidateCache(name)
		return nil, mcwerror.Newf("service %s not reachable at %s", name, info.FullAddress()).
			WithCode(mcwerror.CodeServiceUnavailable).
			WithDetail("message", result.Message)
	}
	return info, nil
}

// LocateAll finds all instances of a service
func (l *ServiceLocator) LocateAll(ctx context.Context, name string) ([]*ServiceInfo, error) {
	l.mu.RLock()
	cached, ok := l.cache[name]
	lastUpdate := l.lastUpdate[name]
	l.mu.RUnlock()

	// Return cached if still valid
	if ok && time.Since(lastUpdate) < l.ttl {
		return cached, nil
	}

	// Fetch from registry
	services, err := l.client.Discover(ctx, name)
	if err != nil {
		return nil, err
	}

	// Update cache
	l.mu.Lock()
	l.cache[name] = services
	l.lastUpdate[name] = time.Now()
	l.mu.Unlock()

	return services, nil
}

// InvalidateCache clears the cache for a service
func (l *ServiceLocator) InvalidateCache(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, name)
	delete(l.lastUpdate, name)
}

// ClearCache clears all cached entries
func (l *ServiceLocator) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string][]*ServiceInfo)
	l.lastUpdate = make(map[string]time.Time)
}
